// Package server manages the lifetime of a command run: the job's context is
// cancelled on SIGINT or SIGTERM, and registered resources are released in
// reverse order once the job returns.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Job is the work a Lifecycle runs. It must return promptly once ctx is done.
type Job func(ctx context.Context) error

// Lifecycle runs one Job and releases resources afterwards.
type Lifecycle struct {
	logger  *zap.Logger
	mu      sync.Mutex
	closers []namedCloser
	// notify subscribes to termination signals; replaced in tests.
	notify func(c chan<- os.Signal)
}

type namedCloser struct {
	name  string
	close func()
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
		notify: func(c chan<- os.Signal) { signal.Notify(c, syscall.SIGINT, syscall.SIGTERM) },
	}
}

// Add registers a named resource to release when Run finishes. Resources are
// released in reverse order of registration.
//
// Precondition: name must be non-empty; closeFn must be non-nil.
func (l *Lifecycle) Add(name string, closeFn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closers = append(l.closers, namedCloser{name: name, close: closeFn})
}

// Run executes job under a context cancelled by SIGINT, SIGTERM or ctx.
//
// Postcondition: every registered resource is released when Run returns; the
// job's error is returned wrapped with the interrupting signal, if any.
func (l *Lifecycle) Run(ctx context.Context, name string, job Job) error {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	l.notify(sigCh)
	defer signal.Stop(sigCh)

	var (
		sigMu sync.Mutex
		got   os.Signal
	)
	go func() {
		select {
		case sig := <-sigCh:
			sigMu.Lock()
			got = sig
			sigMu.Unlock()
			l.logger.Info("received signal, cancelling", zap.String("job", name), zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	l.logger.Debug("job started", zap.String("job", name))
	err := job(ctx)
	cancel()
	l.shutdown()

	sigMu.Lock()
	defer sigMu.Unlock()
	if got != nil && err != nil {
		err = fmt.Errorf("interrupted by %s: %w", got, err)
	}
	l.logger.Debug("job finished",
		zap.String("job", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

func (l *Lifecycle) shutdown() {
	l.mu.Lock()
	closers := l.closers
	l.closers = nil
	l.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		nc := closers[i]
		start := time.Now()
		nc.close()
		l.logger.Debug("resource released",
			zap.String("resource", nc.name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
