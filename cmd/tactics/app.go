package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
)

// errArchiveDisabled is returned by archive commands when archive.enabled is off.
var errArchiveDisabled = errors.New("archive is disabled; set archive.enabled or TACTICS_ARCHIVE_ENABLED")

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *battle.Service
	archive battle.Archive
}

func newApp(cfg *config.Config, logger *zap.Logger, service *battle.Service, archive battle.Archive) *app {
	return &app{cfg: cfg, logger: logger, service: service, archive: archive}
}

func provideConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideContent(cfg *config.Config, logger *zap.Logger) (*battle.Content, error) {
	content, err := battle.LoadContent(cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", cfg.Content.Dir, err)
	}
	races, classes, backgrounds := content.Ruleset.Counts()
	logger.Info("content loaded",
		zap.Int("abilities", len(content.Abilities.All())),
		zap.Int("enemies", len(content.Enemies.TemplateIDs())),
		zap.Int("profiles", len(content.Profiles)),
		zap.Int("races", races),
		zap.Int("classes", classes),
		zap.Int("backgrounds", backgrounds),
	)
	return content, nil
}

// provideArchive connects to PostgreSQL when the archive is enabled and
// returns a nil Archive otherwise.
func provideArchive(ctx context.Context, cfg *config.Config, logger *zap.Logger) (battle.Archive, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to archive database: %w", err)
	}
	if err := pool.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("archive connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
	return pool.Battles(), pool.Close, nil
}
