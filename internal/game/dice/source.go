package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	randv2 "math/rand/v2"
	"sync"

	"golang.org/x/crypto/blake2b"
)

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn panics if n <= 0 or if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource is a deterministic PCG stream. The mutex keeps it safe for
// concurrent use even though the engine only rolls from one goroutine.
type seededSource struct {
	mu  sync.Mutex
	rng *randv2.Rand
}

// NewSeededSource returns a deterministic Source. Two sources built from the
// same seeds produce identical sequences.
func NewSeededSource(seed1, seed2 uint64) Source {
	return &seededSource{rng: randv2.New(randv2.NewPCG(seed1, seed2))}
}

// NewReplaySource derives PCG seeds from an arbitrary replay key by hashing it
// with BLAKE2b-128. Archived battles store the key so they can be replayed.
//
// Precondition: key is non-empty.
func NewReplaySource(key string) Source {
	s1, s2 := ReplaySeeds(key)
	return NewSeededSource(s1, s2)
}

// ReplaySeeds returns the two PCG seeds derived from key.
func ReplaySeeds(key string) (uint64, uint64) {
	if key == "" {
		panic("dice: ReplaySeeds called with empty key")
	}
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic("dice: blake2b init: " + err.Error())
	}
	_, _ = h.Write([]byte(key))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
