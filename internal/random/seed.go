// Package random seeds the battle RNGs.
//
// Battles are reproducible from their seed: the same seed replays the same
// rolls, which is how the CLI's --seed flag and the tests pin a battle.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// New returns a PCG-backed generator for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Source hands out one independent generator per session.
type Source interface {
	NewRand() (*rand.Rand, uint64, error)
}

// CryptoSource seeds every generator from crypto/rand.
type CryptoSource struct{}

// NewRand implements Source.
func (CryptoSource) NewRand() (*rand.Rand, uint64, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, 0, err
	}
	return New(seed), seed, nil
}

// FixedSource always returns the same seed. Used to replay a battle.
type FixedSource uint64

// NewRand implements Source.
func (s FixedSource) NewRand() (*rand.Rand, uint64, error) {
	return New(uint64(s)), uint64(s), nil
}
