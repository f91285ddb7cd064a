// Package rng provides the random sources used by the simulation.
//
// Every helper in this package is expressed in terms of a single Float64 draw so that
// a seeded source replays the exact same decisions in the exact same order.
package rng

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// RandomSource abstract
type RandomSource interface {
	Float64() float64 // [0, 1)
}

// crypto random : used for decisions that must not follow the run seed
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// Mulberry32 is a reseedable 32-bit generator. Identical seeds yield identical sequences.
type Mulberry32 struct {
	seed  uint32
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Mulberry32 {
	return &Mulberry32{seed: seed, state: seed}
}

// NewFromTime seeds from the wall clock in milliseconds.
func NewFromTime() *Mulberry32 {
	return New(TimeSeed())
}

// TimeSeed is the fallback seed for unseeded construction.
func TimeSeed() uint32 {
	return uint32(time.Now().UnixMilli())
}

// Reseed resets the state counter.
func (m *Mulberry32) Reseed(seed uint32) {
	m.seed = seed
	m.state = seed
}

// Seed reports the seed the current sequence started from.
func (m *Mulberry32) Seed() uint32 { return m.seed }

// Float64 advances the state and returns a value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}
