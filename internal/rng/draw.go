package rng

import (
	"errors"
	"math"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// NearMissMargin is how far above the failure threshold a safe roll still counts as close.
const NearMissMargin = 0.05

// Draw under p, return if it is hit
// p <=0 => no hit. p>= 1 => must hit. otherwise, rng.Float64() < p
func Draw(p float64, src RandomSource) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	if src == nil {
		src = DefaultRNG()
	}
	return src.Float64() < p, nil
}

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}

// Roll is the outcome of one risk check.
type Roll struct {
	Failed    bool
	NearMiss  bool
	Value     float64
	Threshold float64
}

// RollWithNearMiss consumes exactly one draw. A roll below riskPercent/100 fails; a safe
// roll within NearMissMargin of the threshold is flagged as a near miss.
func RollWithNearMiss(src RandomSource, riskPercent int) Roll {
	v := src.Float64()
	threshold := float64(riskPercent) / 100
	failed := v < threshold
	return Roll{
		Failed:    failed,
		NearMiss:  !failed && v < threshold+NearMissMargin,
		Value:     v,
		Threshold: threshold,
	}
}
