package rng

import "math"

// Int returns an integer in [min, max] using one draw.
func Int(src RandomSource, min, max int) int {
	return int(math.Floor(src.Float64()*float64(max-min+1))) + min
}

// Between returns a float in [min, max) using one draw.
func Between(src RandomSource, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}

// Pick returns one element using one draw. An empty list yields the zero value and draws nothing.
func Pick[T any](src RandomSource, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[int(math.Floor(src.Float64()*float64(len(items))))]
}

// Shuffle returns a Fisher-Yates shuffled copy, consuming len(items)-1 draws.
func Shuffle[T any](src RandomSource, items []T) []T {
	out := append([]T(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(src.Float64() * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
