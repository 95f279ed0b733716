// Package quantity provides the real-scalar wrapper types (Time, Frequency)
// and the sub-sample-precise AlignedIndex used throughout the scheduler and
// sampler. Values are validated at construction so that NaN/Inf never leaks
// into the measure/arrange/render pipeline except through the designated
// Infinity sentinel.
package quantity

import (
	"errors"
	"math"
)

// ErrInvalidQuantity is returned when a Time or Frequency value is non-finite
// (outside the designated positive-infinity sentinel) or otherwise malformed.
var ErrInvalidQuantity = errors.New("pulseforge: invalid quantity")

// Time is a scalar duration or instant, in seconds.
type Time float64

// Zero is the additive identity for Time.
const Zero Time = 0

// Infinity is the sentinel used for an unbounded max_duration.
var Infinity = Time(math.Inf(1))

// NewTime validates and wraps a raw seconds value. Only a finite value or the
// designated positive infinity sentinel is accepted.
func NewTime(v float64) (Time, error) {
	if math.IsNaN(v) || (math.IsInf(v, 0) && v < 0) {
		return 0, ErrInvalidQuantity
	}
	return Time(v), nil
}

// Value returns the raw seconds value.
func (t Time) Value() float64 { return float64(t) }

// IsFinite reports whether t is neither NaN nor infinite.
func (t Time) IsFinite() bool { return !math.IsNaN(float64(t)) && !math.IsInf(float64(t), 0) }

// Max returns the larger of t and o.
func (t Time) Max(o Time) Time {
	if t > o {
		return t
	}
	return o
}

// Min returns the smaller of t and o.
func (t Time) Min(o Time) Time {
	if t < o {
		return t
	}
	return o
}

// Clamp restricts t to [lo, hi].
func (t Time) Clamp(lo, hi Time) Time {
	return t.Min(hi).Max(lo)
}

// Frequency is a scalar oscillation rate, in Hz.
type Frequency float64

// NewFrequency validates and wraps a raw Hz value.
func NewFrequency(v float64) (Frequency, error) {
	if !isFinite(v) {
		return 0, ErrInvalidQuantity
	}
	return Frequency(v), nil
}

// Value returns the raw Hz value.
func (f Frequency) Value() float64 { return float64(f) }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AlignedIndex snaps a Time to the sample grid of a given rate, quantized to
// 2^align_level samples. It satisfies the invariant:
//
//	aligned_time <= true_time < aligned_time + 2^(-align_level)/rate
type AlignedIndex struct {
	alignedSamples float64 // aligned position, in samples, quantized to 2^-level
	ceilIndex      int64   // next integer sample >= alignedSamples
	rate           Frequency
}

// NewAlignedIndex quantizes t against the sample grid of rate at the given
// align_level. level must be >= 0; rate and t must be finite.
func NewAlignedIndex(t Time, rate Frequency, level int) (AlignedIndex, error) {
	if !t.IsFinite() || !isFinite(rate.Value()) {
		return AlignedIndex{}, ErrInvalidQuantity
	}
	if level < 0 {
		return AlignedIndex{}, ErrInvalidQuantity
	}
	granularity := math.Exp2(float64(-level))
	raw := t.Value() * rate.Value()
	aligned := math.Floor(raw/granularity) * granularity
	ceilIdx := int64(math.Ceil(aligned))
	return AlignedIndex{alignedSamples: aligned, ceilIndex: ceilIdx, rate: rate}, nil
}

// Ceil returns the next integer sample index >= the aligned position.
func (a AlignedIndex) Ceil() int64 { return a.ceilIndex }

// IndexOffset returns the fractional sample-count difference between the
// aligned position and the integer ceiling.
func (a AlignedIndex) IndexOffset() float64 {
	return float64(a.ceilIndex) - a.alignedSamples
}

// Time returns the aligned position converted back to a Time value.
func (a AlignedIndex) Time() Time {
	if a.rate == 0 {
		return 0
	}
	return Time(a.alignedSamples / a.rate.Value())
}
