// Package render implements the waveform sampler: binning, envelope-cache
// lookups, carrier phase accumulation, DRAG mixing, and the final per-channel
// complex sample buffer.
package render

import (
	"math"
	"math/cmplx"

	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/pulselist"
	"github.com/rfsynth/pulseforge/internal/quantity"
)

// MixAddEnvelope walks out and env in lockstep with a rotating carrier,
// accumulating out[i] += c*(amp*env[i] + drag*slope[i]), where slope[i] is
// the central difference of env with out-of-range neighbors taken as 0.
func MixAddEnvelope(out []complex128, env []float64, amp, drag complex128, phase0, dphase float64) {
	n := len(out)
	if len(env) < n {
		n = len(env)
	}
	c := cmplx.Rect(1, phase0)
	dc := cmplx.Rect(1, dphase)
	for i := 0; i < n; i++ {
		var left, right float64
		if i > 0 {
			left = env[i-1]
		}
		if i < len(env)-1 {
			right = env[i+1]
		}
		slope := (right - left) / 2
		out[i] += c * (amp*complex(env[i], 0) + drag*complex(slope, 0))
		c *= dc
	}
}

// MixAddPlateau accumulates a constant-envelope (rectangular) pulse.
func MixAddPlateau(out []complex128, amp complex128, phase0, dphase float64) {
	c := cmplx.Rect(1, phase0) * amp
	dc := cmplx.Rect(1, dphase)
	for i := range out {
		out[i] += c
		c *= dc
	}
}

// SamplePulseList renders list into a fixed-length complex sample buffer at
// the given sample_rate, delay, and align_level, using cache to memoize
// shaped envelope buffers.
func SamplePulseList(list pulselist.PulseList, length int, rate quantity.Frequency, delay quantity.Time, alignLevel int, cache *envelope.Cache) ([]complex128, error) {
	out := make([]complex128, length)
	dt := 1 / rate.Value()
	for bin, entries := range list.Bins() {
		g := bin.GlobalFreq.Value()
		l := bin.LocalFreq.Value()
		totalFreq := g + l
		for _, e := range entries {
			tStart := e.Time + delay
			idx, err := quantity.NewAlignedIndex(tStart, rate, alignLevel)
			if err != nil {
				return nil, err
			}
			i0 := idx.Ceil()
			if i0 >= int64(length) {
				continue
			}
			off := idx.IndexOffset()

			phase0 := 2 * math.Pi * (g*(float64(i0)*dt-delay.Value()) + l*off*dt)
			dphase := 2 * math.Pi * totalFreq * dt

			start := i0
			if start < 0 {
				start = 0
			}
			slice := out[start:]

			if bin.Envelope.Shape != nil {
				env := cache.Get(bin.Envelope, off, rate)
				drag := e.Amplitude.Drag * complex(rate.Value(), 0)
				MixAddEnvelope(slice, env, e.Amplitude.Amp, drag, phase0, dphase)
			} else {
				plateauLen := int(math.Ceil(bin.Envelope.Plateau.Value() * rate.Value()))
				if plateauLen > len(slice) {
					plateauLen = len(slice)
				}
				if plateauLen > 0 {
					MixAddPlateau(slice[:plateauLen], e.Amplitude.Amp, phase0, dphase)
				}
			}
		}
	}
	return out, nil
}
