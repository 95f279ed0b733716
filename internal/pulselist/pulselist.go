// Package pulselist implements the pulse-list builder and bin-merge pipeline:
// pulses sharing envelope geometry and both oscillator frequencies are
// grouped into a ListBin, deduplicated and time-sorted, ready for the
// sampler to mix down.
package pulselist

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/quantity"
)

// Bin groups pulses that share envelope geometry and both oscillator
// frequencies, enabling amortized envelope sampling.
type Bin struct {
	Envelope   envelope.Envelope
	GlobalFreq quantity.Frequency
	LocalFreq  quantity.Frequency
}

// Amplitude is a pulse's complex amplitude and (unscaled) DRAG coefficient.
// drag is i*drag_coef*amp; the sample-rate scaling is applied at render
// time so the list stays sample-rate-agnostic.
type Amplitude struct {
	Amp  complex128
	Drag complex128
}

// Add sums two amplitudes componentwise.
func (a Amplitude) Add(b Amplitude) Amplitude {
	return Amplitude{Amp: a.Amp + b.Amp, Drag: a.Drag + b.Drag}
}

// Scale distributes a real scalar multiply over both components.
func (a Amplitude) Scale(m float64) Amplitude {
	return Amplitude{Amp: a.Amp * complex(m, 0), Drag: a.Drag * complex(m, 0)}
}

// Entry is a single timed pulse amplitude within a bin.
type Entry struct {
	Time      quantity.Time
	Amplitude Amplitude
}

// PulseList is the immutable, per-channel output of Builder.Build: a mapping
// from bin to a time-sorted, tolerance-coalesced sequence of entries.
type PulseList struct {
	bins map[Bin][]Entry
}

// Bins returns the list's bins. The returned map must not be mutated.
func (p PulseList) Bins() map[Bin][]Entry { return p.bins }

// Empty reports whether the list carries no bins at all.
func (p PulseList) Empty() bool { return len(p.bins) == 0 }

// Builder accumulates pushed pulses before a single Build() coalesces each
// bin's entries.
type Builder struct {
	bins         map[Bin][]Entry
	ampTolerance float64
	timeTol      float64
}

// NewBuilder creates a builder with the given amplitude and time tolerances.
func NewBuilder(ampTolerance, timeTolerance float64) *Builder {
	return &Builder{bins: make(map[Bin][]Entry), ampTolerance: ampTolerance, timeTol: timeTolerance}
}

// Push records a pulse. Inputs with |amplitude| <= amp_tolerance are dropped.
func (b *Builder) Push(env envelope.Envelope, globalFreq, localFreq quantity.Frequency, t quantity.Time, amplitude, dragCoef, phase float64) {
	if math.Abs(amplitude) <= b.ampTolerance {
		return
	}
	amp := cmplx.Rect(amplitude, 2*math.Pi*phase)
	drag := complex(0, 1) * complex(dragCoef, 0) * amp
	bin := Bin{Envelope: env, GlobalFreq: globalFreq, LocalFreq: localFreq}
	b.bins[bin] = append(b.bins[bin], Entry{Time: t, Amplitude: Amplitude{Amp: amp, Drag: drag}})
}

// Build stably sorts each bin's entries by time, then linearly coalesces
// consecutive entries within time_tolerance by summing amplitudes.
func (b *Builder) Build() PulseList {
	out := make(map[Bin][]Entry, len(b.bins))
	for bin, entries := range b.bins {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
		merged := entries[:0:0]
		for _, e := range entries {
			n := len(merged)
			if n > 0 && math.Abs(merged[n-1].Time.Value()-e.Time.Value()) <= b.timeTol {
				merged[n-1].Amplitude = merged[n-1].Amplitude.Add(e.Amplitude)
				continue
			}
			merged = append(merged, e)
		}
		out[bin] = merged
	}
	return PulseList{bins: out}
}

// Merge scales each of lists by its corresponding entry in weights, combines
// same-bin entries across all of them, and coalesces the result within
// timeTolerance exactly as Builder.Build does for a single list. It backs
// the crosstalk mixer's weighted row combination of per-channel lists.
func Merge(lists []PulseList, weights []float64, timeTolerance float64) PulseList {
	combined := make(map[Bin][]Entry)
	for li, list := range lists {
		w := weights[li]
		if w == 0 {
			continue
		}
		for bin, entries := range list.bins {
			for _, e := range entries {
				combined[bin] = append(combined[bin], Entry{Time: e.Time, Amplitude: e.Amplitude.Scale(w)})
			}
		}
	}
	out := make(map[Bin][]Entry, len(combined))
	for bin, entries := range combined {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
		merged := entries[:0:0]
		for _, e := range entries {
			n := len(merged)
			if n > 0 && math.Abs(merged[n-1].Time.Value()-e.Time.Value()) <= timeTolerance {
				merged[n-1].Amplitude = merged[n-1].Amplitude.Add(e.Amplitude)
				continue
			}
			merged = append(merged, e)
		}
		out[bin] = merged
	}
	return PulseList{bins: out}
}
