package schedule

import (
	"sort"

	"github.com/rfsynth/pulseforge/internal/pulselist"
	"github.com/rfsynth/pulseforge/internal/quantity"
)

// oscillator tracks one channel's accumulated phase and local frequency
// offset as SetPhase/ShiftPhase/SetFreq/ShiftFreq/SwapPhase nodes are
// visited in time order.
type oscillator struct {
	phase float64
	freq  quantity.Frequency
}

// Emit walks an arranged tree depth-first, visiting each node's children in
// order of their start time, applying phase/frequency state changes and
// pushing each Play node's pulse, at its absolute start time, into the
// builder registered for its channel. baseFreq supplies each channel's fixed
// carrier frequency (the "global" frequency in the emitted pulse list bins).
func Emit(root ArrangedElement, builders map[ChannelID]*pulselist.Builder, baseFreq map[ChannelID]quantity.Frequency) {
	state := make(map[ChannelID]*oscillator)
	get := func(ch ChannelID) *oscillator {
		s, ok := state[ch]
		if !ok {
			s = &oscillator{}
			state[ch] = s
		}
		return s
	}
	visit(root, quantity.Zero, get, builders, baseFreq)
}

// visit adds node's parent-relative InnerTime to base, the parent's absolute
// inner start, to get the node's absolute start time.
func visit(node ArrangedElement, base quantity.Time, get func(ChannelID) *oscillator, builders map[ChannelID]*pulselist.Builder, baseFreq map[ChannelID]quantity.Frequency) {
	start := base + node.InnerTime
	switch v := node.Element.Variant.(type) {
	case Play:
		if node.Element.Common.Phantom {
			return
		}
		s := get(v.Channel)
		localFreq := s.freq + v.FreqOffset
		phase := s.phase + v.Phase
		if b, ok := builders[v.Channel]; ok {
			b.Push(v.Envelope, baseFreq[v.Channel], localFreq, start, v.Amplitude, v.DragCoef, phase)
		}
		return
	case SetPhase:
		get(v.Channel).phase = v.Value
		return
	case ShiftPhase:
		get(v.Channel).phase += v.Value
		return
	case SetFreq:
		get(v.Channel).freq = v.Value
		return
	case ShiftFreq:
		get(v.Channel).freq += v.Value
		return
	case SwapPhase:
		a, b := get(v.ChannelA), get(v.ChannelB)
		a.phase, b.phase = b.phase, a.phase
		return
	case Barrier, Grid, Absolute, Stack, Repeat:
		children := append([]ArrangedElement(nil), node.Children...)
		sort.SliceStable(children, func(i, j int) bool { return children[i].InnerTime < children[j].InnerTime })
		for _, c := range children {
			visit(c, start, get, builders, baseFreq)
		}
	}
}
