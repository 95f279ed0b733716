package pulseforge

import (
	"fmt"

	"github.com/rfsynth/pulseforge/internal/pulselist"
	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/schedule"
)

// ChannelID names an output channel, shared with the schedule package so
// Play/Barrier/SetPhase/... nodes and Sampler registration refer to the same
// namespace.
type ChannelID = schedule.ChannelID

// Compile measures and arranges root exactly once, then emits every Play
// node it contains into a separate pulse list per channel named in
// baseFreq. baseFreq supplies each channel's fixed carrier frequency, used
// as the pulse list's global frequency component.
func Compile(root *schedule.Element, baseFreq map[ChannelID]quantity.Frequency, opts Options) (map[ChannelID]pulselist.PulseList, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("%w: nil schedule root", ErrInvalidCommon)
	}

	measured := schedule.Measure(root)
	arranged, err := schedule.Arrange(measured, quantity.Zero, measured.Duration, opts.scheduleOptions())
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	builders := make(map[ChannelID]*pulselist.Builder, len(baseFreq))
	for ch := range baseFreq {
		builders[ch] = pulselist.NewBuilder(opts.AmpTolerance, opts.TimeTolerance)
	}
	schedule.Emit(arranged, builders, baseFreq)

	out := make(map[ChannelID]pulselist.PulseList, len(builders))
	for ch, b := range builders {
		out[ch] = b.Build()
	}
	return out, nil
}
