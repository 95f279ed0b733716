package pulseforge

import (
	"fmt"

	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/schedule"
)

// Options controls the numeric tolerances Compile uses while building each
// channel's pulse list, plus how oversized Play nodes are treated during
// arrangement.
type Options struct {
	// AmpTolerance drops pushed pulses whose magnitude is at or below it.
	AmpTolerance float64
	// TimeTolerance coalesces pulses (and, in crosstalk mixing, contributions
	// from different channels) landing within this many seconds of
	// each other into a single entry.
	TimeTolerance float64
	// AllowOversize permits a non-flexible Play node to keep its natural
	// envelope width even when an ancestor granted it less duration, instead
	// of failing with ErrOversizeDisallowed.
	AllowOversize bool
	// EnvelopeCacheCapacity bounds the shared envelope sample cache; 0 uses
	// envelope.DefaultCapacity.
	EnvelopeCacheCapacity int
}

// DefaultOptions returns permissive tolerances suitable for most schedules.
func DefaultOptions() Options {
	return Options{
		AmpTolerance:          1e-12,
		TimeTolerance:         1e-12,
		AllowOversize:         false,
		EnvelopeCacheCapacity: envelope.DefaultCapacity,
	}
}

// Validate rejects negative tolerances, which would otherwise silently
// disable amplitude dropping or pulse coalescing.
func (o Options) Validate() error {
	if o.AmpTolerance < 0 {
		return fmt.Errorf("%w: negative amp tolerance", ErrInvalidQuantity)
	}
	if o.TimeTolerance < 0 {
		return fmt.Errorf("%w: negative time tolerance", ErrInvalidQuantity)
	}
	if o.EnvelopeCacheCapacity < 0 {
		return fmt.Errorf("%w: negative envelope cache capacity", ErrInvalidQuantity)
	}
	return nil
}

// scheduleOptions adapts Options to the schedule package's own Options type.
func (o Options) scheduleOptions() schedule.Options {
	return schedule.Options{AllowOversize: o.AllowOversize}
}
