// Package schedule implements the hierarchical measure/arrange scheduling
// engine: an immutable Element tree is measured bottom-up into desired
// durations, then arranged top-down into absolute positions.
package schedule

import (
	"errors"
	"fmt"

	"github.com/rfsynth/pulseforge/internal/quantity"
)

// ErrInvalidCommon is returned when an ElementCommonBuilder's fields fail
// validation (non-finite margin/duration, or a negative max_duration).
var ErrInvalidCommon = errors.New("pulseforge: invalid element common")

// ErrVariantMismatch is returned when a node's Variant does not match any
// case the dispatcher recognizes; it indicates a construction bug, not a
// user-input error.
var ErrVariantMismatch = errors.New("pulseforge: unrecognized element variant")

// ChannelID names an output channel a Play/Barrier/SetPhase/... node refers
// to. Channels are looked up by exact string match; the scheduler does not
// interpret their structure.
type ChannelID string

// Alignment controls how a measured child is placed within extra space its
// parent grants it beyond its own desired duration.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Direction controls the order Stack children are laid out in.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// ElementCommon holds the fields shared by every node, consulted during both
// measure and arrange regardless of variant.
type ElementCommon struct {
	MarginLeft  quantity.Time
	MarginRight quantity.Time
	Alignment   Alignment
	Phantom     bool
	Duration    *quantity.Time // nil unless the node requests a fixed duration
	MinDuration quantity.Time
	MaxDuration quantity.Time // quantity.Infinity unless explicitly bounded
}

// ElementCommonBuilder validates and constructs an ElementCommon.
type ElementCommonBuilder struct {
	c ElementCommon
}

// NewElementCommonBuilder returns a builder with zero margins, Start
// alignment, no phantom flag, no fixed duration, zero min and unbounded max.
func NewElementCommonBuilder() *ElementCommonBuilder {
	return &ElementCommonBuilder{c: ElementCommon{MaxDuration: quantity.Infinity}}
}

func (b *ElementCommonBuilder) MarginLeft(v quantity.Time) *ElementCommonBuilder {
	b.c.MarginLeft = v
	return b
}

func (b *ElementCommonBuilder) MarginRight(v quantity.Time) *ElementCommonBuilder {
	b.c.MarginRight = v
	return b
}

func (b *ElementCommonBuilder) Align(a Alignment) *ElementCommonBuilder {
	b.c.Alignment = a
	return b
}

func (b *ElementCommonBuilder) Phantom(p bool) *ElementCommonBuilder {
	b.c.Phantom = p
	return b
}

func (b *ElementCommonBuilder) FixedDuration(v quantity.Time) *ElementCommonBuilder {
	b.c.Duration = &v
	return b
}

func (b *ElementCommonBuilder) MinDuration(v quantity.Time) *ElementCommonBuilder {
	b.c.MinDuration = v
	return b
}

func (b *ElementCommonBuilder) MaxDuration(v quantity.Time) *ElementCommonBuilder {
	b.c.MaxDuration = v
	return b
}

// Build validates the accumulated fields and returns the finished common
// block. Margins and min_duration must be finite; max_duration must be
// non-negative (quantity.Infinity is allowed); a fixed duration, if set,
// must be finite and non-negative.
func (b *ElementCommonBuilder) Build() (ElementCommon, error) {
	c := b.c
	if !c.MarginLeft.IsFinite() || !c.MarginRight.IsFinite() {
		return ElementCommon{}, fmt.Errorf("%w: non-finite margin", ErrInvalidCommon)
	}
	if !c.MinDuration.IsFinite() || c.MinDuration < 0 {
		return ElementCommon{}, fmt.Errorf("%w: invalid min_duration", ErrInvalidCommon)
	}
	if c.MaxDuration < 0 {
		return ElementCommon{}, fmt.Errorf("%w: negative max_duration", ErrInvalidCommon)
	}
	if c.Duration != nil {
		if !c.Duration.IsFinite() || *c.Duration < 0 {
			return ElementCommon{}, fmt.Errorf("%w: invalid fixed duration", ErrInvalidCommon)
		}
	}
	if c.MaxDuration < c.MinDuration {
		return ElementCommon{}, fmt.Errorf("%w: max_duration below min_duration", ErrInvalidCommon)
	}
	return c, nil
}

// clampDuration restricts an unclipped desired duration to [min, max].
func clampDuration(d, min, max quantity.Time) quantity.Time {
	if d < min {
		d = min
	}
	if d > max {
		d = max
	}
	return d
}

// Variant is the marker interface implemented by every node payload. The
// set of implementers is closed; measure/arrange dispatch on a type switch
// rather than a method on Variant, mirroring a tagged sum.
type Variant interface {
	isVariant()
}

// Element is one immutable node of the schedule tree.
type Element struct {
	Common  ElementCommon
	Variant Variant
}

// New constructs a node from a validated common block and a variant.
func New(common ElementCommon, variant Variant) *Element {
	return &Element{Common: common, Variant: variant}
}

func mergeChannelIDs(sets ...[]ChannelID) []ChannelID {
	seen := make(map[ChannelID]struct{})
	var out []ChannelID
	for _, set := range sets {
		for _, ch := range set {
			if _, ok := seen[ch]; !ok {
				seen[ch] = struct{}{}
				out = append(out, ch)
			}
		}
	}
	return out
}
