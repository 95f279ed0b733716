package schedule

import (
	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/quantity"
)

// Play emits a single shaped or rectangular pulse on one channel.
type Play struct {
	Channel    ChannelID
	Envelope   envelope.Envelope
	Amplitude  float64
	Phase      float64
	DragCoef   float64
	FreqOffset quantity.Frequency
	// Flexible allows the node's duration to shrink below the envelope's
	// natural width under an oversize-disallowed ancestor, rather than
	// raising ErrOversizeDisallowed.
	Flexible bool
}

func (Play) isVariant() {}

// Barrier has zero duration and participates in no pulse emission; it exists
// solely to name the channels an enclosing Stack must synchronize.
type Barrier struct {
	Channels []ChannelID
}

func (Barrier) isVariant() {}

// SetPhase sets a channel's accumulated phase to an absolute value.
type SetPhase struct {
	Channel ChannelID
	Value   float64
}

func (SetPhase) isVariant() {}

// ShiftPhase adds to a channel's accumulated phase.
type ShiftPhase struct {
	Channel ChannelID
	Value   float64
}

func (ShiftPhase) isVariant() {}

// SetFreq sets a channel's local oscillator frequency to an absolute value.
type SetFreq struct {
	Channel ChannelID
	Value   quantity.Frequency
}

func (SetFreq) isVariant() {}

// ShiftFreq adds to a channel's local oscillator frequency.
type ShiftFreq struct {
	Channel ChannelID
	Value   quantity.Frequency
}

func (ShiftFreq) isVariant() {}

// SwapPhase atomically exchanges the accumulated phase of two channels.
type SwapPhase struct {
	ChannelA ChannelID
	ChannelB ChannelID
}

func (SwapPhase) isVariant() {}

// Stack lays out children end-to-end along a single shared duration, in
// Forward or Backward order, each child synchronized against the channels
// used by all children before it (in layout order).
type Stack struct {
	Direction Direction
	Children  []*Element
}

func (Stack) isVariant() {}

// LengthKind selects how a Grid column's width is computed.
type LengthKind int

const (
	LengthFixed LengthKind = iota
	LengthAuto
	LengthStar
)

// GridLength is one column's sizing rule.
type GridLength struct {
	Kind   LengthKind
	Fixed  quantity.Time
	Weight float64 // used only when Kind == LengthStar
}

// GridEntry places a child in a Grid starting at Column, spanning Span
// columns (Span >= 1).
type GridEntry struct {
	Column  int
	Span    int
	Element *Element
}

// Grid lays out children into fixed/auto/weighted-star columns that share
// the Grid's total duration.
type Grid struct {
	Columns []GridLength
	Entries []GridEntry
}

func (Grid) isVariant() {}

// AbsoluteEntry places a child at a fixed offset from the start of an
// Absolute node's own inner time, with no stretching: the child's arranged
// duration always equals its own measured duration.
type AbsoluteEntry struct {
	Offset  quantity.Time
	Element *Element
}

// Absolute lays out children at caller-specified offsets rather than by
// flow; the Absolute node's own duration is the tightest bound containing
// every child.
type Absolute struct {
	Entries []AbsoluteEntry
}

func (Absolute) isVariant() {}

// Repeat lays out Count back-to-back copies of Child, each advanced by
// Spacing from the previous copy's start.
type Repeat struct {
	Child   *Element
	Count   uint32
	Spacing quantity.Time
}

func (Repeat) isVariant() {}
