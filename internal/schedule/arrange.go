package schedule

import (
	"errors"
	"fmt"

	"github.com/rfsynth/pulseforge/internal/quantity"
)

// ErrOversizeDisallowed is returned when a Play node's natural envelope
// width exceeds the duration its ancestors granted it, the node is not
// marked Flexible, and Options.AllowOversize is false.
var ErrOversizeDisallowed = errors.New("pulseforge: element oversized")

// ErrInvalidAbsoluteTime is returned when an Absolute entry's offset is
// negative or non-finite.
var ErrInvalidAbsoluteTime = errors.New("pulseforge: invalid absolute offset")

// Options controls arrangement-time policy decisions that measurement alone
// cannot make.
type Options struct {
	AllowOversize bool
}

// ArrangedElement is the top-down placement result: InnerTime/InnerDuration
// describe the node's own content region (after margin and alignment are
// applied). The root's InnerTime is in the time base of the root call's
// `time` argument; every child's InnerTime is relative to its parent's
// InnerTime.
type ArrangedElement struct {
	Element       *Element
	InnerTime     quantity.Time
	InnerDuration quantity.Time
	Children      []ArrangedElement
}

// Arrange places a measured subtree's root at the given absolute start time
// within a duration its parent has granted it.
func Arrange(m MeasuredElement, time, duration quantity.Time, opts Options) (ArrangedElement, error) {
	e := m.Element
	common := e.Common

	content := duration - common.MarginLeft - common.MarginRight
	if content < 0 {
		content = 0
	}
	innerDuration := m.Duration - common.MarginLeft - common.MarginRight
	if common.Alignment == AlignStretch {
		innerDuration = content
	} else if innerDuration > content {
		innerDuration = content
	}
	slack := content - innerDuration

	var innerOffset quantity.Time
	switch common.Alignment {
	case AlignCenter:
		innerOffset = slack / 2
	case AlignEnd:
		innerOffset = slack
	}
	innerTime := time + common.MarginLeft + innerOffset

	children, err := arrangeVariant(m, e.Variant, innerDuration, opts)
	if err != nil {
		return ArrangedElement{}, err
	}

	return ArrangedElement{
		Element:       e,
		InnerTime:     innerTime,
		InnerDuration: innerDuration,
		Children:      children,
	}, nil
}

func arrangeVariant(m MeasuredElement, variant Variant, innerDuration quantity.Time, opts Options) ([]ArrangedElement, error) {
	switch v := variant.(type) {
	case Play:
		natural := v.Envelope.Width + v.Envelope.Plateau
		if natural > innerDuration && !v.Flexible && !opts.AllowOversize {
			return nil, fmt.Errorf("%w: channel %s", ErrOversizeDisallowed, v.Channel)
		}
		return nil, nil
	case Barrier, SetPhase, ShiftPhase, SetFreq, ShiftFreq, SwapPhase:
		return nil, nil
	case Stack:
		return arrangeStack(m, v, innerDuration, opts)
	case Grid:
		return arrangeGrid(m, v, innerDuration, opts)
	case Absolute:
		return arrangeAbsolute(m, v, opts)
	case Repeat:
		return arrangeRepeat(m, v, opts)
	default:
		return nil, ErrVariantMismatch
	}
}

func arrangeStack(m MeasuredElement, s Stack, innerDuration quantity.Time, opts Options) ([]ArrangedElement, error) {
	children := make([]ArrangedElement, len(s.Children))
	for i, childM := range m.Children {
		offset := m.ChildOffsets[i]
		var pos quantity.Time
		if s.Direction == Forward {
			pos = offset
		} else {
			pos = innerDuration - offset - childM.Duration
		}
		a, err := Arrange(childM, pos, childM.Duration, opts)
		if err != nil {
			return nil, err
		}
		children[i] = a
	}
	return children, nil
}

func arrangeGrid(m MeasuredElement, g Grid, innerDuration quantity.Time, opts Options) ([]ArrangedElement, error) {
	widths := append([]quantity.Time(nil), m.ColumnWidths...)
	extra := innerDuration
	for _, w := range widths {
		extra -= w
	}
	totalWeight := 0.0
	for _, c := range g.Columns {
		if c.Kind == LengthStar {
			totalWeight += c.Weight
		}
	}
	if extra > 0 && totalWeight > 0 {
		for i, c := range g.Columns {
			if c.Kind == LengthStar {
				widths[i] += quantity.Time(extra.Value() * c.Weight / totalWeight)
			}
		}
	}
	colStart := make([]quantity.Time, len(widths)+1)
	for i, w := range widths {
		colStart[i+1] = colStart[i] + w
	}

	children := make([]ArrangedElement, len(g.Entries))
	for i, e := range g.Entries {
		if e.Column < 0 || e.Column+e.Span > len(widths) {
			continue
		}
		start := colStart[e.Column]
		var span quantity.Time
		for s := 0; s < e.Span; s++ {
			span += widths[e.Column+s]
		}
		a, err := Arrange(m.Children[i], start, span, opts)
		if err != nil {
			return nil, err
		}
		children[i] = a
	}
	return children, nil
}

func arrangeAbsolute(m MeasuredElement, a Absolute, opts Options) ([]ArrangedElement, error) {
	children := make([]ArrangedElement, len(a.Entries))
	for i, e := range a.Entries {
		if !e.Offset.IsFinite() || e.Offset < 0 {
			return nil, ErrInvalidAbsoluteTime
		}
		childM := m.Children[i]
		ae, err := Arrange(childM, e.Offset, childM.Duration, opts)
		if err != nil {
			return nil, err
		}
		children[i] = ae
	}
	return children, nil
}

func arrangeRepeat(m MeasuredElement, r Repeat, opts Options) ([]ArrangedElement, error) {
	if r.Count == 0 {
		return nil, nil
	}
	childM := m.Children[0]
	children := make([]ArrangedElement, r.Count)
	for i := uint32(0); i < r.Count; i++ {
		pos := r.Spacing * quantity.Time(float64(i))
		a, err := Arrange(childM, pos, childM.Duration, opts)
		if err != nil {
			return nil, err
		}
		children[i] = a
	}
	return children, nil
}
