package schedule

import "github.com/rfsynth/pulseforge/internal/quantity"

// MeasuredElement is the bottom-up measurement result for one node: its
// desired (UnclippedDuration) and min/max-clamped (Duration) sizes, plus
// enough per-variant intermediate data for Arrange to lay out children
// without remeasuring.
type MeasuredElement struct {
	Element           *Element
	UnclippedDuration quantity.Time
	Duration          quantity.Time
	Children          []MeasuredElement
	ChildOffsets      []quantity.Time // Stack: per-child offset from the direction-start
	ColumnWidths      []quantity.Time // Grid: measured width per column
	ChannelIDs        []ChannelID
}

// Measure computes the bottom-up measurement of an element tree.
func Measure(e *Element) MeasuredElement {
	var core quantity.Time
	var children []MeasuredElement
	var offsets []quantity.Time
	var colWidths []quantity.Time
	var channelIDs []ChannelID

	switch v := e.Variant.(type) {
	case Play:
		width := v.Envelope.Width.Value() + v.Envelope.Plateau.Value()
		core, _ = quantity.NewTime(width)
		channelIDs = []ChannelID{v.Channel}
	case Barrier:
		channelIDs = v.Channels
	case SetPhase:
		channelIDs = []ChannelID{v.Channel}
	case ShiftPhase:
		channelIDs = []ChannelID{v.Channel}
	case SetFreq:
		channelIDs = []ChannelID{v.Channel}
	case ShiftFreq:
		channelIDs = []ChannelID{v.Channel}
	case SwapPhase:
		channelIDs = []ChannelID{v.ChannelA, v.ChannelB}
	case Stack:
		core, children, offsets, channelIDs = measureStack(v)
	case Grid:
		core, children, colWidths, channelIDs = measureGrid(v)
	case Absolute:
		core, children, channelIDs = measureAbsolute(v)
	case Repeat:
		var child MeasuredElement
		core, child, channelIDs = measureRepeat(v)
		children = []MeasuredElement{child}
	}

	unclipped := e.Common.MarginLeft + core + e.Common.MarginRight
	duration := unclipped
	if e.Common.Duration != nil {
		duration = *e.Common.Duration
	}
	duration = clampDuration(duration, e.Common.MinDuration, e.Common.MaxDuration)

	return MeasuredElement{
		Element:           e,
		UnclippedDuration: unclipped,
		Duration:          duration,
		Children:          children,
		ChildOffsets:      offsets,
		ColumnWidths:      colWidths,
		ChannelIDs:        channelIDs,
	}
}

// channelUsage tracks, per channel, the time at which it was last freed by a
// preceding Stack sibling; channels never touched default to zero.
type channelUsage map[ChannelID]quantity.Time

func (u channelUsage) get(channels []ChannelID) quantity.Time {
	var max quantity.Time
	for _, ch := range channels {
		if t, ok := u[ch]; ok && t > max {
			max = t
		}
	}
	return max
}

func (u channelUsage) update(channels []ChannelID, t quantity.Time) {
	for _, ch := range channels {
		u[ch] = t
	}
}

func measureStack(s Stack) (core quantity.Time, children []MeasuredElement, offsets []quantity.Time, channelIDs []ChannelID) {
	n := len(s.Children)
	order := make([]*Element, n)
	copy(order, s.Children)
	if s.Direction == Backward {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	usage := channelUsage{}
	measuredInOrder := make([]MeasuredElement, n)
	offsetsInOrder := make([]quantity.Time, n)
	for i, child := range order {
		m := Measure(child)
		measuredInOrder[i] = m
		offset := usage.get(m.ChannelIDs)
		offsetsInOrder[i] = offset
		usage.update(m.ChannelIDs, offset+m.Duration)
	}

	var total quantity.Time
	for _, t := range usage {
		if t > total {
			total = t
		}
	}

	children = make([]MeasuredElement, n)
	offsets = make([]quantity.Time, n)
	if s.Direction == Forward {
		copy(children, measuredInOrder)
		copy(offsets, offsetsInOrder)
	} else {
		for i := 0; i < n; i++ {
			children[n-1-i] = measuredInOrder[i]
			offsets[n-1-i] = offsetsInOrder[i]
		}
	}

	sets := make([][]ChannelID, n)
	for i, m := range children {
		sets[i] = m.ChannelIDs
	}
	channelIDs = mergeChannelIDs(sets...)
	return total, children, offsets, channelIDs
}

func measureGrid(g Grid) (core quantity.Time, children []MeasuredElement, colWidths []quantity.Time, channelIDs []ChannelID) {
	children = make([]MeasuredElement, len(g.Entries))
	colWidths = make([]quantity.Time, len(g.Columns))
	for i, col := range g.Columns {
		if col.Kind == LengthFixed {
			colWidths[i] = col.Fixed
		}
	}
	for i, e := range g.Entries {
		children[i] = Measure(e.Element)
	}
	for i, e := range g.Entries {
		if e.Span == 1 && e.Column >= 0 && e.Column < len(g.Columns) && g.Columns[e.Column].Kind == LengthAuto {
			if children[i].Duration > colWidths[e.Column] {
				colWidths[e.Column] = children[i].Duration
			}
		}
	}
	for _, w := range colWidths {
		core += w
	}
	sets := make([][]ChannelID, len(children))
	for i, c := range children {
		sets[i] = c.ChannelIDs
	}
	channelIDs = mergeChannelIDs(sets...)
	return core, children, colWidths, channelIDs
}

func measureAbsolute(a Absolute) (core quantity.Time, children []MeasuredElement, channelIDs []ChannelID) {
	children = make([]MeasuredElement, len(a.Entries))
	sets := make([][]ChannelID, len(a.Entries))
	for i, e := range a.Entries {
		m := Measure(e.Element)
		children[i] = m
		if end := e.Offset + m.Duration; end > core {
			core = end
		}
		sets[i] = m.ChannelIDs
	}
	channelIDs = mergeChannelIDs(sets...)
	return core, children, channelIDs
}

func measureRepeat(r Repeat) (core quantity.Time, child MeasuredElement, channelIDs []ChannelID) {
	child = Measure(r.Child)
	if r.Count == 0 {
		return quantity.Zero, child, child.ChannelIDs
	}
	core = r.Spacing*quantity.Time(float64(r.Count-1)) + child.Duration
	return core, child, child.ChannelIDs
}
