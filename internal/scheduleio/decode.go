// Package scheduleio decodes the JSON schedule description consumed by the
// pulseforge-compile command into an internal/schedule element tree. It is
// a thin, explicit recursive-descent decoder, in the same spirit as the
// hand-written token parser the rest of this corpus uses for its own
// small text formats, just over json.RawMessage nodes instead of runes.
package scheduleio

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/schedule"
	"github.com/rfsynth/pulseforge/internal/shape"
)

// Doc is the top-level decoded schedule file.
type Doc struct {
	Channels map[string]ChannelSpec `json:"channels"`
	Options  OptionsSpec            `json:"options"`
	Root     *schedule.Element
}

// ChannelSpec is one output channel's base carrier frequency and renderer
// configuration.
type ChannelSpec struct {
	BaseFreq   float64 `json:"base_freq"`
	SampleRate float64 `json:"sample_rate"`
	Length     int     `json:"length"`
	Delay      float64 `json:"delay"`
	AlignLevel int     `json:"align_level"`
}

// OptionsSpec mirrors pulseforge.Options in wire form.
type OptionsSpec struct {
	AmpTolerance  float64 `json:"amp_tolerance"`
	TimeTolerance float64 `json:"time_tolerance"`
	AllowOversize bool    `json:"allow_oversize"`
}

type rawDoc struct {
	Channels map[string]ChannelSpec `json:"channels"`
	Options  OptionsSpec            `json:"options"`
	Root     json.RawMessage        `json:"root"`
}

// Decode parses a full schedule document.
func Decode(data []byte) (*Doc, error) {
	var rd rawDoc
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("scheduleio: %w", err)
	}
	root, err := decodeElement(rd.Root)
	if err != nil {
		return nil, err
	}
	return &Doc{Channels: rd.Channels, Options: rd.Options, Root: root}, nil
}

type rawCommon struct {
	MarginLeft  float64  `json:"margin_left"`
	MarginRight float64  `json:"margin_right"`
	Align       string   `json:"align"`
	Phantom     bool     `json:"phantom"`
	Duration    *float64 `json:"duration"`
	MinDuration float64  `json:"min_duration"`
	MaxDuration *float64 `json:"max_duration"`
}

func decodeCommon(c rawCommon) (schedule.ElementCommon, error) {
	b := schedule.NewElementCommonBuilder()
	ml, err := quantity.NewTime(c.MarginLeft)
	if err != nil {
		return schedule.ElementCommon{}, err
	}
	mr, err := quantity.NewTime(c.MarginRight)
	if err != nil {
		return schedule.ElementCommon{}, err
	}
	b.MarginLeft(ml).MarginRight(mr).Phantom(c.Phantom)
	switch c.Align {
	case "", "start":
		b.Align(schedule.AlignStart)
	case "center":
		b.Align(schedule.AlignCenter)
	case "end":
		b.Align(schedule.AlignEnd)
	case "stretch":
		b.Align(schedule.AlignStretch)
	default:
		return schedule.ElementCommon{}, fmt.Errorf("scheduleio: unknown alignment %q", c.Align)
	}
	if c.Duration != nil {
		d, err := quantity.NewTime(*c.Duration)
		if err != nil {
			return schedule.ElementCommon{}, err
		}
		b.FixedDuration(d)
	}
	minD, err := quantity.NewTime(c.MinDuration)
	if err != nil {
		return schedule.ElementCommon{}, err
	}
	b.MinDuration(minD)
	maxD := quantity.Infinity
	if c.MaxDuration != nil {
		maxD, err = quantity.NewTime(*c.MaxDuration)
		if err != nil {
			return schedule.ElementCommon{}, err
		}
	}
	b.MaxDuration(maxD)
	return b.Build()
}

type rawElement struct {
	Type   string          `json:"type"`
	Common rawCommon       `json:"common"`
	Body   json.RawMessage `json:"-"`
}

func decodeElement(raw json.RawMessage) (*schedule.Element, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("scheduleio: missing element")
	}
	var head struct {
		Type   string    `json:"type"`
		Common rawCommon `json:"common"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("scheduleio: %w", err)
	}
	common, err := decodeCommon(head.Common)
	if err != nil {
		return nil, fmt.Errorf("scheduleio: %s: %w", head.Type, err)
	}

	variant, err := decodeVariant(head.Type, raw)
	if err != nil {
		return nil, err
	}
	return schedule.New(common, variant), nil
}

func decodeVariant(kind string, raw json.RawMessage) (schedule.Variant, error) {
	switch kind {
	case "play":
		var body struct {
			Channel    string  `json:"channel"`
			Shape      string  `json:"shape"`
			Width      float64 `json:"width"`
			Plateau    float64 `json:"plateau"`
			Amplitude  float64 `json:"amplitude"`
			Phase      float64 `json:"phase"`
			DragCoef   float64 `json:"drag_coef"`
			FreqOffset float64 `json:"freq_offset"`
			Flexible   bool    `json:"flexible"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: play: %w", err)
		}
		w, err := quantity.NewTime(body.Width)
		if err != nil {
			return nil, err
		}
		p, err := quantity.NewTime(body.Plateau)
		if err != nil {
			return nil, err
		}
		freq, err := quantity.NewFrequency(body.FreqOffset)
		if err != nil {
			return nil, err
		}
		sh, err := lookupShape(body.Shape)
		if err != nil {
			return nil, err
		}
		return schedule.Play{
			Channel:    schedule.ChannelID(body.Channel),
			Envelope:   envelope.New(sh, w, p),
			Amplitude:  body.Amplitude,
			Phase:      body.Phase,
			DragCoef:   body.DragCoef,
			FreqOffset: freq,
			Flexible:   body.Flexible,
		}, nil

	case "barrier":
		var body struct {
			Channels []string `json:"channels"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: barrier: %w", err)
		}
		return schedule.Barrier{Channels: toChannelIDs(body.Channels)}, nil

	case "set_phase", "shift_phase":
		var body struct {
			Channel string  `json:"channel"`
			Value   float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: %s: %w", kind, err)
		}
		if kind == "set_phase" {
			return schedule.SetPhase{Channel: schedule.ChannelID(body.Channel), Value: body.Value}, nil
		}
		return schedule.ShiftPhase{Channel: schedule.ChannelID(body.Channel), Value: body.Value}, nil

	case "set_freq", "shift_freq":
		var body struct {
			Channel string  `json:"channel"`
			Value   float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: %s: %w", kind, err)
		}
		f, err := quantity.NewFrequency(body.Value)
		if err != nil {
			return nil, err
		}
		if kind == "set_freq" {
			return schedule.SetFreq{Channel: schedule.ChannelID(body.Channel), Value: f}, nil
		}
		return schedule.ShiftFreq{Channel: schedule.ChannelID(body.Channel), Value: f}, nil

	case "swap_phase":
		var body struct {
			ChannelA string `json:"channel_a"`
			ChannelB string `json:"channel_b"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: swap_phase: %w", err)
		}
		return schedule.SwapPhase{ChannelA: schedule.ChannelID(body.ChannelA), ChannelB: schedule.ChannelID(body.ChannelB)}, nil

	case "stack":
		var body struct {
			Direction string            `json:"direction"`
			Children  []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: stack: %w", err)
		}
		dir := schedule.Forward
		if body.Direction == "backward" {
			dir = schedule.Backward
		}
		children, err := decodeElements(body.Children)
		if err != nil {
			return nil, err
		}
		return schedule.Stack{Direction: dir, Children: children}, nil

	case "grid":
		var body struct {
			Columns []struct {
				Kind   string  `json:"kind"`
				Fixed  float64 `json:"fixed"`
				Weight float64 `json:"weight"`
			} `json:"columns"`
			Entries []struct {
				Column  int             `json:"column"`
				Span    int             `json:"span"`
				Element json.RawMessage `json:"element"`
			} `json:"entries"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: grid: %w", err)
		}
		cols := make([]schedule.GridLength, len(body.Columns))
		for i, c := range body.Columns {
			gl := schedule.GridLength{Weight: c.Weight}
			switch c.Kind {
			case "fixed":
				gl.Kind = schedule.LengthFixed
				fixed, err := quantity.NewTime(c.Fixed)
				if err != nil {
					return nil, err
				}
				gl.Fixed = fixed
			case "auto":
				gl.Kind = schedule.LengthAuto
			case "star":
				gl.Kind = schedule.LengthStar
			default:
				return nil, fmt.Errorf("scheduleio: grid: unknown column kind %q", c.Kind)
			}
			cols[i] = gl
		}
		entries := make([]schedule.GridEntry, len(body.Entries))
		for i, e := range body.Entries {
			span := e.Span
			if span == 0 {
				span = 1
			}
			el, err := decodeElement(e.Element)
			if err != nil {
				return nil, err
			}
			entries[i] = schedule.GridEntry{Column: e.Column, Span: span, Element: el}
		}
		return schedule.Grid{Columns: cols, Entries: entries}, nil

	case "absolute":
		var body struct {
			Entries []struct {
				Offset  float64         `json:"offset"`
				Element json.RawMessage `json:"element"`
			} `json:"entries"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: absolute: %w", err)
		}
		entries := make([]schedule.AbsoluteEntry, len(body.Entries))
		for i, e := range body.Entries {
			offset, err := quantity.NewTime(e.Offset)
			if err != nil {
				return nil, err
			}
			el, err := decodeElement(e.Element)
			if err != nil {
				return nil, err
			}
			entries[i] = schedule.AbsoluteEntry{Offset: offset, Element: el}
		}
		return schedule.Absolute{Entries: entries}, nil

	case "repeat":
		var body struct {
			Child   json.RawMessage `json:"child"`
			Count   uint32          `json:"count"`
			Spacing float64         `json:"spacing"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("scheduleio: repeat: %w", err)
		}
		child, err := decodeElement(body.Child)
		if err != nil {
			return nil, err
		}
		spacing, err := quantity.NewTime(body.Spacing)
		if err != nil {
			return nil, err
		}
		return schedule.Repeat{Child: child, Count: body.Count, Spacing: spacing}, nil

	default:
		return nil, fmt.Errorf("scheduleio: unknown element type %q", kind)
	}
}

func decodeElements(raws []json.RawMessage) ([]*schedule.Element, error) {
	out := make([]*schedule.Element, len(raws))
	for i, raw := range raws {
		el, err := decodeElement(raw)
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}

func toChannelIDs(names []string) []schedule.ChannelID {
	out := make([]schedule.ChannelID, len(names))
	for i, n := range names {
		out[i] = schedule.ChannelID(n)
	}
	return out
}

// gaussian and hann are the built-in shape.Shape implementations the CLI can
// reference by name; library callers otherwise supply their own. Both are
// centred at x=0 and zero outside [-0.5, 0.5].
type gaussian struct{ sigma float64 }

func (g gaussian) SampleArray(x0, dx float64, out []float64) {
	for i := range out {
		x := x0 + float64(i)*dx
		if x < -0.5 || x > 0.5 {
			out[i] = 0
			continue
		}
		out[i] = math.Exp(-0.5 * x * x / (g.sigma * g.sigma))
	}
}

type hann struct{}

func (hann) SampleArray(x0, dx float64, out []float64) {
	for i := range out {
		x := x0 + float64(i)*dx
		if x < -0.5 || x > 0.5 {
			out[i] = 0
			continue
		}
		out[i] = 0.5 + 0.5*math.Cos(2*math.Pi*x)
	}
}

func lookupShape(name string) (shape.Shape, error) {
	switch name {
	case "":
		return nil, nil
	case "hann":
		return hann{}, nil
	case "gaussian":
		return gaussian{sigma: 0.2}, nil
	default:
		return nil, fmt.Errorf("scheduleio: unknown shape %q", name)
	}
}
