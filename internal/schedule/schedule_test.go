package schedule

import (
	"errors"
	"testing"

	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/pulselist"
	"github.com/rfsynth/pulseforge/internal/quantity"
)

func tm(v float64) quantity.Time {
	t, _ := quantity.NewTime(v)
	return t
}

func freq(v float64) quantity.Frequency {
	f, _ := quantity.NewFrequency(v)
	return f
}

func mustCommon(t *testing.T, b *ElementCommonBuilder) ElementCommon {
	t.Helper()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return c
}

func playNode(t *testing.T, ch ChannelID, width float64) *Element {
	t.Helper()
	env := envelope.New(nil, 0, tm(width))
	common := mustCommon(t, NewElementCommonBuilder())
	return New(common, Play{Channel: ch, Envelope: env, Amplitude: 1})
}

func TestElementCommonBuilderRejectsNonFiniteMargin(t *testing.T) {
	_, err := NewElementCommonBuilder().MarginLeft(quantity.Infinity).Build()
	if !errors.Is(err, ErrInvalidCommon) {
		t.Fatalf("expected ErrInvalidCommon, got %v", err)
	}
}

func TestElementCommonBuilderRejectsMaxBelowMin(t *testing.T) {
	_, err := NewElementCommonBuilder().MinDuration(tm(10)).MaxDuration(tm(1)).Build()
	if !errors.Is(err, ErrInvalidCommon) {
		t.Fatalf("expected ErrInvalidCommon, got %v", err)
	}
}

func TestMeasurePlayIncludesMargins(t *testing.T) {
	env := envelope.New(nil, 0, tm(5))
	common := mustCommon(t, NewElementCommonBuilder().MarginLeft(tm(1)).MarginRight(tm(2)))
	el := New(common, Play{Channel: "q0", Envelope: env, Amplitude: 1})
	m := Measure(el)
	if m.Duration != tm(8) {
		t.Fatalf("duration = %v, want 8 (1 + 5 + 2)", m.Duration)
	}
}

func TestMeasureStackForwardSharesNonOverlappingChannels(t *testing.T) {
	a := playNode(t, "q0", 5)
	b := playNode(t, "q1", 3)
	common := mustCommon(t, NewElementCommonBuilder())
	stack := New(common, Stack{Direction: Forward, Children: []*Element{a, b}})
	m := Measure(stack)
	// a and b touch disjoint channels, so they can overlap entirely.
	if m.Duration != tm(5) {
		t.Fatalf("duration = %v, want 5 (max of independent children)", m.Duration)
	}
}

func TestMeasureStackSerializesSameChannel(t *testing.T) {
	a := playNode(t, "q0", 5)
	b := playNode(t, "q0", 3)
	common := mustCommon(t, NewElementCommonBuilder())
	stack := New(common, Stack{Direction: Forward, Children: []*Element{a, b}})
	m := Measure(stack)
	if m.Duration != tm(8) {
		t.Fatalf("duration = %v, want 8 (5 + 3 serialized on the same channel)", m.Duration)
	}
}

func TestArrangeStackBackwardPlacesLastChildAtEnd(t *testing.T) {
	a := playNode(t, "q0", 2)
	b := playNode(t, "q0", 3)
	common := mustCommon(t, NewElementCommonBuilder())
	stack := New(common, Stack{Direction: Backward, Children: []*Element{a, b}})
	m := Measure(stack)
	arranged, err := Arrange(m, tm(0), m.Duration, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Backward: b (the last child) ends flush with the stack's end.
	bArr := arranged.Children[1]
	if got := bArr.InnerTime + bArr.InnerDuration; got != m.Duration {
		t.Fatalf("last child should end at stack duration %v, got %v", m.Duration, got)
	}
}

func TestArrangeAbsoluteDoesNotStretchChildren(t *testing.T) {
	a := playNode(t, "q0", 2)
	common := mustCommon(t, NewElementCommonBuilder())
	abs := New(common, Absolute{Entries: []AbsoluteEntry{{Offset: tm(10), Element: a}}})
	m := Measure(abs)
	// Grant far more duration than needed; the child must not stretch.
	arranged, err := Arrange(m, tm(0), tm(1000), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := arranged.Children[0]
	if child.InnerTime != tm(10) {
		t.Fatalf("child InnerTime = %v, want 10", child.InnerTime)
	}
	if child.InnerDuration != tm(2) {
		t.Fatalf("child InnerDuration = %v, want 2 (no stretch)", child.InnerDuration)
	}
}

func TestArrangeOversizeDisallowedErrors(t *testing.T) {
	env := envelope.New(nil, 0, tm(10))
	common := mustCommon(t, NewElementCommonBuilder().MaxDuration(tm(2)))
	el := New(common, Play{Channel: "q0", Envelope: env, Amplitude: 1})
	m := Measure(el)
	_, err := Arrange(m, tm(0), m.Duration, Options{AllowOversize: false})
	if !errors.Is(err, ErrOversizeDisallowed) {
		t.Fatalf("expected ErrOversizeDisallowed, got %v", err)
	}
}

func TestArrangeOversizeAllowedWhenFlexible(t *testing.T) {
	env := envelope.New(nil, 0, tm(10))
	common := mustCommon(t, NewElementCommonBuilder().MaxDuration(tm(2)))
	el := New(common, Play{Channel: "q0", Envelope: env, Amplitude: 1, Flexible: true})
	m := Measure(el)
	if _, err := Arrange(m, tm(0), m.Duration, Options{AllowOversize: false}); err != nil {
		t.Fatalf("flexible play node should not error: %v", err)
	}
}

func TestRepeatMeasuresSpacingTimesCountMinusOne(t *testing.T) {
	a := playNode(t, "q0", 1)
	common := mustCommon(t, NewElementCommonBuilder())
	rep := New(common, Repeat{Child: a, Count: 4, Spacing: tm(2)})
	m := Measure(rep)
	if m.Duration != tm(7) { // 2*3 + 1
		t.Fatalf("duration = %v, want 7", m.Duration)
	}
}

func TestEmitAppliesPhaseState(t *testing.T) {
	env := envelope.New(nil, 0, tm(1))
	common := mustCommon(t, NewElementCommonBuilder())
	setPhase := New(common, SetPhase{Channel: "q0", Value: 0.25})
	play := New(common, Play{Channel: "q0", Envelope: env, Amplitude: 1})
	stack := New(common, Stack{Direction: Forward, Children: []*Element{setPhase, play}})

	m := Measure(stack)
	arranged, err := Arrange(m, tm(0), m.Duration, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	builder := pulselist.NewBuilder(0, 0)
	Emit(arranged, map[ChannelID]*pulselist.Builder{"q0": builder}, map[ChannelID]quantity.Frequency{"q0": 0})
	list := builder.Build()
	entries := list.Bins()[pulselist.Bin{Envelope: env}]
	if len(entries) != 1 {
		t.Fatalf("expected 1 pulse, got %d", len(entries))
	}
	// phase 0.25 -> pure imaginary unit amplitude.
	if got := entries[0].Amplitude.Amp; real(got) > 1e-9 || imag(got) < 0.99 {
		t.Fatalf("expected amplitude ~i from SetPhase(0.25), got %v", got)
	}
}

func TestEmitSwapsPhaseBetweenChannels(t *testing.T) {
	env := envelope.New(nil, 0, tm(1))
	common := mustCommon(t, NewElementCommonBuilder())
	setA := New(common, SetPhase{Channel: "a", Value: 0.25})
	swap := New(common, SwapPhase{ChannelA: "a", ChannelB: "b"})
	playB := New(common, Play{Channel: "b", Envelope: env, Amplitude: 1})
	stack := New(common, Stack{Direction: Forward, Children: []*Element{setA, swap, playB}})

	m := Measure(stack)
	arranged, err := Arrange(m, tm(0), m.Duration, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	builderB := pulselist.NewBuilder(0, 0)
	Emit(arranged, map[ChannelID]*pulselist.Builder{"b": builderB}, map[ChannelID]quantity.Frequency{"b": 0})
	entries := builderB.Build().Bins()[pulselist.Bin{Envelope: env}]
	if len(entries) != 1 {
		t.Fatalf("expected 1 pulse on channel b, got %d", len(entries))
	}
	if got := entries[0].Amplitude.Amp; imag(got) < 0.99 {
		t.Fatalf("expected channel b's phase to pick up a's 0.25 via SwapPhase, got %v", got)
	}
}

func TestEmitSuppressesPhantomNodes(t *testing.T) {
	env := envelope.New(nil, 0, tm(1))
	phantom := mustCommon(t, NewElementCommonBuilder().Phantom(true))
	play := New(phantom, Play{Channel: "q0", Envelope: env, Amplitude: 1})
	m := Measure(play)
	arranged, err := Arrange(m, tm(0), m.Duration, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	builder := pulselist.NewBuilder(0, 0)
	Emit(arranged, map[ChannelID]*pulselist.Builder{"q0": builder}, map[ChannelID]quantity.Frequency{"q0": 0})
	if !builder.Build().Empty() {
		t.Fatalf("expected a phantom Play node to emit nothing")
	}
}
