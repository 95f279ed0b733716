package envelope

import (
	"testing"

	"github.com/rfsynth/pulseforge/internal/quantity"
)

type constShape struct{ v float64 }

func (c constShape) SampleArray(x0, dx float64, out []float64) {
	for i := range out {
		out[i] = c.v
	}
}

func TestNewCanonicalizesRectangular(t *testing.T) {
	plateau, _ := quantity.NewTime(10)
	env := New(nil, 0, plateau)
	if env.Shape != nil {
		t.Fatalf("expected nil shape for a pure plateau envelope")
	}
	if env.Width != 0 {
		t.Fatalf("expected zero width, got %v", env.Width)
	}
	if env.Plateau != plateau {
		t.Fatalf("expected plateau %v, got %v", plateau, env.Plateau)
	}
}

func TestNewCanonicalizesNoShape(t *testing.T) {
	width, _ := quantity.NewTime(5)
	plateau, _ := quantity.NewTime(3)
	env := New(nil, width, plateau)
	if env.Shape != nil || env.Width != 0 {
		t.Fatalf("expected (nil, 0, width+plateau), got shape=%v width=%v plateau=%v", env.Shape, env.Width, env.Plateau)
	}
	if env.Plateau != width+plateau {
		t.Fatalf("expected plateau = width+plateau = %v, got %v", width+plateau, env.Plateau)
	}
}

func TestNewCanonicalizesZeroWidthShaped(t *testing.T) {
	plateau, _ := quantity.NewTime(4)
	env := New(constShape{1}, 0, plateau)
	if env.Shape != nil {
		t.Fatalf("expected shape dropped when width is zero")
	}
	if env.Plateau != plateau {
		t.Fatalf("expected plateau unchanged at %v, got %v", plateau, env.Plateau)
	}
}

func TestCacheGetIsMemoized(t *testing.T) {
	c := NewCache(4)
	width, _ := quantity.NewTime(1e-9)
	plateau, _ := quantity.NewTime(0)
	env := New(constShape{1}, width, plateau)
	rate, _ := quantity.NewFrequency(1e9)

	first := c.Get(env, 0, rate)
	second := c.Get(env, 0, rate)
	if len(first) == 0 {
		t.Fatalf("expected non-empty envelope buffer")
	}
	if &first[0] != &second[0] {
		t.Fatalf("expected cached buffer to be reused across calls")
	}
}

func TestCacheClearEvicts(t *testing.T) {
	c := NewCache(4)
	width, _ := quantity.NewTime(1e-9)
	env := New(constShape{1}, width, 0)
	rate, _ := quantity.NewFrequency(1e9)

	first := c.Get(env, 0, rate)
	c.Clear()
	second := c.Get(env, 0, rate)
	if len(first) == 0 || len(second) == 0 {
		t.Fatalf("expected non-empty buffers before and after clear")
	}
	if &first[0] == &second[0] {
		t.Fatalf("expected Clear to evict the cached buffer so it is rebuilt")
	}
}

func TestBuildPlateauOnlyLength(t *testing.T) {
	plateau, _ := quantity.NewTime(10e-9)
	env := New(nil, 0, plateau)
	rate, _ := quantity.NewFrequency(1e9)
	buf := build(env, 0, rate)
	if len(buf) != 0 {
		t.Fatalf("a pure-plateau (nil shape) envelope has no shaped samples, got %d", len(buf))
	}
}

func TestBuildShapedRiseAndFall(t *testing.T) {
	width, _ := quantity.NewTime(4e-9)
	env := New(constShape{1}, width, 0)
	rate, _ := quantity.NewFrequency(1e9) // 1 sample/ns
	buf := build(env, 0, rate)
	if len(buf) != 4 {
		t.Fatalf("expected 4 samples for a 4ns width at 1 sample/ns, got %d", len(buf))
	}
	for i, v := range buf {
		if v != 1 {
			t.Fatalf("sample %d = %v, want 1 (constant shape)", i, v)
		}
	}
}
