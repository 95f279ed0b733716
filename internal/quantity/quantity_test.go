package quantity

import (
	"errors"
	"math"
	"testing"
)

func TestNewTimeRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		ok   bool
	}{
		{"zero", 0, true},
		{"positive", 1.5, true},
		{"positive infinity", math.Inf(1), true},
		{"negative infinity", math.Inf(-1), false},
		{"nan", math.NaN(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTime(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("NewTime(%v): unexpected error %v", tc.in, err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidQuantity) {
				t.Fatalf("NewTime(%v): expected ErrInvalidQuantity, got %v", tc.in, err)
			}
		})
	}
}

func TestTimeClamp(t *testing.T) {
	v := Time(5)
	if got := v.Clamp(0, 3); got != 3 {
		t.Fatalf("Clamp high: got %v want 3", got)
	}
	if got := v.Clamp(10, 20); got != 10 {
		t.Fatalf("Clamp low: got %v want 10", got)
	}
	if got := v.Clamp(0, 10); got != 5 {
		t.Fatalf("Clamp within range: got %v want 5", got)
	}
}

func TestNewAlignedIndexRejectsNegativeLevel(t *testing.T) {
	rate, _ := NewFrequency(1e9)
	tm, _ := NewTime(1)
	if _, err := NewAlignedIndex(tm, rate, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for negative level, got %v", err)
	}
}

func TestAlignedIndexCeilAndOffset(t *testing.T) {
	rate, _ := NewFrequency(1e9) // 1 sample per ns
	tm, _ := NewTime(2.3e-9)     // 2.3 samples
	// Level 0 snaps 2.3 samples down to whole sample 2.
	idx, err := NewAlignedIndex(tm, rate, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := idx.Ceil(); got != 2 {
		t.Fatalf("Ceil() = %d, want 2", got)
	}
	if off := idx.IndexOffset(); off < -1e-12 || off > 1e-12 {
		t.Fatalf("IndexOffset() = %v, want 0", off)
	}
}

func TestAlignedIndexSubSampleGranularity(t *testing.T) {
	rate, _ := NewFrequency(1e9)
	tm, _ := NewTime(2.3e-9)
	idx, err := NewAlignedIndex(tm, rate, 2) // quantize to 1/4 sample
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Ceil() != 3 {
		t.Fatalf("Ceil() = %d, want 3", idx.Ceil())
	}
}

func TestAlignedIndexTimeRoundTrips(t *testing.T) {
	rate, _ := NewFrequency(1e9)
	tm, _ := NewTime(5e-9)
	idx, err := NewAlignedIndex(tm, rate, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := idx.Time(); got != 5e-9 {
		t.Fatalf("Time() = %v, want 5e-9", got)
	}
}
