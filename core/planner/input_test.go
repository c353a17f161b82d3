package planner

import (
	"testing"
	"time"
)

func TestClampSoC(t *testing.T) {
	cases := []struct {
		cur, tgt       float64
		moved          Slider
		wantCur, wantT float64
	}{
		{20, 80, SliderCurrent, 20, 80},
		{90, 80, SliderCurrent, 90, 90},
		{50, 30, SliderTarget, 30, 30},
		{-10, 120, SliderTarget, 0, 100},
		{150, 20, SliderCurrent, 100, 100},
	}
	for _, c := range cases {
		cur, tgt := ClampSoC(c.cur, c.tgt, c.moved)
		if cur != c.wantCur || tgt != c.wantT {
			t.Errorf("ClampSoC(%v,%v,%v) = %v,%v want %v,%v", c.cur, c.tgt, c.moved, cur, tgt, c.wantCur, c.wantT)
		}
	}
}

func TestDefaultTarget(t *testing.T) {
	loc := time.FixedZone("HKT", 8*3600)
	now := time.Date(2025, 12, 31, 22, 17, 3, 0, loc)
	got := DefaultTarget(now, DefaultTargetHour)
	want := time.Date(2026, 1, 1, 8, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if got.Location() != loc {
		t.Fatalf("location changed")
	}
}

func TestClockString(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := ClockString(now, "UTC"); got != "12:00:00" {
		t.Fatalf("unexpected clock %q", got)
	}
	if got := ClockString(now, "Not/AZone"); got != "12:00:00" {
		t.Fatalf("unknown zone should fall back to UTC, got %q", got)
	}
}
