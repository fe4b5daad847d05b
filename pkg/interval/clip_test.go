package interval

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

// S1 — Clip both sides.
func TestClip_BothSidesClipped(t *testing.T) {
	s := Span{
		Start: mustParse(t, "2023-01-15 00:00:00"),
		End:   mustParse(t, "2023-02-05 00:00:00"),
	}
	w := Window{
		Start: mustParse(t, "2023-01-20 00:00:00"),
		End:   mustParse(t, "2023-02-01 00:00:00"),
	}
	got := Clip(s, w)
	want := 12 * 24 * time.Hour
	if got != want {
		t.Errorf("Clip() = %v, want %v", got, want)
	}
}

// S2 — Disjoint.
func TestClip_Disjoint(t *testing.T) {
	s := Span{
		Start: mustParse(t, "2023-03-01 00:00:00"),
		End:   mustParse(t, "2023-03-02 00:00:00"),
	}
	w := Window{
		Start: mustParse(t, "2023-04-01 00:00:00"),
		End:   mustParse(t, "2023-05-01 00:00:00"),
	}
	if got := Clip(s, w); got != 0 {
		t.Errorf("Clip() = %v, want 0", got)
	}
	if Overlaps(s, w) {
		t.Errorf("Overlaps() = true, want false for disjoint span")
	}
}

// Invariant 6: interval fully inside window clips to its own length.
func TestClip_FullyInside(t *testing.T) {
	s := Span{
		Start: mustParse(t, "2023-01-10 01:00:00"),
		End:   mustParse(t, "2023-01-10 02:00:00"),
	}
	w := Window{
		Start: mustParse(t, "2023-01-10 00:00:00"),
		End:   mustParse(t, "2023-01-11 00:00:00"),
	}
	if got, want := Clip(s, w), time.Hour; got != want {
		t.Errorf("Clip() = %v, want %v", got, want)
	}
}

func TestClip_NegativeSpanClampsToZero(t *testing.T) {
	// A malformed span (end before start) must never yield a negative
	// duration.
	s := Span{
		Start: mustParse(t, "2023-01-10 05:00:00"),
		End:   mustParse(t, "2023-01-10 04:00:00"),
	}
	w := Window{
		Start: mustParse(t, "2023-01-10 00:00:00"),
		End:   mustParse(t, "2023-01-11 00:00:00"),
	}
	if got := Clip(s, w); got != 0 {
		t.Errorf("Clip() = %v, want 0", got)
	}
}

func TestStartsIn(t *testing.T) {
	w := Window{
		Start: mustParse(t, "2023-01-10 00:00:00"),
		End:   mustParse(t, "2023-01-11 00:00:00"),
	}
	cases := []struct {
		name string
		s    Span
		want bool
	}{
		{"starts inside", Span{Start: mustParse(t, "2023-01-10 12:00:00"), End: mustParse(t, "2023-01-10 13:00:00")}, true},
		{"starts before, ends inside", Span{Start: mustParse(t, "2023-01-09 12:00:00"), End: mustParse(t, "2023-01-10 13:00:00")}, false},
		{"starts at window end (exclusive)", Span{Start: mustParse(t, "2023-01-11 00:00:00"), End: mustParse(t, "2023-01-11 01:00:00")}, false},
		{"starts at window start (inclusive)", Span{Start: mustParse(t, "2023-01-10 00:00:00"), End: mustParse(t, "2023-01-10 01:00:00")}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StartsIn(c.s, w); got != c.want {
				t.Errorf("StartsIn() = %v, want %v", got, c.want)
			}
		})
	}
}
