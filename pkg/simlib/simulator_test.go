package simlib

import (
	"testing"
	"time"

	"github.com/flowforge/oee-sim/internal/randutil"
)

func testWindow(t *testing.T) Window {
	t.Helper()
	start, err := time.Parse("2006-01-02", "2023-01-01")
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse("2006-01-02", "2023-02-01")
	if err != nil {
		t.Fatal(err)
	}
	return Window{Start: start, End: end}
}

func mustDefaultParams(t *testing.T) *Params {
	t.Helper()
	p, err := DefaultParams()
	if err != nil {
		t.Fatalf("DefaultParams() error = %v", err)
	}
	return p
}

// Invariant 8: START/STOP strictly alternate per machine, starting with START.
func TestRun_EventsAlternateStartingWithStart(t *testing.T) {
	params := mustDefaultParams(t)
	rng := randutil.New(42)
	result, err := Run([]string{"m1", "m2"}, testWindow(t), params, rng)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	perMachine := map[string][]MachineEvent{}
	for _, e := range result.Events {
		if e.EventType == EventAlarm {
			continue
		}
		perMachine[e.EquipmentID] = append(perMachine[e.EquipmentID], e)
	}

	for eq, evs := range perMachine {
		if len(evs) == 0 {
			continue
		}
		if evs[0].EventType != EventStart {
			t.Errorf("machine %s: first event = %v, want START", eq, evs[0].EventType)
		}
		for i := 1; i < len(evs); i++ {
			if evs[i].EventType == evs[i-1].EventType {
				t.Errorf("machine %s: event %d (%v) repeats previous type, want alternation", eq, i, evs[i].EventType)
			}
			if evs[i].Timestamp.Before(evs[i-1].Timestamp) {
				t.Errorf("machine %s: event %d timestamp precedes event %d, want monotonic", eq, i, i-1)
			}
		}
	}
}

// Invariant 9: each DowntimeInterval is framed by STOP at start and START at
// end, except possibly the last (closed at simulation end).
func TestRun_DowntimeFramedByEvents(t *testing.T) {
	params := mustDefaultParams(t)
	rng := randutil.New(7)
	result, err := Run([]string{"m1"}, testWindow(t), params, rng)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stopTimes := map[time.Time]bool{}
	startTimes := map[time.Time]bool{}
	for _, e := range result.Events {
		switch e.EventType {
		case EventStop:
			stopTimes[e.Timestamp] = true
		case EventStart:
			startTimes[e.Timestamp] = true
		}
	}

	win := testWindow(t)
	for i, d := range result.Downtime {
		if !stopTimes[d.StartTime] {
			t.Errorf("downtime %d: start_time %v has no framing STOP event", i, d.StartTime)
		}
		if d.EndTime.Equal(win.End) {
			continue // final interval closed at simulation end
		}
		if !startTimes[d.EndTime] {
			t.Errorf("downtime %d: end_time %v has no framing START event", i, d.EndTime)
		}
	}
}

func TestRun_DowntimeNeverOverlapsOrGoesNegative(t *testing.T) {
	params := mustDefaultParams(t)
	rng := randutil.New(99)
	result, err := Run([]string{"m1"}, testWindow(t), params, rng)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, d := range result.Downtime {
		if d.EndTime.Before(d.StartTime) {
			t.Errorf("downtime %d has negative duration: %v..%v", i, d.StartTime, d.EndTime)
		}
		if i > 0 && d.StartTime.Before(result.Downtime[i-1].EndTime) {
			t.Errorf("downtime %d starts before previous interval %d ends", i, i-1)
		}
	}
}

// Round-trip property: a fixed seed yields identical output across runs.
func TestRun_DeterministicGivenSeed(t *testing.T) {
	params := mustDefaultParams(t)
	win := testWindow(t)

	r1, err := Run([]string{"m1", "m2", "m3"}, win, params, randutil.New(1234))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r2, err := Run([]string{"m1", "m2", "m3"}, win, params, randutil.New(1234))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(r1.Events) != len(r2.Events) || len(r1.Downtime) != len(r2.Downtime) {
		t.Fatalf("deterministic runs diverged in length: events %d vs %d, downtime %d vs %d",
			len(r1.Events), len(r2.Events), len(r1.Downtime), len(r2.Downtime))
	}
	for i := range r1.Events {
		if r1.Events[i] != r2.Events[i] {
			t.Fatalf("event %d diverged: %+v vs %+v", i, r1.Events[i], r2.Events[i])
		}
	}
	for i := range r1.Downtime {
		if r1.Downtime[i] != r2.Downtime[i] {
			t.Fatalf("downtime %d diverged: %+v vs %+v", i, r1.Downtime[i], r2.Downtime[i])
		}
	}
}

func TestRun_EventsWithinWindow(t *testing.T) {
	params := mustDefaultParams(t)
	win := testWindow(t)
	result, err := Run([]string{"m1"}, win, params, randutil.New(5))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, e := range result.Events {
		if e.Timestamp.After(win.End) {
			t.Errorf("event %+v timestamp after window end %v", e, win.End)
		}
	}
}
