package production

import (
	"testing"
	"time"

	"github.com/flowforge/oee-sim/internal/randutil"
	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func testParams(t *testing.T) *simlib.Params {
	t.Helper()
	p, err := simlib.DefaultParams()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerate_EmitsOnlyDuringRunning(t *testing.T) {
	eq := catalog.Equipment{EquipmentID: "m1", IdealCycleTimeSeconds: 10}
	cat := catalog.New([]catalog.Equipment{eq})

	win := simlib.Window{
		Start: mustParse(t, "2023-01-01 00:00:00"),
		End:   mustParse(t, "2023-01-01 03:00:00"),
	}
	events := []simlib.MachineEvent{
		{EventID: 1, Timestamp: mustParse(t, "2023-01-01 00:00:00"), EquipmentID: "m1", EventType: simlib.EventStart},
		{EventID: 2, Timestamp: mustParse(t, "2023-01-01 01:00:00"), EquipmentID: "m1", EventType: simlib.EventStop, Details: "Unplanned - Breakdown: Motor Failure"},
		{EventID: 3, Timestamp: mustParse(t, "2023-01-01 01:30:00"), EquipmentID: "m1", EventType: simlib.EventStart},
	}

	recs, err := Generate(cat, events, nil, win, testParams(t), randutil.New(1))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, r := range recs {
		if r.Timestamp.After(mustParse(t, "2023-01-01 01:00:00")) && r.Timestamp.Before(mustParse(t, "2023-01-01 01:30:00")) {
			t.Errorf("record %+v emitted during STOPPED interval", r)
		}
	}
}

func TestGenerate_InvariantsHold(t *testing.T) {
	eq := catalog.Equipment{EquipmentID: "m1", IdealCycleTimeSeconds: 12}
	cat := catalog.New([]catalog.Equipment{eq})
	win := simlib.Window{
		Start: mustParse(t, "2023-01-01 00:00:00"),
		End:   mustParse(t, "2023-01-02 00:00:00"),
	}
	events := []simlib.MachineEvent{
		{Timestamp: win.Start, EquipmentID: "m1", EventType: simlib.EventStart},
	}
	downtime := []simlib.DowntimeInterval{
		{EquipmentID: "m1", StartTime: mustParse(t, "2023-01-01 10:00:00"), EndTime: mustParse(t, "2023-01-01 11:00:00"), DowntimeCategory: simlib.CategoryUnplannedBreakdown, DowntimeReason: "Motor Failure"},
	}

	recs, err := Generate(cat, events, downtime, win, testParams(t), randutil.New(2))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, r := range recs {
		if r.QuantityRejected > r.QuantityProduced {
			t.Errorf("record %+v: rejected > produced", r)
		}
		if r.QuantityProduced == 0 && r.QuantityRejected == 0 {
			t.Errorf("record %+v should not have been emitted: both quantities zero", r)
		}
		if r.RunningDurationSeconds <= 0 || r.RunningDurationSeconds > 3600 {
			t.Errorf("record %+v: running_duration_seconds out of range", r)
		}
	}
}

func TestReconstructRunIntervals_ChangeoverChangesProduct(t *testing.T) {
	evs := []simlib.MachineEvent{
		{Timestamp: mustParse(t, "2023-01-01 00:00:00"), EquipmentID: "m1", EventType: simlib.EventStart},
		{Timestamp: mustParse(t, "2023-01-01 01:00:00"), EquipmentID: "m1", EventType: simlib.EventStop, Details: "Changeover: Product Changeover"},
		{Timestamp: mustParse(t, "2023-01-01 01:30:00"), EquipmentID: "m1", EventType: simlib.EventStart},
	}
	win := simlib.Window{Start: mustParse(t, "2023-01-01 00:00:00"), End: mustParse(t, "2023-01-01 02:00:00")}
	intervals := reconstructRunIntervals("m1", evs, win)
	if len(intervals) != 2 {
		t.Fatalf("reconstructRunIntervals() = %d intervals, want 2", len(intervals))
	}
	if intervals[0].product == intervals[1].product {
		t.Errorf("product did not change across changeover: %q == %q", intervals[0].product, intervals[1].product)
	}
}
