package csvio

import (
	"context"
	"testing"
	"time"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage/memstore"
)

func TestDumpLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := memstore.New()

	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := src.PutEquipment(ctx, []catalog.Equipment{
		{EquipmentID: "m1", EquipmentName: "Press 1", EquipmentType: "Stamping", ProductionLineID: "L1", IdealCycleTimeSeconds: 10, Location: "Plant A", InstallationDate: ts},
	}); err != nil {
		t.Fatal(err)
	}
	if err := src.PutEvents(ctx, []simlib.MachineEvent{
		{EventID: 1, Timestamp: ts, EquipmentID: "m1", EventType: simlib.EventStart, Details: ""},
	}); err != nil {
		t.Fatal(err)
	}
	if err := src.PutDowntime(ctx, []simlib.DowntimeInterval{
		{DowntimeID: 1, EquipmentID: "m1", StartTime: ts, EndTime: ts.Add(time.Hour), DowntimeCategory: simlib.CategoryPlannedMaintenance, DowntimeReason: "Scheduled PM"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := src.PutProduction(ctx, []production.Record{
		{Timestamp: ts.Add(2 * time.Hour), EquipmentID: "m1", ProductID: "m1-P1", QuantityProduced: 100, QuantityRejected: 2, RunningDurationSeconds: 3600},
	}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := Dump(ctx, dir, src); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	dst := memstore.New()
	if err := Load(ctx, dir, dst); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	equipment, err := dst.ListEquipment(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(equipment) != 1 || equipment[0].EquipmentID != "m1" {
		t.Fatalf("round-tripped equipment = %+v", equipment)
	}

	downtime, err := dst.GetDowntime(ctx, ts.Add(-time.Hour), ts.Add(24*time.Hour), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(downtime) != 1 || downtime[0].DowntimeCategory != simlib.CategoryPlannedMaintenance {
		t.Fatalf("round-tripped downtime = %+v", downtime)
	}
}
