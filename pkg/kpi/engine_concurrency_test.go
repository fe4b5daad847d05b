package kpi

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/interval"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage/memstore"
)

// Round-trip property: the engine is stateless and side-effect free, so N
// concurrent Compute calls against the same store return identical output.
func TestCompute_ConcurrentCallsReturnIdenticalOutput(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	equipment := make([]catalog.Equipment, 0, 5)
	for i := 0; i < 5; i++ {
		equipment = append(equipment, catalog.Equipment{EquipmentID: string(rune('a' + i)), IdealCycleTimeSeconds: 10 + i})
	}
	if err := store.PutEquipment(ctx, equipment); err != nil {
		t.Fatal(err)
	}

	win := interval.Window{Start: mustParse(t, "2023-01-01 00:00:00"), End: mustParse(t, "2023-01-02 00:00:00")}
	for _, eq := range equipment {
		if err := store.PutDowntime(ctx, []simlib.DowntimeInterval{
			{EquipmentID: eq.EquipmentID, StartTime: win.Start.Add(2 * time.Hour), EndTime: win.Start.Add(3 * time.Hour), DowntimeCategory: simlib.CategoryUnplannedBreakdown, DowntimeReason: "Motor Failure"},
		}); err != nil {
			t.Fatal(err)
		}
		if err := store.PutProduction(ctx, []production.Record{
			{EquipmentID: eq.EquipmentID, Timestamp: win.Start.Add(4 * time.Hour), QuantityProduced: 300, QuantityRejected: 15, RunningDurationSeconds: 3600},
		}); err != nil {
			t.Fatal(err)
		}
	}

	engine := New(store, store, store)

	const n = 20
	results := make([][]Row, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows, err := engine.Compute(ctx, win, "")
			if err != nil {
				t.Errorf("Compute() error = %v", err)
				return
			}
			results[i] = rows
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("Compute() call %d diverged from call 0:\n%+v\nvs\n%+v", i, results[0], results[i])
		}
	}
}
