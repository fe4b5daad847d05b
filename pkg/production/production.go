// Package production derives hourly production/reject rollups from the
// event stream and downtime log produced by simlib, aligned to wall-clock
// hour boundaries and with performance/quality degradation leading into
// unplanned stops.
package production

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/flowforge/oee-sim/internal/randutil"
	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

// Record is one hourly production rollup for a machine while RUNNING.
type Record struct {
	Timestamp              time.Time
	EquipmentID            string
	ProductID              string
	QuantityProduced       int
	QuantityRejected       int
	RunningDurationSeconds int
}

type runInterval struct {
	start, end time.Time
	product    string
}

// Generate walks events per machine to reconstruct RUNNING intervals, then
// emits one Record per wall-clock-hour chunk of each RUNNING interval,
// degrading performance and quality as the interval approaches a
// causally-linked unplanned stop.
func Generate(cat *catalog.Catalog, events []simlib.MachineEvent, downtime []simlib.DowntimeInterval, win simlib.Window, params *simlib.Params, rng *randutil.Source) ([]Record, error) {
	byMachine := make(map[string][]simlib.MachineEvent)
	for _, e := range events {
		if e.EventType == simlib.EventAlarm {
			continue
		}
		byMachine[e.EquipmentID] = append(byMachine[e.EquipmentID], e)
	}

	unplannedByMachine := make(map[string][]simlib.DowntimeInterval)
	for _, d := range downtime {
		if d.DowntimeCategory.IsUnplanned() {
			unplannedByMachine[d.EquipmentID] = append(unplannedByMachine[d.EquipmentID], d)
		}
	}
	for eq := range unplannedByMachine {
		sort.Slice(unplannedByMachine[eq], func(i, j int) bool {
			return unplannedByMachine[eq][i].StartTime.Before(unplannedByMachine[eq][j].StartTime)
		})
	}

	var records []Record
	for eq, evs := range byMachine {
		eqp, ok := cat.Get(eq)
		if !ok || eqp.IdealCycleTimeSeconds <= 0 {
			continue
		}
		intervals := reconstructRunIntervals(eq, evs, win)
		for _, iv := range intervals {
			recs, err := generateForInterval(eqp, iv, unplannedByMachine[eq], params, rng)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].EquipmentID < records[j].EquipmentID
	})

	return records, nil
}

// reconstructRunIntervals walks a machine's chronological event list to
// produce the (start, end, product) RUNNING intervals covering win. Before
// the first event a machine is STOPPED with no product. The product
// changes at the START immediately following a STOP whose Details mention
// Changeover.
func reconstructRunIntervals(eq string, evs []simlib.MachineEvent, win simlib.Window) []runInterval {
	var out []runInterval
	running := false
	var runStart time.Time
	currentProduct := ""
	productSeq := 0
	lastWasChangeoverStop := false

	for _, e := range evs {
		switch e.EventType {
		case simlib.EventStart:
			if lastWasChangeoverStop {
				productSeq++
				currentProduct = fmt.Sprintf("%s-P%d", eq, productSeq)
			}
			if !running {
				running = true
				runStart = e.Timestamp
			}
		case simlib.EventStop:
			if running {
				out = append(out, runInterval{start: runStart, end: e.Timestamp, product: currentProduct})
				running = false
			}
			lastWasChangeoverStop = strings.Contains(e.Details, "Changeover")
		}
	}
	if running {
		out = append(out, runInterval{start: runStart, end: win.End, product: currentProduct})
	}
	return out
}

func generateForInterval(eq catalog.Equipment, iv runInterval, unplanned []simlib.DowntimeInterval, params *simlib.Params, rng *randutil.Source) ([]Record, error) {
	var out []Record
	cursor := iv.start
	for cursor.Before(iv.end) {
		hourBoundary := cursor.Truncate(time.Hour).Add(time.Hour)
		v := hourBoundary
		if v.After(iv.end) {
			v = iv.end
		}
		u := cursor

		perf := rng.Normal(params.PerfMean, params.PerfStd)
		tau, hasUpcoming := hoursToNextUnplannedStop(u, v, unplanned)
		if hasUpcoming && tau >= 0 && tau < params.PerfDropWindowHours {
			perf -= (1 - tau/params.PerfDropWindowHours) * params.PerfDropFactor
		}
		perf = clampPerf(perf)

		durationSeconds := v.Sub(u).Seconds()
		theoreticalUnits := durationSeconds / float64(eq.IdealCycleTimeSeconds)
		produced := int(math.Floor(theoreticalUnits * perf * rng.Uniform(0.98, 1.02)))
		if produced < 0 {
			produced = 0
		}

		rejectRate := params.BaseRejectRate
		if hasUpcoming && tau >= 0 && tau < params.QualityRejectWindowHours {
			rejectRate += (1 - tau/params.QualityRejectWindowHours) * params.RejectRateIncrease
		}
		if rejectRate > 0.1 {
			rejectRate = 0.1
		}

		rejected := int(math.Floor(float64(produced) * rejectRate * rng.Uniform(0.8, 1.5)))
		if rejected > produced {
			rejected = produced
		}
		if rejected < 0 {
			rejected = 0
		}

		if produced != 0 || rejected != 0 {
			out = append(out, Record{
				Timestamp:             v.Add(-time.Second),
				EquipmentID:           eq.EquipmentID,
				ProductID:             iv.product,
				QuantityProduced:      produced,
				QuantityRejected:      rejected,
				RunningDurationSeconds: int(v.Sub(u).Seconds()),
			})
		}

		cursor = v
	}
	return out, nil
}

// hoursToNextUnplannedStop returns the number of hours from v to the
// nearest unplanned STOP starting after u, and whether one exists.
func hoursToNextUnplannedStop(u, v time.Time, unplanned []simlib.DowntimeInterval) (float64, bool) {
	for _, d := range unplanned {
		if d.StartTime.After(u) {
			return d.StartTime.Sub(v).Hours(), true
		}
	}
	return 0, false
}

func clampPerf(p float64) float64 {
	if p < 0.1 {
		return 0.1
	}
	if p > 1.0 {
		return 1.0
	}
	return p
}
