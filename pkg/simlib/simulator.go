package simlib

import (
	"fmt"
	"time"

	"github.com/flowforge/oee-sim/internal/randutil"
)

// Result is the simulator's output for a run: the full event stream and the
// single authoritative downtime log. Every downstream generator consumes
// this log directly rather than re-deriving causes from the event stream.
type Result struct {
	Events   []MachineEvent
	Downtime []DowntimeInterval
}

type machineRuntime struct {
	running         bool
	openDowntimeIdx int
	pendingApply    bool
	pendingProduct  string
	currentProduct  string
}

// Run simulates every machine in equipmentIDs across win, using params to
// drive the stochastic schedule. It is deterministic given rng: the same
// seed yields a bit-identical Result.
func Run(equipmentIDs []string, win Window, params *Params, rng *randutil.Source) (*Result, error) {
	q := newEventQueue()

	states := make(map[string]*machineRuntime, len(equipmentIDs))
	for _, eq := range equipmentIDs {
		states[eq] = &machineRuntime{running: false, openDowntimeIdx: -1}
		initialDelay := time.Duration(rng.Uniform(1, 60) * float64(time.Minute))
		q.push(scheduledEvent{
			Timestamp:   win.Start.Add(initialDelay),
			EquipmentID: eq,
			Type:        EventStart,
		})
	}

	var events []MachineEvent
	var downtime []DowntimeInterval
	var nextEventID int64 = 1
	var nextDowntimeID int64 = 1

	for {
		ev, ok := q.pop()
		if !ok {
			break
		}
		if ev.Timestamp.After(win.End) {
			continue
		}

		st := states[ev.EquipmentID]

		events = append(events, MachineEvent{
			EventID:     nextEventID,
			Timestamp:   ev.Timestamp,
			EquipmentID: ev.EquipmentID,
			EventType:   ev.Type,
			Details:     eventDetails(ev),
		})
		nextEventID++

		switch ev.Type {
		case EventStart:
			if st.running {
				return nil, &InvariantError{EquipmentID: ev.EquipmentID, Message: "START received while already RUNNING"}
			}
			st.running = true

			if st.openDowntimeIdx >= 0 {
				downtime[st.openDowntimeIdx].EndTime = ev.Timestamp
				st.openDowntimeIdx = -1
			}
			if st.pendingApply {
				st.currentProduct = st.pendingProduct
				st.pendingApply = false
			}

			category, reason := classifyCause(rng, params)
			delta := rng.Exponential(params.AvgMTBFHours)
			stopAt := ev.Timestamp.Add(delta)

			nextProduct := ""
			if category == CategoryChangeover {
				nextProduct = fmt.Sprintf("%s-CHG-%d", ev.EquipmentID, nextDowntimeID)
			}

			q.push(scheduledEvent{
				Timestamp:   stopAt,
				EquipmentID: ev.EquipmentID,
				Type:        EventStop,
				Category:    category,
				Reason:      reason,
				NextProduct: nextProduct,
			})
			if category == CategoryUnplannedBreakdown {
				q.push(scheduledEvent{
					Timestamp:   stopAt,
					EquipmentID: ev.EquipmentID,
					Type:        EventAlarm,
					Category:    category,
					Reason:      reason,
				})
			}

		case EventStop:
			if !st.running {
				return nil, &InvariantError{EquipmentID: ev.EquipmentID, Message: "STOP received while already STOPPED"}
			}
			st.running = false

			downtime = append(downtime, DowntimeInterval{
				DowntimeID:       nextDowntimeID,
				EquipmentID:      ev.EquipmentID,
				StartTime:        ev.Timestamp,
				DowntimeCategory: ev.Category,
				DowntimeReason:   ev.Reason,
			})
			st.openDowntimeIdx = len(downtime) - 1
			nextDowntimeID++

			if ev.NextProduct != "" {
				st.pendingApply = true
				st.pendingProduct = ev.NextProduct
			}

			repair := repairDuration(rng, params, ev.Category)
			q.push(scheduledEvent{
				Timestamp:   ev.Timestamp.Add(repair),
				EquipmentID: ev.EquipmentID,
				Type:        EventStart,
			})

		case EventAlarm:
			// No state change; logged purely for downstream sensor
			// correlation against the authoritative downtime log.
		}
	}

	for eq, st := range states {
		if st.openDowntimeIdx >= 0 {
			end := win.End
			if downtime[st.openDowntimeIdx].StartTime.After(end) {
				end = downtime[st.openDowntimeIdx].StartTime
			}
			downtime[st.openDowntimeIdx].EndTime = end
		}
		_ = eq
	}

	return &Result{Events: events, Downtime: downtime}, nil
}

func eventDetails(ev scheduledEvent) string {
	if ev.Type != EventStop && ev.Type != EventAlarm {
		return ""
	}
	if ev.Reason == "" {
		return string(ev.Category)
	}
	return fmt.Sprintf("%s: %s", ev.Category, ev.Reason)
}

// classifyCause samples the probability cascade from spec §4.1: planned
// maintenance, else changeover, else process vs breakdown.
func classifyCause(rng *randutil.Source, params *Params) (DowntimeCategory, string) {
	var category DowntimeCategory
	switch {
	case rng.Bool(params.ProbStopIsPlannedMaint):
		category = CategoryPlannedMaintenance
	case rng.Bool(params.ProbChangeover):
		category = CategoryChangeover
	case rng.Bool(params.ProbBreakdownIsProcess):
		category = CategoryUnplannedProcess
	default:
		category = CategoryUnplannedBreakdown
	}

	reasons := params.DowntimeReasons[category]
	if len(reasons) == 0 {
		return category, ""
	}
	return category, randutil.Choice(rng, reasons)
}

// repairDuration samples time-to-next-start by cause. Planned categories
// are more predictable: mean * uniform(0.8, 1.2) rather than exponential.
func repairDuration(rng *randutil.Source, params *Params, category DowntimeCategory) time.Duration {
	switch category {
	case CategoryPlannedMaintenance:
		return scaledHours(rng, params.AvgMTTRHours.MaintenanceHours)
	case CategoryChangeover:
		return scaledHours(rng, params.AvgMTTRHours.ChangeoverHours)
	case CategoryUnplannedProcess:
		return rng.Exponential(params.AvgMTTRHours.ProcessHours)
	default: // CategoryUnplannedBreakdown
		return rng.Exponential(params.AvgMTTRHours.BreakdownHours)
	}
}

func scaledHours(rng *randutil.Source, meanHours float64) time.Duration {
	hours := meanHours * rng.Uniform(0.8, 1.2)
	return time.Duration(hours * float64(time.Hour))
}
