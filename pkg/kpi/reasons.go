package kpi

import (
	"context"
	"fmt"

	"github.com/flowforge/oee-sim/pkg/interval"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage"
)

// ReasonRow is one (equipment, category, reason) downtime breakdown row.
type ReasonRow struct {
	EquipmentID              string
	DowntimeCategory         simlib.DowntimeCategory
	DowntimeReason           string
	IncidentCount            int
	EffectiveDurationSeconds float64
}

type reasonKey struct {
	equipmentID string
	category    simlib.DowntimeCategory
	reason      string
}

// ReasonAggregator counts and sums downtime by (equipment, category,
// reason) over a window, reading through the same DowntimeStore the
// Engine uses.
type ReasonAggregator struct {
	Downtime storage.DowntimeStore
}

// NewReasonAggregator builds a ReasonAggregator over the given store.
func NewReasonAggregator(downtime storage.DowntimeStore) *ReasonAggregator {
	return &ReasonAggregator{Downtime: downtime}
}

// Compute returns one row per (equipment, category, reason) present in the
// window, with incident counts (start-based) left-joined onto clipped
// durations (overlap-based); rows disjoint from the window are omitted
// entirely (S2).
func (r *ReasonAggregator) Compute(ctx context.Context, win interval.Window, equipmentID string) ([]ReasonRow, error) {
	rows, err := r.Downtime.GetDowntime(ctx, win.Start, win.End, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("kpi: get downtime: %w", err)
	}

	durations := make(map[reasonKey]float64)
	counts := make(map[reasonKey]int)
	var order []reasonKey

	for _, d := range rows {
		span := interval.Span{Start: d.StartTime, End: d.EndTime}
		clipped := interval.Clip(span, win).Seconds()
		if clipped <= 0 {
			continue
		}
		k := reasonKey{equipmentID: d.EquipmentID, category: d.DowntimeCategory, reason: d.DowntimeReason}
		if _, seen := durations[k]; !seen {
			order = append(order, k)
		}
		durations[k] += clipped
		if interval.StartsIn(span, win) {
			counts[k]++
		}
	}

	out := make([]ReasonRow, 0, len(order))
	for _, k := range order {
		out = append(out, ReasonRow{
			EquipmentID:              k.equipmentID,
			DowntimeCategory:         k.category,
			DowntimeReason:           k.reason,
			IncidentCount:            counts[k],
			EffectiveDurationSeconds: durations[k],
		})
	}
	return out, nil
}
