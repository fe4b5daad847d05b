// Package kpi computes per-machine OEE and its decomposition, MTBF/MTTR,
// and related throughput metrics over an arbitrary time window. The engine
// holds no mutable state and performs no I/O beyond reading through the
// storage interfaces it is given, so concurrent queries are safe by
// construction.
package kpi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/interval"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage"
)

// Row is one machine's KPI output for a query window.
type Row struct {
	EquipmentID string

	PeriodDurationSeconds        float64
	PlannedDowntimeSeconds       float64
	UnplannedDowntimeSeconds     float64
	PlannedProductionTimeSeconds float64
	RunTimeSeconds               float64

	QuantityProduced       int
	QuantityRejected       int
	TotalGood              int
	RunningDurationSeconds int

	Availability float64
	Performance  float64
	Quality      float64
	OEE          float64

	RejectRate               float64
	AvgActualCycleTimeSeconds float64
	ThroughputPerHour         float64

	UnplannedIncidentCount int
	MTBFSeconds            float64
	MTTRSeconds            float64
}

// jsonFloat marshals NaN and Inf as JSON null. encoding/json rejects
// non-finite floats outright, which would otherwise turn a row carrying
// the NaN-vs-zero policy's "no activity" sentinel into an encode error
// after the response header is already written.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON renders the NaN-carrying fields as null instead of failing
// the encode.
func (r Row) MarshalJSON() ([]byte, error) {
	type rowAlias Row
	return json.Marshal(struct {
		rowAlias
		Availability              jsonFloat `json:"Availability"`
		Performance               jsonFloat `json:"Performance"`
		Quality                   jsonFloat `json:"Quality"`
		OEE                       jsonFloat `json:"OEE"`
		AvgActualCycleTimeSeconds jsonFloat `json:"AvgActualCycleTimeSeconds"`
		ThroughputPerHour         jsonFloat `json:"ThroughputPerHour"`
		MTBFSeconds               jsonFloat `json:"MTBFSeconds"`
		MTTRSeconds               jsonFloat `json:"MTTRSeconds"`
	}{
		rowAlias:                  rowAlias(r),
		Availability:              jsonFloat(r.Availability),
		Performance:               jsonFloat(r.Performance),
		Quality:                   jsonFloat(r.Quality),
		OEE:                       jsonFloat(r.OEE),
		AvgActualCycleTimeSeconds: jsonFloat(r.AvgActualCycleTimeSeconds),
		ThroughputPerHour:         jsonFloat(r.ThroughputPerHour),
		MTBFSeconds:               jsonFloat(r.MTBFSeconds),
		MTTRSeconds:               jsonFloat(r.MTTRSeconds),
	})
}

// Engine computes KPI rows by reading equipment, downtime and production
// data through the storage interfaces.
type Engine struct {
	Equipment  storage.EquipmentStore
	Downtime   storage.DowntimeStore
	Production storage.ProductionStore
}

// New builds an Engine over the given stores.
func New(equipment storage.EquipmentStore, downtime storage.DowntimeStore, production storage.ProductionStore) *Engine {
	return &Engine{Equipment: equipment, Downtime: downtime, Production: production}
}

// Compute returns one row per in-scope machine for the window win,
// optionally filtered to a single equipmentID. Every machine in scope gets
// a row even with no downtime or production data in the window: the output
// schema is always structurally complete.
func (e *Engine) Compute(ctx context.Context, win interval.Window, equipmentID string) ([]Row, error) {
	machines, err := e.scopedEquipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("kpi: list equipment: %w", err)
	}

	periodSeconds := win.Duration().Seconds()

	rows := make([]Row, 0, len(machines))
	for _, m := range machines {
		downtimeRows, err := e.Downtime.GetDowntime(ctx, win.Start, win.End, m.EquipmentID)
		if err != nil {
			return nil, fmt.Errorf("kpi: get downtime for %s: %w", m.EquipmentID, err)
		}
		productionRows, err := e.Production.GetProduction(ctx, win.Start, win.End, m.EquipmentID)
		if err != nil {
			return nil, fmt.Errorf("kpi: get production for %s: %w", m.EquipmentID, err)
		}
		rows = append(rows, computeRow(m, win, periodSeconds, downtimeRows, productionRows))
	}
	return rows, nil
}

func (e *Engine) scopedEquipment(ctx context.Context, equipmentID string) ([]catalog.Equipment, error) {
	all, err := e.Equipment.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	if equipmentID == "" {
		return all, nil
	}
	for _, m := range all {
		if m.EquipmentID == equipmentID {
			return []catalog.Equipment{m}, nil
		}
	}
	return nil, nil
}

func computeRow(m catalog.Equipment, win interval.Window, periodSeconds float64, downtimeRows []simlib.DowntimeInterval, productionRows []production.Record) Row {
	var plannedDt, unplannedDt float64
	var unplannedCount int

	for _, d := range downtimeRows {
		span := interval.Span{Start: d.StartTime, End: d.EndTime}
		clipped := interval.Clip(span, win).Seconds()
		if d.DowntimeCategory.IsUnplanned() {
			unplannedDt += clipped
			if interval.StartsIn(span, win) {
				unplannedCount++
			}
		} else {
			plannedDt += clipped
		}
	}

	var produced, rejected, runningSeconds int
	for _, p := range productionRows {
		produced += p.QuantityProduced
		rejected += p.QuantityRejected
		runningSeconds += p.RunningDurationSeconds
	}
	totalGood := produced - rejected

	plannedProductionTime := periodSeconds - plannedDt
	runTime := math.Max(0, plannedProductionTime-unplannedDt)

	availability := math.NaN()
	if plannedProductionTime > 0 {
		availability = runTime / plannedProductionTime
	}

	performance := 0.0
	if runTime > 0 {
		performance = math.Min(1.0, (float64(produced)*float64(m.IdealCycleTimeSeconds))/runTime)
	}

	quality := 0.0
	if produced > 0 {
		quality = float64(totalGood) / float64(produced)
	}

	availability = clampUnit(availability)
	performance = clampUnit(performance)
	quality = clampUnit(quality)
	oee := clampUnit(availability * performance * quality)

	rejectRate := 0.0
	if produced > 0 {
		rejectRate = float64(rejected) / float64(produced)
	}

	avgActualCycleTime := math.NaN()
	throughputPerHour := math.NaN()
	if produced > 0 {
		avgActualCycleTime = float64(runningSeconds) / float64(produced)
	}
	if runningSeconds > 0 {
		throughputPerHour = float64(produced) / (float64(runningSeconds) / 3600)
	}

	mtbf := math.NaN()
	mttr := math.NaN()
	if unplannedCount > 0 {
		mtbf = runTime / float64(unplannedCount)
		mttr = unplannedDt / float64(unplannedCount)
	}

	return Row{
		EquipmentID:                  m.EquipmentID,
		PeriodDurationSeconds:        periodSeconds,
		PlannedDowntimeSeconds:       plannedDt,
		UnplannedDowntimeSeconds:     unplannedDt,
		PlannedProductionTimeSeconds: plannedProductionTime,
		RunTimeSeconds:               runTime,
		QuantityProduced:             produced,
		QuantityRejected:             rejected,
		TotalGood:                    totalGood,
		RunningDurationSeconds:       runningSeconds,
		Availability:                 availability,
		Performance:                  performance,
		Quality:                      quality,
		OEE:                          oee,
		RejectRate:                   rejectRate,
		AvgActualCycleTimeSeconds:    avgActualCycleTime,
		ThroughputPerHour:            throughputPerHour,
		UnplannedIncidentCount:       unplannedCount,
		MTBFSeconds:                  mtbf,
		MTTRSeconds:                  mttr,
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
