// Package storage defines the tabular store interfaces the simulator
// writes through and the KPI engine and HTTP surface read through. Two
// implementations exist: storage/memstore (slice-backed, used by the
// simulator's own output path and by every core test) and storage/postgres
// (pgx-backed). storage/csvio offers CSV dump/load for seed data.
package storage

import (
	"context"
	"time"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/sensors"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

// EquipmentStore holds the static equipment roster.
type EquipmentStore interface {
	PutEquipment(ctx context.Context, equipment []catalog.Equipment) error
	ListEquipment(ctx context.Context) ([]catalog.Equipment, error)
}

// EventStore holds the machine event stream.
type EventStore interface {
	PutEvents(ctx context.Context, events []simlib.MachineEvent) error
	GetEvents(ctx context.Context, equipmentID string, start, end time.Time) ([]simlib.MachineEvent, error)
}

// DowntimeStore holds the downtime log. GetDowntime returns intervals
// overlapping [start, end); equipmentID == "" means every machine.
type DowntimeStore interface {
	PutDowntime(ctx context.Context, intervals []simlib.DowntimeInterval) error
	GetDowntime(ctx context.Context, start, end time.Time, equipmentID string) ([]simlib.DowntimeInterval, error)
}

// ProductionStore holds hourly production rollups. GetProduction returns
// records with start <= timestamp <= end; equipmentID == "" means every
// machine.
type ProductionStore interface {
	PutProduction(ctx context.Context, records []production.Record) error
	GetProduction(ctx context.Context, start, end time.Time, equipmentID string) ([]production.Record, error)
}

// SensorStore holds periodic sensor readings, ordered by timestamp
// ascending on read.
type SensorStore interface {
	PutSensorReadings(ctx context.Context, readings []sensors.Reading) error
	GetSensorReadings(ctx context.Context, start, end time.Time, equipmentID, sensorType string) ([]sensors.Reading, error)
}

// Store is the full tabular store the simulator writes to and the KPI
// engine/HTTP surface read from.
type Store interface {
	EquipmentStore
	EventStore
	DowntimeStore
	ProductionStore
	SensorStore
}
