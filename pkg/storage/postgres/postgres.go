// Package postgres is a pgx-backed storage.Store. SQL matches the five
// schemas in the external interface spec verbatim. Connections are
// acquired from the pool per call and released on every exit path,
// including error, per the concurrency/resource model.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/sensors"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

// Store is a pgx-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres using dsn (a postgres:// connection string, see
// internal/config's Store.DSN) and verifies connectivity with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS equipments (
	equipment_id TEXT PRIMARY KEY,
	equipment_name TEXT NOT NULL,
	equipment_type TEXT NOT NULL,
	production_line_id TEXT NOT NULL,
	ideal_cycle_time_seconds INTEGER NOT NULL,
	location TEXT NOT NULL,
	installation_date TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS machine_events (
	event_id BIGINT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	equipment_id TEXT NOT NULL REFERENCES equipments(equipment_id),
	event_type TEXT NOT NULL,
	details TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS downtime_logs (
	downtime_id BIGINT PRIMARY KEY,
	equipment_id TEXT NOT NULL REFERENCES equipments(equipment_id),
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	downtime_category TEXT NOT NULL,
	downtime_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS production_output (
	timestamp TIMESTAMPTZ NOT NULL,
	equipment_id TEXT NOT NULL REFERENCES equipments(equipment_id),
	product_id TEXT NOT NULL,
	quantity_produced INTEGER NOT NULL,
	quantity_rejected INTEGER NOT NULL,
	running_duration_seconds INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sensor_readings (
	timestamp TIMESTAMPTZ NOT NULL,
	equipment_id TEXT NOT NULL REFERENCES equipments(equipment_id),
	sensor_type TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	unit TEXT NOT NULL
);
`

// Migrate creates the five tables if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (s *Store) PutEquipment(ctx context.Context, equipment []catalog.Equipment) error {
	for _, e := range equipment {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO equipments (equipment_id, equipment_name, equipment_type, production_line_id, ideal_cycle_time_seconds, location, installation_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (equipment_id) DO NOTHING`,
			e.EquipmentID, e.EquipmentName, e.EquipmentType, e.ProductionLineID, e.IdealCycleTimeSeconds, e.Location, e.InstallationDate)
		if err != nil {
			return fmt.Errorf("postgres: insert equipment %s: %w", e.EquipmentID, err)
		}
	}
	return nil
}

func (s *Store) ListEquipment(ctx context.Context) ([]catalog.Equipment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT equipment_id, equipment_name, equipment_type, production_line_id, ideal_cycle_time_seconds, location, installation_date
		FROM equipments ORDER BY equipment_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list equipment: %w", err)
	}
	defer rows.Close()

	var out []catalog.Equipment
	for rows.Next() {
		var e catalog.Equipment
		if err := rows.Scan(&e.EquipmentID, &e.EquipmentName, &e.EquipmentType, &e.ProductionLineID, &e.IdealCycleTimeSeconds, &e.Location, &e.InstallationDate); err != nil {
			return nil, fmt.Errorf("postgres: scan equipment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) PutEvents(ctx context.Context, events []simlib.MachineEvent) error {
	for _, e := range events {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO machine_events (event_id, timestamp, equipment_id, event_type, details)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (event_id) DO NOTHING`,
			e.EventID, e.Timestamp, e.EquipmentID, string(e.EventType), e.Details)
		if err != nil {
			return fmt.Errorf("postgres: insert event %d: %w", e.EventID, err)
		}
	}
	return nil
}

func (s *Store) GetEvents(ctx context.Context, equipmentID string, start, end time.Time) ([]simlib.MachineEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, timestamp, equipment_id, event_type, details
		FROM machine_events
		WHERE timestamp >= $1 AND timestamp <= $2 AND ($3 = '' OR equipment_id = $3)
		ORDER BY timestamp ASC`, start, end, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get events: %w", err)
	}
	defer rows.Close()

	var out []simlib.MachineEvent
	for rows.Next() {
		var e simlib.MachineEvent
		var eventType string
		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.EquipmentID, &eventType, &e.Details); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.EventType = simlib.EventType(eventType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) PutDowntime(ctx context.Context, intervals []simlib.DowntimeInterval) error {
	for _, d := range intervals {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO downtime_logs (downtime_id, equipment_id, start_time, end_time, downtime_category, downtime_reason)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (downtime_id) DO NOTHING`,
			d.DowntimeID, d.EquipmentID, d.StartTime, d.EndTime, string(d.DowntimeCategory), d.DowntimeReason)
		if err != nil {
			return fmt.Errorf("postgres: insert downtime %d: %w", d.DowntimeID, err)
		}
	}
	return nil
}

func (s *Store) GetDowntime(ctx context.Context, start, end time.Time, equipmentID string) ([]simlib.DowntimeInterval, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT downtime_id, equipment_id, start_time, end_time, downtime_category, downtime_reason
		FROM downtime_logs
		WHERE end_time > $1 AND start_time < $2 AND ($3 = '' OR equipment_id = $3)
		ORDER BY start_time ASC`, start, end, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get downtime: %w", err)
	}
	defer rows.Close()

	var out []simlib.DowntimeInterval
	for rows.Next() {
		var d simlib.DowntimeInterval
		var category string
		if err := rows.Scan(&d.DowntimeID, &d.EquipmentID, &d.StartTime, &d.EndTime, &category, &d.DowntimeReason); err != nil {
			return nil, fmt.Errorf("postgres: scan downtime: %w", err)
		}
		d.DowntimeCategory = simlib.DowntimeCategory(category)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) PutProduction(ctx context.Context, records []production.Record) error {
	for _, r := range records {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO production_output (timestamp, equipment_id, product_id, quantity_produced, quantity_rejected, running_duration_seconds)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.Timestamp, r.EquipmentID, r.ProductID, r.QuantityProduced, r.QuantityRejected, r.RunningDurationSeconds)
		if err != nil {
			return fmt.Errorf("postgres: insert production record for %s: %w", r.EquipmentID, err)
		}
	}
	return nil
}

func (s *Store) GetProduction(ctx context.Context, start, end time.Time, equipmentID string) ([]production.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT timestamp, equipment_id, product_id, quantity_produced, quantity_rejected, running_duration_seconds
		FROM production_output
		WHERE timestamp >= $1 AND timestamp <= $2 AND ($3 = '' OR equipment_id = $3)
		ORDER BY timestamp ASC`, start, end, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get production: %w", err)
	}
	defer rows.Close()

	var out []production.Record
	for rows.Next() {
		var r production.Record
		if err := rows.Scan(&r.Timestamp, &r.EquipmentID, &r.ProductID, &r.QuantityProduced, &r.QuantityRejected, &r.RunningDurationSeconds); err != nil {
			return nil, fmt.Errorf("postgres: scan production record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) PutSensorReadings(ctx context.Context, readings []sensors.Reading) error {
	for _, r := range readings {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO sensor_readings (timestamp, equipment_id, sensor_type, value, unit)
			VALUES ($1, $2, $3, $4, $5)`,
			r.Timestamp, r.EquipmentID, r.SensorType, r.Value, r.Unit)
		if err != nil {
			return fmt.Errorf("postgres: insert sensor reading for %s: %w", r.EquipmentID, err)
		}
	}
	return nil
}

func (s *Store) GetSensorReadings(ctx context.Context, start, end time.Time, equipmentID, sensorType string) ([]sensors.Reading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT timestamp, equipment_id, sensor_type, value, unit
		FROM sensor_readings
		WHERE timestamp >= $1 AND timestamp <= $2
		  AND ($3 = '' OR equipment_id = $3)
		  AND ($4 = '' OR sensor_type = $4)
		ORDER BY timestamp ASC`, start, end, equipmentID, sensorType)
	if err != nil {
		return nil, fmt.Errorf("postgres: get sensor readings: %w", err)
	}
	defer rows.Close()

	var out []sensors.Reading
	for rows.Next() {
		var r sensors.Reading
		if err := rows.Scan(&r.Timestamp, &r.EquipmentID, &r.SensorType, &r.Value, &r.Unit); err != nil {
			return nil, fmt.Errorf("postgres: scan sensor reading: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
