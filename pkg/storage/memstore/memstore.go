// Package memstore is an in-memory storage.Store, sorted on insert where
// traversal order matters. It backs the simulator's own output path and
// every core test, so tests never depend on a live database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/sensors"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

// Store is a slice-backed, mutex-guarded storage.Store.
type Store struct {
	mu sync.RWMutex

	equipment  []catalog.Equipment
	events     []simlib.MachineEvent
	downtime   []simlib.DowntimeInterval
	production []production.Record
	sensorData []sensors.Reading
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) PutEquipment(_ context.Context, equipment []catalog.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment = append(s.equipment, equipment...)
	return nil
}

func (s *Store) ListEquipment(_ context.Context) ([]catalog.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Equipment, len(s.equipment))
	copy(out, s.equipment)
	return out, nil
}

func (s *Store) PutEvents(_ context.Context, events []simlib.MachineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	sort.Slice(s.events, func(i, j int) bool {
		return s.events[i].Timestamp.Before(s.events[j].Timestamp)
	})
	return nil
}

func (s *Store) GetEvents(_ context.Context, equipmentID string, start, end time.Time) ([]simlib.MachineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []simlib.MachineEvent
	for _, e := range s.events {
		if equipmentID != "" && e.EquipmentID != equipmentID {
			continue
		}
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) PutDowntime(_ context.Context, intervals []simlib.DowntimeInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downtime = append(s.downtime, intervals...)
	sort.Slice(s.downtime, func(i, j int) bool {
		return s.downtime[i].StartTime.Before(s.downtime[j].StartTime)
	})
	return nil
}

func (s *Store) GetDowntime(_ context.Context, start, end time.Time, equipmentID string) ([]simlib.DowntimeInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []simlib.DowntimeInterval
	for _, d := range s.downtime {
		if equipmentID != "" && d.EquipmentID != equipmentID {
			continue
		}
		if !d.EndTime.After(start) || !d.StartTime.Before(end) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) PutProduction(_ context.Context, records []production.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.production = append(s.production, records...)
	sort.Slice(s.production, func(i, j int) bool {
		return s.production[i].Timestamp.Before(s.production[j].Timestamp)
	})
	return nil
}

func (s *Store) GetProduction(_ context.Context, start, end time.Time, equipmentID string) ([]production.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []production.Record
	for _, r := range s.production {
		if equipmentID != "" && r.EquipmentID != equipmentID {
			continue
		}
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) PutSensorReadings(_ context.Context, readings []sensors.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensorData = append(s.sensorData, readings...)
	sort.Slice(s.sensorData, func(i, j int) bool {
		return s.sensorData[i].Timestamp.Before(s.sensorData[j].Timestamp)
	})
	return nil
}

func (s *Store) GetSensorReadings(_ context.Context, start, end time.Time, equipmentID, sensorType string) ([]sensors.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sensors.Reading
	for _, r := range s.sensorData {
		if equipmentID != "" && r.EquipmentID != equipmentID {
			continue
		}
		if sensorType != "" && r.SensorType != sensorType {
			continue
		}
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
