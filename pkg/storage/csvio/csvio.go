// Package csvio dumps and loads the five tabular schemas as CSV files, for
// seed loads without a live database.
package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/sensors"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage"
)

const timeLayout = time.RFC3339Nano

// Dump writes all five tables from store into dir as
// equipments.csv/machine_events.csv/downtime_logs.csv/production_output.csv/sensor_readings.csv.
func Dump(ctx context.Context, dir string, store storage.Store) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csvio: create dir %s: %w", dir, err)
	}

	equipment, err := store.ListEquipment(ctx)
	if err != nil {
		return fmt.Errorf("csvio: list equipment: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "equipments.csv"), equipmentHeader, len(equipment), func(i int) []string {
		return equipmentRow(equipment[i])
	}); err != nil {
		return err
	}

	wideWindow := 100 * 365 * 24 * time.Hour
	now := time.Now()
	start := now.Add(-wideWindow)
	end := now.Add(wideWindow)

	events, err := store.GetEvents(ctx, "", start, end)
	if err != nil {
		return fmt.Errorf("csvio: get events: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "machine_events.csv"), eventHeader, len(events), func(i int) []string {
		return eventRow(events[i])
	}); err != nil {
		return err
	}

	downtime, err := store.GetDowntime(ctx, start, end, "")
	if err != nil {
		return fmt.Errorf("csvio: get downtime: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "downtime_logs.csv"), downtimeHeader, len(downtime), func(i int) []string {
		return downtimeRow(downtime[i])
	}); err != nil {
		return err
	}

	records, err := store.GetProduction(ctx, start, end, "")
	if err != nil {
		return fmt.Errorf("csvio: get production: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "production_output.csv"), productionHeader, len(records), func(i int) []string {
		return productionRow(records[i])
	}); err != nil {
		return err
	}

	readings, err := store.GetSensorReadings(ctx, start, end, "", "")
	if err != nil {
		return fmt.Errorf("csvio: get sensor readings: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "sensor_readings.csv"), sensorHeader, len(readings), func(i int) []string {
		return sensorRow(readings[i])
	}); err != nil {
		return err
	}

	return nil
}

// Load reads the five CSV files from dir and writes them into store.
func Load(ctx context.Context, dir string, store storage.Store) error {
	equipment, err := readEquipment(filepath.Join(dir, "equipments.csv"))
	if err != nil {
		return err
	}
	if err := store.PutEquipment(ctx, equipment); err != nil {
		return fmt.Errorf("csvio: put equipment: %w", err)
	}

	events, err := readEvents(filepath.Join(dir, "machine_events.csv"))
	if err != nil {
		return err
	}
	if err := store.PutEvents(ctx, events); err != nil {
		return fmt.Errorf("csvio: put events: %w", err)
	}

	downtime, err := readDowntime(filepath.Join(dir, "downtime_logs.csv"))
	if err != nil {
		return err
	}
	if err := store.PutDowntime(ctx, downtime); err != nil {
		return fmt.Errorf("csvio: put downtime: %w", err)
	}

	records, err := readProduction(filepath.Join(dir, "production_output.csv"))
	if err != nil {
		return err
	}
	if err := store.PutProduction(ctx, records); err != nil {
		return fmt.Errorf("csvio: put production: %w", err)
	}

	readings, err := readSensorReadings(filepath.Join(dir, "sensor_readings.csv"))
	if err != nil {
		return err
	}
	if err := store.PutSensorReadings(ctx, readings); err != nil {
		return fmt.Errorf("csvio: put sensor readings: %w", err)
	}

	return nil
}

func writeCSV(path string, header []string, n int, row func(i int) []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csvio: write header %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("csvio: write row %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("csvio: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil // drop header
}

var equipmentHeader = []string{"equipment_id", "equipment_name", "equipment_type", "production_line_id", "ideal_cycle_time_seconds", "location", "installation_date"}

func equipmentRow(e catalog.Equipment) []string {
	return []string{e.EquipmentID, e.EquipmentName, e.EquipmentType, e.ProductionLineID, strconv.Itoa(e.IdealCycleTimeSeconds), e.Location, e.InstallationDate.Format(timeLayout)}
}

func readEquipment(path string) ([]catalog.Equipment, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Equipment, 0, len(rows))
	for _, row := range rows {
		cycleTime, _ := strconv.Atoi(row[4])
		installDate, _ := time.Parse(timeLayout, row[6])
		out = append(out, catalog.Equipment{
			EquipmentID:           row[0],
			EquipmentName:         row[1],
			EquipmentType:         row[2],
			ProductionLineID:      row[3],
			IdealCycleTimeSeconds: cycleTime,
			Location:              row[5],
			InstallationDate:      installDate,
		})
	}
	return out, nil
}

var eventHeader = []string{"event_id", "timestamp", "equipment_id", "event_type", "details"}

func eventRow(e simlib.MachineEvent) []string {
	return []string{strconv.FormatInt(e.EventID, 10), e.Timestamp.Format(timeLayout), e.EquipmentID, string(e.EventType), e.Details}
}

func readEvents(path string) ([]simlib.MachineEvent, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]simlib.MachineEvent, 0, len(rows))
	for _, row := range rows {
		id, _ := strconv.ParseInt(row[0], 10, 64)
		ts, _ := time.Parse(timeLayout, row[1])
		out = append(out, simlib.MachineEvent{
			EventID:     id,
			Timestamp:   ts,
			EquipmentID: row[2],
			EventType:   simlib.EventType(row[3]),
			Details:     row[4],
		})
	}
	return out, nil
}

var downtimeHeader = []string{"downtime_id", "equipment_id", "start_time", "end_time", "downtime_category", "downtime_reason"}

func downtimeRow(d simlib.DowntimeInterval) []string {
	return []string{strconv.FormatInt(d.DowntimeID, 10), d.EquipmentID, d.StartTime.Format(timeLayout), d.EndTime.Format(timeLayout), string(d.DowntimeCategory), d.DowntimeReason}
}

func readDowntime(path string) ([]simlib.DowntimeInterval, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]simlib.DowntimeInterval, 0, len(rows))
	for _, row := range rows {
		id, _ := strconv.ParseInt(row[0], 10, 64)
		start, _ := time.Parse(timeLayout, row[2])
		end, _ := time.Parse(timeLayout, row[3])
		out = append(out, simlib.DowntimeInterval{
			DowntimeID:       id,
			EquipmentID:      row[1],
			StartTime:        start,
			EndTime:          end,
			DowntimeCategory: simlib.DowntimeCategory(row[4]),
			DowntimeReason:   row[5],
		})
	}
	return out, nil
}

var productionHeader = []string{"timestamp", "equipment_id", "product_id", "quantity_produced", "quantity_rejected", "running_duration_seconds"}

func productionRow(r production.Record) []string {
	return []string{r.Timestamp.Format(timeLayout), r.EquipmentID, r.ProductID, strconv.Itoa(r.QuantityProduced), strconv.Itoa(r.QuantityRejected), strconv.Itoa(r.RunningDurationSeconds)}
}

func readProduction(path string) ([]production.Record, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]production.Record, 0, len(rows))
	for _, row := range rows {
		ts, _ := time.Parse(timeLayout, row[0])
		produced, _ := strconv.Atoi(row[3])
		rejected, _ := strconv.Atoi(row[4])
		runSeconds, _ := strconv.Atoi(row[5])
		out = append(out, production.Record{
			Timestamp:              ts,
			EquipmentID:            row[1],
			ProductID:              row[2],
			QuantityProduced:       produced,
			QuantityRejected:       rejected,
			RunningDurationSeconds: runSeconds,
		})
	}
	return out, nil
}

var sensorHeader = []string{"timestamp", "equipment_id", "sensor_type", "value", "unit"}

func sensorRow(r sensors.Reading) []string {
	return []string{r.Timestamp.Format(timeLayout), r.EquipmentID, r.SensorType, strconv.FormatFloat(r.Value, 'f', -1, 64), r.Unit}
}

func readSensorReadings(path string) ([]sensors.Reading, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]sensors.Reading, 0, len(rows))
	for _, row := range rows {
		ts, _ := time.Parse(timeLayout, row[0])
		value, _ := strconv.ParseFloat(row[3], 64)
		out = append(out, sensors.Reading{
			Timestamp:   ts,
			EquipmentID: row[1],
			SensorType:  row[2],
			Value:       value,
			Unit:        row[4],
		})
	}
	return out, nil
}
