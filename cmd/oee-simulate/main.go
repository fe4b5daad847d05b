// Command oee-simulate runs the lifecycle simulator and production/sensor
// generators for a synthetic equipment fleet, writing the five output
// tables through a storage.Store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/oee-sim/internal/config"
	"github.com/flowforge/oee-sim/internal/logging"
	"github.com/flowforge/oee-sim/internal/randutil"
	"github.com/flowforge/oee-sim/pkg/catalog"
	"github.com/flowforge/oee-sim/pkg/production"
	"github.com/flowforge/oee-sim/pkg/sensors"
	"github.com/flowforge/oee-sim/pkg/simlib"
	"github.com/flowforge/oee-sim/pkg/storage"
	"github.com/flowforge/oee-sim/pkg/storage/csvio"
	"github.com/flowforge/oee-sim/pkg/storage/memstore"
	"github.com/flowforge/oee-sim/pkg/storage/postgres"
)

// Exit codes, following the teacher CLI's explicit-constant discipline.
const (
	ExitOK int = iota
	ExitBadArgs
	ExitSimulatorError
	ExitStoreError
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		equipmentCount = flag.Int("equipment-count", 5, "number of synthetic machines to simulate")
		startStr       = flag.String("start", "", "simulation window start, YYYY-MM-DD (required)")
		endStr         = flag.String("end", "", "simulation window end, YYYY-MM-DD (required)")
		seed           = flag.Int64("seed", time.Now().UnixNano(), "RNG seed; a fixed seed reproduces a run exactly")
		paramsPath     = flag.String("params", "", "optional YAML file overriding the default parameter bundle")
		out            = flag.String("out", "./out", "output directory (csv store) or ignored for postgres store")
		storeKind      = flag.String("store", "csv", "output store: csv or postgres")
		logLevel       = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: oee-simulate -start YYYY-MM-DD -end YYYY-MM-DD [flags]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oee-simulate: build logger: %v\n", err)
		return ExitBadArgs
	}
	defer log.Sync() //nolint:errcheck

	if *startStr == "" || *endStr == "" {
		fmt.Fprintln(os.Stderr, "oee-simulate: -start and -end are required")
		flag.Usage()
		return ExitBadArgs
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Error("invalid -start", zap.Error(err))
		return ExitBadArgs
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		log.Error("invalid -end", zap.Error(err))
		return ExitBadArgs
	}

	params, err := loadParams(*paramsPath)
	if err != nil {
		log.Error("failed to load parameter bundle", zap.Error(err))
		return ExitBadArgs
	}

	equipment := generateFleet(*equipmentCount)
	cat := catalog.New(equipment)
	equipmentIDs := cat.IDs()
	win := simlib.Window{Start: start, End: end}
	rng := randutil.New(*seed)

	result, err := simlib.Run(equipmentIDs, win, params, rng)
	if err != nil {
		log.Error("simulator invariant violation, aborting run", zap.Error(err))
		return ExitSimulatorError
	}

	prodRecords, err := production.Generate(cat, result.Events, result.Downtime, win, params, rng)
	if err != nil {
		log.Error("production generation failed", zap.Error(err))
		return ExitSimulatorError
	}
	sensorReadings, err := sensors.Generate(equipmentIDs, result.Downtime, win, params, rng)
	if err != nil {
		log.Error("sensor generation failed", zap.Error(err))
		return ExitSimulatorError
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, *storeKind)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		return ExitStoreError
	}
	defer closeStore()

	if err := writeAll(ctx, store, equipment, result, prodRecords, sensorReadings); err != nil {
		log.Error("failed to write simulation output", zap.Error(err))
		return ExitStoreError
	}

	if *storeKind == "csv" {
		if err := csvio.Dump(ctx, *out, store); err != nil {
			log.Error("failed to dump CSV output", zap.Error(err))
			return ExitStoreError
		}
	}

	log.Info("simulation complete",
		zap.Int("equipment_count", *equipmentCount),
		zap.Int("events", len(result.Events)),
		zap.Int("downtime_intervals", len(result.Downtime)),
		zap.Int("production_records", len(prodRecords)),
		zap.Int("sensor_readings", len(sensorReadings)),
	)
	return ExitOK
}

func loadParams(path string) (*simlib.Params, error) {
	if path == "" {
		return simlib.DefaultParams()
	}
	return simlib.LoadParams(path)
}

func generateFleet(n int) []catalog.Equipment {
	out := make([]catalog.Equipment, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, catalog.Equipment{
			EquipmentID:           fmt.Sprintf("EQ-%03d", i),
			EquipmentName:         fmt.Sprintf("Machine %d", i),
			EquipmentType:         "Press",
			ProductionLineID:      fmt.Sprintf("Line-%d", (i-1)/3+1),
			IdealCycleTimeSeconds: 10,
			Location:              "Plant A",
			InstallationDate:      time.Now(),
		})
	}
	return out
}

func openStore(ctx context.Context, kind string) (storage.Store, func(), error) {
	switch kind {
	case "postgres":
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load db config: %w", err)
		}
		s, err := postgres.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s := memstore.New()
		return s, func() {}, nil
	}
}

func writeAll(ctx context.Context, store storage.Store, equipment []catalog.Equipment, result *simlib.Result, prodRecords []production.Record, sensorReadings []sensors.Reading) error {
	if err := store.PutEquipment(ctx, equipment); err != nil {
		return err
	}
	if err := store.PutEvents(ctx, result.Events); err != nil {
		return err
	}
	if err := store.PutDowntime(ctx, result.Downtime); err != nil {
		return err
	}
	if err := store.PutProduction(ctx, prodRecords); err != nil {
		return err
	}
	if err := store.PutSensorReadings(ctx, sensorReadings); err != nil {
		return err
	}
	return nil
}
