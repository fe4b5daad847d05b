// Package logging builds the zap logger shared by the simulator, the KPI
// engine's call sites, and the HTTP surface.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger at the given level ("debug", "info",
// "warn", "error"). An unknown level falls back to "info".
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "ts"

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Fields namespaces zap.Field constructors for the equipment, window and
// error tags. No package in this module calls it; the existing log call
// sites build their fields with zap directly.
var Fields = struct {
	EquipmentID func(string) zap.Field
	Window      func(start, end time.Time) zap.Field
	Err         func(error) zap.Field
}{
	EquipmentID: func(id string) zap.Field { return zap.String("equipment_id", id) },
	Window: func(start, end time.Time) zap.Field {
		return zap.String("window", start.Format(time.RFC3339)+"/"+end.Format(time.RFC3339))
	},
	Err: zap.Error,
}
