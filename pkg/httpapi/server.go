// Package httpapi is the thin chi-based HTTP query surface. It is a
// parameter-parsing adapter only: all decision logic lives in kpi and
// storage, nothing HTTP-specific leaks into those packages.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/flowforge/oee-sim/pkg/kpi"
	"github.com/flowforge/oee-sim/pkg/storage"
)

// Server holds the collaborators the query surface delegates to.
type Server struct {
	Engine    *kpi.Engine
	Reasons   *kpi.ReasonAggregator
	Equipment storage.EquipmentStore
	Sensors   storage.SensorStore
	Log       *zap.Logger
}

// NewRouter builds the chi router exposing the four KPI query operations.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/equipments", s.handleListEquipments)
	r.Get("/api/kpis", s.handleComputeKPIs)
	r.Get("/api/downtime-reasons", s.handleDowntimeReasons)
	r.Get("/api/sensor-data", s.handleSensorData)

	return r
}

// userError marks an input error (missing/malformed parameter). Handlers
// map it to a 400; any other error is mapped to a 500 without further
// inspection.
type userError struct {
	msg string
}

func (e *userError) Error() string { return e.msg }

func newUserError(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}
