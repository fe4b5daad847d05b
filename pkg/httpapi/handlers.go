package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/oee-sim/pkg/interval"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func (s *Server) handleListEquipments(w http.ResponseWriter, r *http.Request) {
	equipment, err := s.Equipment.ListEquipment(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, equipment)
}

func (s *Server) handleComputeKPIs(w http.ResponseWriter, r *http.Request) {
	win, equipmentID, err := parseWindow(r, dateLayout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.Engine.Compute(r.Context(), win, equipmentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDowntimeReasons(w http.ResponseWriter, r *http.Request) {
	win, equipmentID, err := parseWindow(r, dateLayout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.Reasons.Compute(r.Context(), win, equipmentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	win, equipmentID, err := parseWindow(r, dateTimeLayout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sensorType := r.URL.Query().Get("sensor_type")

	readings, err := s.Sensors.GetSensorReadings(r.Context(), win.Start, win.End, equipmentID, sensorType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, readings)
}

// parseWindow parses start_date/end_date (in layout) and the optional
// equipment_id query params shared by the three date-scoped endpoints.
func parseWindow(r *http.Request, layout string) (interval.Window, string, error) {
	q := r.URL.Query()
	startStr := q.Get("start_date")
	endStr := q.Get("end_date")
	if startStr == "" || endStr == "" {
		return interval.Window{}, "", newUserError("start_date and end_date are required")
	}
	start, err := time.Parse(layout, startStr)
	if err != nil {
		return interval.Window{}, "", newUserError("start_date %q is not a valid date: %v", startStr, err)
	}
	end, err := time.Parse(layout, endStr)
	if err != nil {
		return interval.Window{}, "", newUserError("end_date %q is not a valid date: %v", endStr, err)
	}
	return interval.Window{Start: start, End: end}, q.Get("equipment_id"), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.Log != nil {
		s.Log.Warn("httpapi: failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var uerr *userError
	if errors.As(err, &uerr) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": uerr.Error()})
		return
	}
	if s.Log != nil {
		s.Log.Error("httpapi: store error", zap.Error(err), zap.String("path", r.URL.Path))
	}
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
