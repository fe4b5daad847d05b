// Package simlib implements the discrete-event lifecycle simulator: the
// hardest of the two core components. It generates a causally consistent
// RUNNING/STOPPED event stream and downtime log for a fleet of machines from
// a small statistical parameter bundle.
package simlib

import (
	"fmt"
	"time"
)

// EventType is the kind of a MachineEvent.
type EventType string

const (
	EventStart EventType = "START"
	EventStop  EventType = "STOP"
	EventAlarm EventType = "ALARM"
)

// MachineEvent is a point-in-time transition or alarm for one machine.
type MachineEvent struct {
	EventID     int64
	Timestamp   time.Time
	EquipmentID string
	EventType   EventType
	Details     string
}

// DowntimeCategory classifies why a machine is stopped.
type DowntimeCategory string

const (
	CategoryPlannedMaintenance DowntimeCategory = "Planned Maintenance"
	CategoryUnplannedBreakdown DowntimeCategory = "Unplanned - Breakdown"
	CategoryUnplannedProcess   DowntimeCategory = "Unplanned - Process"
	CategoryChangeover         DowntimeCategory = "Changeover"
)

// IsUnplanned reports whether a category counts as unplanned downtime for
// availability, MTBF and MTTR purposes.
func (c DowntimeCategory) IsUnplanned() bool {
	return c == CategoryUnplannedBreakdown || c == CategoryUnplannedProcess
}

// DowntimeInterval is a half-open [StartTime, EndTime) window during which a
// machine was stopped, with its classified cause.
type DowntimeInterval struct {
	DowntimeID       int64
	EquipmentID      string
	StartTime        time.Time
	EndTime          time.Time
	DowntimeCategory DowntimeCategory
	DowntimeReason   string
}

// Duration returns EndTime - StartTime, clamped to zero.
func (d DowntimeInterval) Duration() time.Duration {
	dur := d.EndTime.Sub(d.StartTime)
	if dur < 0 {
		return 0
	}
	return dur
}

// InvariantError marks a simulator invariant violation. The simulator does
// not retry or recover from these; the caller is expected to abort the run.
type InvariantError struct {
	EquipmentID string
	Message     string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("simlib: invariant violated for %s: %s", e.EquipmentID, e.Message)
}

// Window is the [Start, End] horizon the simulator schedules events within.
// Unlike a KPI query window this is closed at End: an event timestamped
// exactly at End is still in scope (pruning discards timestamp > End).
type Window struct {
	Start time.Time
	End   time.Time
}
