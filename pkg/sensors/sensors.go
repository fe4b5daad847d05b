// Package sensors emits periodic sensor readings for every machine, with
// values trending toward failure-related anomalies in the window preceding
// a causally linked unplanned stop.
package sensors

import (
	"math"
	"sort"
	"time"

	"github.com/flowforge/oee-sim/internal/randutil"
	"github.com/flowforge/oee-sim/pkg/simlib"
)

// Reading is one periodic sensor sample.
type Reading struct {
	Timestamp   time.Time
	EquipmentID string
	SensorType  string
	Value       float64
	Unit        string
}

// Generate emits readings at params.SensorFrequencySeconds across win for
// every (machine, sensor_type) pair in params.SensorProfiles. downtime must
// be the single authoritative downtime log produced by simlib.Run — this
// function never re-derives causes from the event stream.
func Generate(equipmentIDs []string, downtime []simlib.DowntimeInterval, win simlib.Window, params *simlib.Params, rng *randutil.Source) ([]Reading, error) {
	byMachine := make(map[string][]simlib.DowntimeInterval)
	for _, d := range downtime {
		byMachine[d.EquipmentID] = append(byMachine[d.EquipmentID], d)
	}
	for eq := range byMachine {
		sort.Slice(byMachine[eq], func(i, j int) bool {
			return byMachine[eq][i].StartTime.Before(byMachine[eq][j].StartTime)
		})
	}

	sensorTypes := make([]string, 0, len(params.SensorProfiles))
	for st := range params.SensorProfiles {
		sensorTypes = append(sensorTypes, st)
	}
	sort.Strings(sensorTypes)

	freq := time.Duration(params.SensorFrequencySeconds * float64(time.Second))
	if freq <= 0 {
		freq = 30 * time.Second
	}

	var out []Reading
	for _, eq := range equipmentIDs {
		machineDowntime := byMachine[eq]
		for _, st := range sensorTypes {
			profile := params.SensorProfiles[st]
			for ts := win.Start; ts.Before(win.End); ts = ts.Add(freq) {
				value := rng.Normal(profile.Base, profile.NoiseStd)
				value += trendDelta(ts, profile, machineDowntime, params.AlarmPreTrendWindowHours)
				if value < 0 {
					value = 0
				}
				out = append(out, Reading{
					Timestamp:   ts,
					EquipmentID: eq,
					SensorType:  st,
					Value:       value,
					Unit:        profile.Unit,
				})
			}
		}
	}
	return out, nil
}

// trendDelta finds the first unplanned downtime interval whose
// (category, reason) matches the profile and whose pre-trend window
// contains ts, and returns the signed contribution to add to the base
// reading. Only the first match wins.
func trendDelta(ts time.Time, profile simlib.SensorProfile, machineDowntime []simlib.DowntimeInterval, preTrendHours float64) float64 {
	if profile.RelatedDowntimeCategory == "" {
		return 0
	}
	windowLen := time.Duration(preTrendHours * float64(time.Hour))
	for _, d := range machineDowntime {
		if d.DowntimeCategory != profile.RelatedDowntimeCategory || d.DowntimeReason != profile.RelatedDowntimeReason {
			continue
		}
		windowStart := d.StartTime.Add(-windowLen)
		if ts.Before(windowStart) || !ts.Before(d.StartTime) {
			continue
		}
		progress := ts.Sub(windowStart).Hours() / (windowLen.Hours())
		switch profile.TrendType {
		case "exponential":
			return math.Pow(progress, 2) * profile.TrendStrength
		default: // "linear"
			return progress * profile.TrendStrength
		}
	}
	return 0
}
