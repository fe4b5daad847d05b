package simlib

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MTTRMeans holds the mean time-to-repair, in hours, for each downtime
// category.
type MTTRMeans struct {
	BreakdownHours   float64 `yaml:"breakdown_hours"`
	ProcessHours     float64 `yaml:"process_hours"`
	ChangeoverHours  float64 `yaml:"changeover_hours"`
	MaintenanceHours float64 `yaml:"maintenance_hours"`
}

// SensorProfile describes one simulated sensor channel: its baseline noise
// model and, optionally, the downtime category/reason it trends toward in
// the pre-failure window.
type SensorProfile struct {
	Base                    float64          `yaml:"base"`
	NoiseStd                float64          `yaml:"noise_std"`
	Unit                    string           `yaml:"unit"`
	TrendType               string           `yaml:"trend_type"` // "linear" or "exponential"
	TrendStrength           float64          `yaml:"trend_strength"`
	RelatedDowntimeCategory DowntimeCategory `yaml:"related_downtime_category"`
	RelatedDowntimeReason   string           `yaml:"related_downtime_reason"`
}

// Params is the full statistical parameter bundle driving a simulation run:
// the MTBF/MTTR means, the cause-classification probability cascade, the
// downtime reason catalog, and the sensor profile catalog.
type Params struct {
	AvgMTBFHours           float64                       `yaml:"avg_mtbf_hours"`
	AvgMTTRHours           MTTRMeans                     `yaml:"avg_mttr_hours"`
	ProbStopIsPlannedMaint float64                       `yaml:"prob_stop_is_planned_maint"`
	ProbChangeover         float64                       `yaml:"prob_changeover"`
	ProbBreakdownIsProcess float64                       `yaml:"prob_breakdown_is_process"`
	DowntimeReasons        map[DowntimeCategory][]string `yaml:"downtime_reasons"`
	SensorProfiles         map[string]SensorProfile      `yaml:"sensor_profiles"`

	AlarmPreTrendWindowHours  float64 `yaml:"alarm_pre_trend_window_hours"`
	PerfMean                  float64 `yaml:"perf_mean"`
	PerfStd                   float64 `yaml:"perf_std"`
	PerfDropWindowHours       float64 `yaml:"perf_drop_window_hours"`
	PerfDropFactor            float64 `yaml:"perf_drop_factor"`
	QualityRejectWindowHours  float64 `yaml:"quality_reject_window_hours"`
	BaseRejectRate            float64 `yaml:"base_reject_rate"`
	RejectRateIncrease        float64 `yaml:"reject_rate_increase"`
	SensorFrequencySeconds    float64 `yaml:"sensor_frequency_seconds"`
}

// defaultParamsYAML mirrors the teacher's embedded-default-then-override
// pattern (lib/viewer's view_defaults.go): a compiled-in YAML document
// parsed once, with LoadParams layering a file's non-zero fields over it.
const defaultParamsYAML = `
avg_mtbf_hours: 120
avg_mttr_hours:
  breakdown_hours: 4
  process_hours: 2
  changeover_hours: 0.75
  maintenance_hours: 3
prob_stop_is_planned_maint: 0.15
prob_changeover: 0.25
prob_breakdown_is_process: 0.4
alarm_pre_trend_window_hours: 8
perf_mean: 0.95
perf_std: 0.05
perf_drop_window_hours: 2
perf_drop_factor: 0.3
quality_reject_window_hours: 1
base_reject_rate: 0.02
reject_rate_increase: 0.08
sensor_frequency_seconds: 30
downtime_reasons:
  "Planned Maintenance":
    - "Scheduled PM"
    - "Lubrication"
    - "Calibration"
  "Unplanned - Breakdown":
    - "Motor Failure"
    - "Bearing Seizure"
    - "Electrical Fault"
  "Unplanned - Process":
    - "Material Jam"
    - "Sensor Misalignment"
    - "Feed Fault"
  "Changeover":
    - "Product Changeover"
sensor_profiles:
  temperature_c:
    base: 65
    noise_std: 2.0
    unit: "C"
    trend_type: "linear"
    trend_strength: 25
    related_downtime_category: "Unplanned - Breakdown"
    related_downtime_reason: "Motor Failure"
  vibration_mm_s:
    base: 1.5
    noise_std: 0.2
    unit: "mm/s"
    trend_type: "exponential"
    trend_strength: 6
    related_downtime_category: "Unplanned - Breakdown"
    related_downtime_reason: "Bearing Seizure"
  pressure_bar:
    base: 6.0
    noise_std: 0.3
    unit: "bar"
    trend_type: "linear"
    trend_strength: -2.5
    related_downtime_category: "Unplanned - Process"
    related_downtime_reason: "Material Jam"
  current_amps:
    base: 12.0
    noise_std: 0.5
    unit: "A"
    trend_type: "linear"
    trend_strength: 4
    related_downtime_category: "Unplanned - Process"
    related_downtime_reason: "Feed Fault"
`

// DefaultParams parses the package-embedded default parameter bundle.
func DefaultParams() (*Params, error) {
	var p Params
	if err := yaml.Unmarshal([]byte(defaultParamsYAML), &p); err != nil {
		return nil, fmt.Errorf("simlib: parse default params: %w", err)
	}
	return &p, nil
}

// LoadParams reads a YAML file and merges it over DefaultParams: any
// zero-valued scalar field in the override falls back to the default, and
// map fields present in the override replace the default map wholesale.
func LoadParams(path string) (*Params, error) {
	def, err := DefaultParams()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simlib: read params file %s: %w", path, err)
	}
	var override Params
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("simlib: parse params file %s: %w", path, err)
	}
	mergeParams(def, &override)
	return def, nil
}

func mergeParams(base, override *Params) {
	if override.AvgMTBFHours != 0 {
		base.AvgMTBFHours = override.AvgMTBFHours
	}
	if override.AvgMTTRHours.BreakdownHours != 0 {
		base.AvgMTTRHours.BreakdownHours = override.AvgMTTRHours.BreakdownHours
	}
	if override.AvgMTTRHours.ProcessHours != 0 {
		base.AvgMTTRHours.ProcessHours = override.AvgMTTRHours.ProcessHours
	}
	if override.AvgMTTRHours.ChangeoverHours != 0 {
		base.AvgMTTRHours.ChangeoverHours = override.AvgMTTRHours.ChangeoverHours
	}
	if override.AvgMTTRHours.MaintenanceHours != 0 {
		base.AvgMTTRHours.MaintenanceHours = override.AvgMTTRHours.MaintenanceHours
	}
	if override.ProbStopIsPlannedMaint != 0 {
		base.ProbStopIsPlannedMaint = override.ProbStopIsPlannedMaint
	}
	if override.ProbChangeover != 0 {
		base.ProbChangeover = override.ProbChangeover
	}
	if override.ProbBreakdownIsProcess != 0 {
		base.ProbBreakdownIsProcess = override.ProbBreakdownIsProcess
	}
	if override.AlarmPreTrendWindowHours != 0 {
		base.AlarmPreTrendWindowHours = override.AlarmPreTrendWindowHours
	}
	if override.PerfMean != 0 {
		base.PerfMean = override.PerfMean
	}
	if override.PerfStd != 0 {
		base.PerfStd = override.PerfStd
	}
	if override.PerfDropWindowHours != 0 {
		base.PerfDropWindowHours = override.PerfDropWindowHours
	}
	if override.PerfDropFactor != 0 {
		base.PerfDropFactor = override.PerfDropFactor
	}
	if override.QualityRejectWindowHours != 0 {
		base.QualityRejectWindowHours = override.QualityRejectWindowHours
	}
	if override.BaseRejectRate != 0 {
		base.BaseRejectRate = override.BaseRejectRate
	}
	if override.RejectRateIncrease != 0 {
		base.RejectRateIncrease = override.RejectRateIncrease
	}
	if override.SensorFrequencySeconds != 0 {
		base.SensorFrequencySeconds = override.SensorFrequencySeconds
	}
	if len(override.DowntimeReasons) > 0 {
		base.DowntimeReasons = override.DowntimeReasons
	}
	if len(override.SensorProfiles) > 0 {
		base.SensorProfiles = override.SensorProfiles
	}
}
