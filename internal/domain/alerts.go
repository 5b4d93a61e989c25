package domain

import (
	"fmt"
	"time"
)

type AlertType string

const (
	AlertSpeeding       AlertType = "SPEEDING"
	AlertIdleTimeout    AlertType = "IDLE_TIMEOUT"
	AlertRouteDeviation AlertType = "ROUTE_DEVIATION"
	AlertPanic          AlertType = "PANIC"
	AlertMaintenance    AlertType = "MAINTENANCE"
	AlertLowBattery     AlertType = "LOW_BATTERY"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertSnapshot is the position captured at the moment a rule fired.
type AlertSnapshot struct {
	Latitude  float64
	Longitude float64
	SpeedKmh  float64
	Timestamp time.Time
}

// Alert is one triggered rule instance on a record. Lifecycle:
// triggered -> acknowledged -> resolved.
type Alert struct {
	ID             string
	Type           AlertType
	Severity       AlertSeverity
	Message        string
	TriggeredAt    time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy string
	Resolved       bool
	ResolvedAt     *time.Time
	Location       AlertSnapshot
}

// RuleThresholds are the tunable limits rule evaluators read.
type RuleThresholds struct {
	SpeedLimitKmh float64
	IdleLimitMin  float64
	LowBatteryPct float64
}

// AlertRule evaluates the freshly updated record after each ingestion.
type AlertRule struct {
	Type      AlertType
	Severity  AlertSeverity
	Message   func(rec *LocationRecord, th RuleThresholds) string
	Evaluator func(rec *LocationRecord, th RuleThresholds) bool
}

func DefaultRuleThresholds() RuleThresholds {
	return RuleThresholds{
		SpeedLimitKmh: 80.0,
		IdleLimitMin:  30.0,
		LowBatteryPct: 15.0,
	}
}

// DefaultAlertRules are the rules evaluated on every ingestion. Panic,
// maintenance and route-deviation alerts come from external callers and
// have no ingestion-side evaluator.
var DefaultAlertRules = []AlertRule{
	{
		Type:     AlertSpeeding,
		Severity: SeverityHigh,
		Evaluator: func(rec *LocationRecord, th RuleThresholds) bool {
			return rec.Current.SpeedKmh > th.SpeedLimitKmh
		},
		Message: func(rec *LocationRecord, th RuleThresholds) string {
			return fmt.Sprintf("speed %.1f km/h exceeds limit %.0f km/h",
				rec.Current.SpeedKmh, th.SpeedLimitKmh)
		},
	},
	{
		Type:     AlertIdleTimeout,
		Severity: SeverityMedium,
		Evaluator: func(rec *LocationRecord, th RuleThresholds) bool {
			return !rec.Current.IsMoving && rec.Stats.IdleMinutes > th.IdleLimitMin
		},
		Message: func(rec *LocationRecord, th RuleThresholds) string {
			return fmt.Sprintf("idle for %.0f min, limit %.0f min",
				rec.Stats.IdleMinutes, th.IdleLimitMin)
		},
	},
	{
		Type:     AlertLowBattery,
		Severity: SeverityMedium,
		Evaluator: func(rec *LocationRecord, th RuleThresholds) bool {
			return rec.Device.DeviceID != "" && rec.Device.BatteryPct > 0 &&
				rec.Device.BatteryPct < th.LowBatteryPct
		},
		Message: func(rec *LocationRecord, th RuleThresholds) string {
			return fmt.Sprintf("battery at %.0f%%, threshold %.0f%%",
				rec.Device.BatteryPct, th.LowBatteryPct)
		},
	},
}
