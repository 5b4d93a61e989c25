package alerts

import (
	"time"

	"github.com/google/uuid"

	"fleet-track/tracking/internal/domain"
)

// Engine evaluates alert rules against a freshly updated record. The
// caller holds the record's lock for the duration of a call.
type Engine struct {
	rules []domain.AlertRule
	th    domain.RuleThresholds
}

func New(th domain.RuleThresholds) *Engine {
	return &Engine{rules: domain.DefaultAlertRules, th: th}
}

// Evaluate runs every rule and appends an alert for each one that fires.
// At most one unresolved alert per type may exist on a record; a rule
// firing while its previous alert is still open is a no-op. Returns the
// newly triggered alerts.
func (e *Engine) Evaluate(rec *domain.LocationRecord, now time.Time) []domain.Alert {
	var triggered []domain.Alert
	for _, rule := range e.rules {
		if !rule.Evaluator(rec, e.th) {
			continue
		}
		if hasOpen(rec, rule.Type) {
			continue
		}
		a := newAlert(rec, rule.Type, rule.Severity, rule.Message(rec, e.th), now)
		rec.Alerts = append(rec.Alerts, a)
		triggered = append(triggered, a)
	}
	return triggered
}

// Raise appends an externally triggered alert (panic, maintenance,
// route-deviation) with the same one-open-per-type invariant.
func (e *Engine) Raise(rec *domain.LocationRecord, typ domain.AlertType, sev domain.AlertSeverity, message string, now time.Time) (domain.Alert, bool) {
	if hasOpen(rec, typ) {
		return domain.Alert{}, false
	}
	a := newAlert(rec, typ, sev, message, now)
	rec.Alerts = append(rec.Alerts, a)
	return a, true
}

// Acknowledge stamps the alert; an unknown id is a no-op.
func Acknowledge(rec *domain.LocationRecord, alertID, userID string, now time.Time) bool {
	for i := range rec.Alerts {
		if rec.Alerts[i].ID != alertID {
			continue
		}
		if rec.Alerts[i].AcknowledgedAt == nil {
			t := now
			rec.Alerts[i].AcknowledgedAt = &t
			rec.Alerts[i].AcknowledgedBy = userID
		}
		return true
	}
	return false
}

// Resolve closes the alert, re-arming its rule. Unknown ids and already
// resolved alerts are no-ops.
func Resolve(rec *domain.LocationRecord, alertID string, now time.Time) bool {
	for i := range rec.Alerts {
		if rec.Alerts[i].ID != alertID {
			continue
		}
		if !rec.Alerts[i].Resolved {
			t := now
			rec.Alerts[i].Resolved = true
			rec.Alerts[i].ResolvedAt = &t
		}
		return true
	}
	return false
}

func hasOpen(rec *domain.LocationRecord, typ domain.AlertType) bool {
	for i := range rec.Alerts {
		if rec.Alerts[i].Type == typ && !rec.Alerts[i].Resolved {
			return true
		}
	}
	return false
}

func newAlert(rec *domain.LocationRecord, typ domain.AlertType, sev domain.AlertSeverity, message string, now time.Time) domain.Alert {
	return domain.Alert{
		ID:          uuid.NewString(),
		Type:        typ,
		Severity:    sev,
		Message:     message,
		TriggeredAt: now,
		Location: domain.AlertSnapshot{
			Latitude:  rec.Current.Latitude,
			Longitude: rec.Current.Longitude,
			SpeedKmh:  rec.Current.SpeedKmh,
			Timestamp: rec.Current.LastUpdated,
		},
	}
}
