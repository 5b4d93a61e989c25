package engine

import (
	"fleet-track/tracking/internal/alerts"
	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/metrics"
)

// AcknowledgeAlert stamps who acknowledged the alert and when. An
// unknown alert id is a no-op; an unknown vehicle is an error.
func (e *Engine) AcknowledgeAlert(vehicleID, alertID, userID string) error {
	return e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		alerts.Acknowledge(rec, alertID, userID, e.now())
	})
}

// ResolveAlert closes the alert, re-arming its rule. Unknown alert ids
// are a no-op.
func (e *Engine) ResolveAlert(vehicleID, alertID string) error {
	return e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		alerts.Resolve(rec, alertID, e.now())
	})
}

// RaiseAlert records an externally triggered alert (panic button,
// maintenance flag, route deviation reported by the trip collaborator).
func (e *Engine) RaiseAlert(vehicleID string, typ domain.AlertType, sev domain.AlertSeverity, message string) (domain.Alert, error) {
	var (
		a      domain.Alert
		raised bool
	)
	err := e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		a, raised = e.alerts.Raise(rec, typ, sev, message, e.now())
	})
	if err != nil {
		return domain.Alert{}, err
	}
	if raised {
		metrics.AlertsTriggered.Add(1)
		if e.sink != nil {
			e.sink.AcceptAlert(vehicleID, a)
		}
	}
	return a, nil
}

// SetRouteProgress stores the trip collaborator's progress snapshot on
// the record.
func (e *Engine) SetRouteProgress(vehicleID string, rp domain.RouteProgress) error {
	return e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		cp := rp
		rec.RouteProgress = &cp
	})
}
