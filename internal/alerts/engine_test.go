package alerts

import (
	"testing"
	"time"

	"fleet-track/tracking/internal/domain"
)

var now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func speedingRecord(speed float64) *domain.LocationRecord {
	rec := domain.NewLocationRecord("V1")
	rec.Current.SpeedKmh = speed
	rec.Current.Latitude = 6.9271
	rec.Current.Longitude = 79.8612
	rec.Current.LastUpdated = now
	return rec
}

func TestEvaluateTriggersSpeeding(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(100)

	triggered := e.Evaluate(rec, now)
	if len(triggered) != 1 || triggered[0].Type != domain.AlertSpeeding {
		t.Fatalf("triggered = %+v", triggered)
	}

	a := rec.Alerts[0]
	if a.ID == "" || a.Severity != domain.SeverityHigh {
		t.Fatalf("alert = %+v", a)
	}
	if a.Location.Latitude != 6.9271 || a.Location.SpeedKmh != 100 {
		t.Fatalf("snapshot = %+v", a.Location)
	}
}

func TestEvaluateAtLimitDoesNotTrigger(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(80) // limit is strict >
	if triggered := e.Evaluate(rec, now); len(triggered) != 0 {
		t.Fatalf("triggered at limit: %+v", triggered)
	}
}

func TestEvaluateDedupsOpenAlerts(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(100)

	e.Evaluate(rec, now)
	e.Evaluate(rec, now.Add(time.Minute))
	if len(rec.Alerts) != 1 {
		t.Fatalf("open alert duplicated: %d alerts", len(rec.Alerts))
	}

	// Resolving re-arms the rule.
	Resolve(rec, rec.Alerts[0].ID, now.Add(2*time.Minute))
	e.Evaluate(rec, now.Add(3*time.Minute))
	if len(rec.Alerts) != 2 {
		t.Fatalf("resolved rule did not re-arm: %d alerts", len(rec.Alerts))
	}
}

func TestAcknowledgeLifecycle(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(100)
	e.Evaluate(rec, now)
	id := rec.Alerts[0].ID

	if !Acknowledge(rec, id, "dispatcher-7", now.Add(time.Minute)) {
		t.Fatal("acknowledge returned false for known alert")
	}
	a := rec.Alerts[0]
	if a.AcknowledgedAt == nil || a.AcknowledgedBy != "dispatcher-7" {
		t.Fatalf("ack not recorded: %+v", a)
	}

	// A second acknowledge keeps the original stamp.
	Acknowledge(rec, id, "someone-else", now.Add(time.Hour))
	if rec.Alerts[0].AcknowledgedBy != "dispatcher-7" {
		t.Fatalf("ack overwritten: %+v", rec.Alerts[0])
	}

	if !Resolve(rec, id, now.Add(2*time.Minute)) {
		t.Fatal("resolve returned false for known alert")
	}
	if !rec.Alerts[0].Resolved || rec.Alerts[0].ResolvedAt == nil {
		t.Fatalf("resolve not recorded: %+v", rec.Alerts[0])
	}
}

func TestUnknownAlertIDIsNoop(t *testing.T) {
	rec := speedingRecord(100)
	if Acknowledge(rec, "no-such-id", "u", now) {
		t.Fatal("acknowledge of unknown id returned true")
	}
	if Resolve(rec, "no-such-id", now) {
		t.Fatal("resolve of unknown id returned true")
	}
}

func TestRaiseRespectsOpenInvariant(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(0)

	a, ok := e.Raise(rec, domain.AlertPanic, domain.SeverityCritical, "panic button", now)
	if !ok || a.Type != domain.AlertPanic {
		t.Fatalf("raise failed: %+v ok=%v", a, ok)
	}
	if _, ok := e.Raise(rec, domain.AlertPanic, domain.SeverityCritical, "again", now); ok {
		t.Fatal("duplicate open panic alert raised")
	}

	Resolve(rec, a.ID, now.Add(time.Minute))
	if _, ok := e.Raise(rec, domain.AlertPanic, domain.SeverityCritical, "again", now.Add(2*time.Minute)); !ok {
		t.Fatal("raise after resolve failed")
	}
}

func TestLowBatteryRule(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(0)
	rec.Device.DeviceID = "dev-1"
	rec.Device.BatteryPct = 10

	triggered := e.Evaluate(rec, now)
	if len(triggered) != 1 || triggered[0].Type != domain.AlertLowBattery {
		t.Fatalf("triggered = %+v", triggered)
	}
}

func TestIdleTimeoutRule(t *testing.T) {
	e := New(domain.DefaultRuleThresholds())
	rec := speedingRecord(0)
	rec.Current.IsMoving = false
	rec.Stats.IdleMinutes = 45

	triggered := e.Evaluate(rec, now)
	if len(triggered) != 1 || triggered[0].Type != domain.AlertIdleTimeout {
		t.Fatalf("triggered = %+v", triggered)
	}
}
