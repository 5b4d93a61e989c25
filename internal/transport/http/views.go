package http

import (
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/engine"
	"fleet-track/tracking/internal/history"
)

type positionView struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AccuracyM   float64   `json:"accuracy_m"`
	SpeedKmh    float64   `json:"speed_kmh"`
	HeadingDeg  float64   `json:"heading_deg"`
	Altitude    *float64  `json:"altitude_m,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	IsMoving    bool      `json:"is_moving"`
}

type statisticsView struct {
	TotalDistanceKm float64   `json:"total_distance_km"`
	AverageSpeedKmh float64   `json:"average_speed_kmh"`
	MaxSpeedKmh     float64   `json:"max_speed_kmh"`
	IdleMinutes     float64   `json:"idle_minutes"`
	LastCalculated  time.Time `json:"last_calculated"`
}

type alertView struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	TriggeredAt    time.Time  `json:"triggered_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

type recordView struct {
	VehicleID     string         `json:"vehicle_id"`
	VehicleType   string         `json:"vehicle_type,omitempty"`
	Current       positionView   `json:"current_position"`
	HistoryLength int            `json:"history_length"`
	Statistics    statisticsView `json:"statistics"`
	Alerts        []alertView    `json:"alerts,omitempty"`
	IsOnline      bool           `json:"is_online"`
	Freshness     string         `json:"freshness"`
	LastHeartbeat time.Time      `json:"last_heartbeat"`
}

type historyEntryView struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh"`
	HeadingDeg float64   `json:"heading_deg"`
	Altitude   *float64  `json:"altitude_m,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Quality    string    `json:"quality"`
}

type nearbyView struct {
	Fallback bool             `json:"fallback"`
	Vehicles []nearbyItemView `json:"vehicles"`
}

type nearbyItemView struct {
	recordView
	DistanceM float64 `json:"distance_m"`
}

func viewRecord(rec *domain.LocationRecord, now time.Time) recordView {
	v := recordView{
		VehicleID:   rec.VehicleID,
		VehicleType: rec.VehicleType,
		Current: positionView{
			Latitude:    rec.Current.Latitude,
			Longitude:   rec.Current.Longitude,
			AccuracyM:   rec.Current.AccuracyM,
			SpeedKmh:    rec.Current.SpeedKmh,
			HeadingDeg:  rec.Current.HeadingDeg,
			Altitude:    rec.Current.Altitude,
			LastUpdated: rec.Current.LastUpdated,
			IsMoving:    rec.Current.IsMoving,
		},
		HistoryLength: rec.History.Len(),
		Statistics: statisticsView{
			TotalDistanceKm: rec.Stats.TotalDistanceKm,
			AverageSpeedKmh: rec.Stats.AverageSpeedKmh,
			MaxSpeedKmh:     rec.Stats.MaxSpeedKmh,
			IdleMinutes:     rec.Stats.IdleMinutes,
			LastCalculated:  rec.Stats.LastCalculated,
		},
		IsOnline:      rec.IsOnline,
		Freshness:     string(domain.LocationFreshness(rec, now)),
		LastHeartbeat: rec.LastHeartbeat,
	}
	for _, a := range rec.Alerts {
		v.Alerts = append(v.Alerts, alertView{
			ID:             a.ID,
			Type:           string(a.Type),
			Severity:       string(a.Severity),
			Message:        a.Message,
			TriggeredAt:    a.TriggeredAt,
			AcknowledgedAt: a.AcknowledgedAt,
			AcknowledgedBy: a.AcknowledgedBy,
			Resolved:       a.Resolved,
			ResolvedAt:     a.ResolvedAt,
		})
	}
	return v
}

func viewHistory(entries []history.Entry) []historyEntryView {
	out := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryView{
			Latitude:   e.Latitude,
			Longitude:  e.Longitude,
			SpeedKmh:   e.SpeedKmh,
			HeadingDeg: e.HeadingDeg,
			Altitude:   e.Altitude,
			Timestamp:  e.Timestamp,
			Source:     e.Source,
			Quality:    e.Quality,
		})
	}
	return out
}

func viewNearby(res *engine.NearbyResult, now time.Time) nearbyView {
	v := nearbyView{Fallback: res.Fallback, Vehicles: []nearbyItemView{}}
	for _, n := range res.Vehicles {
		v.Vehicles = append(v.Vehicles, nearbyItemView{
			recordView: viewRecord(n.Record, now),
			DistanceM:  n.DistanceM,
		})
	}
	return v
}
