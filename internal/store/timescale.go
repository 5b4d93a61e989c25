package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleet-track/tracking/internal/config"
	"fleet-track/tracking/internal/domain"
)

// TimescaleStore is the durable side of the engine: the append-only fix
// archive, persisted alerts, and the vehicles registry table. It also
// implements FleetRegistry.
type TimescaleStore struct {
	pool *pgxpool.Pool
}

func NewTimescaleStore(ctx context.Context, cfg *config.Config) (*TimescaleStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &TimescaleStore{pool: pool}, nil
}

func (s *TimescaleStore) Close() {
	s.pool.Close()
}

func (s *TimescaleStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var fixColumns = []string{
	"timestamp",
	"received_at",
	"vehicle_id",
	"latitude",
	"longitude",
	"speed_kmh",
	"heading_deg",
	"accuracy_m",
	"altitude_m",
	"is_moving",
	"device_id",
	"battery_pct",
	"signal_strength",
}

// BatchInsert archives accepted fixes with one CopyFrom.
func (s *TimescaleStore) BatchInsert(ctx context.Context, fixes []*domain.AcceptedFix) error {
	if len(fixes) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(fixes))
	for i, af := range fixes {
		f := &af.Fix
		var battery interface{}
		if f.BatteryPct != nil {
			battery = *f.BatteryPct
		}
		var altitude interface{}
		if f.Altitude != nil {
			altitude = *f.Altitude
		}
		rows[i] = []interface{}{
			f.Timestamp,
			af.ReceivedAt,
			f.VehicleID,
			f.Latitude,
			f.Longitude,
			f.SpeedKmh,
			f.HeadingDeg,
			f.AccuracyM,
			altitude,
			af.IsMoving,
			f.DeviceID,
			battery,
			f.SignalStrength,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"vehicle_fixes"},
		fixColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(fixes), err)
	}

	return nil
}

func (s *TimescaleStore) InsertAlert(ctx context.Context, vehicleID string, a *domain.Alert) error {
	query := `
		INSERT INTO vehicle_alerts
			(alert_id, vehicle_id, alert_type, severity, message,
			 latitude, longitude, speed_kmh, triggered_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`
	_, err := s.pool.Exec(
		ctx,
		query,
		a.ID,
		vehicleID,
		string(a.Type),
		string(a.Severity),
		a.Message,
		a.Location.Latitude,
		a.Location.Longitude,
		a.Location.SpeedKmh,
		a.TriggeredAt,
	)
	return err
}

// Lookup implements FleetRegistry against the vehicles table.
func (s *TimescaleStore) Lookup(ctx context.Context, vehicleID string) (RegistryVehicle, error) {
	var v RegistryVehicle
	err := s.pool.QueryRow(ctx,
		`SELECT vehicle_id, vehicle_type FROM vehicles WHERE vehicle_id = $1`,
		vehicleID,
	).Scan(&v.ID, &v.VehicleType)
	if errors.Is(err, pgx.ErrNoRows) {
		return RegistryVehicle{}, domain.ErrVehicleNotFound
	}
	if err != nil {
		return RegistryVehicle{}, fmt.Errorf("registry lookup failed: %w", err)
	}
	return v, nil
}

// RefreshLastKnown is the denormalized mirror write on the vehicles
// table. It runs outside any transaction with the record update; the
// caller treats failure as non-fatal.
func (s *TimescaleStore) RefreshLastKnown(ctx context.Context, vehicleID string, lat, lon float64, ts time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE vehicles
		SET last_latitude = $2, last_longitude = $3, last_seen_at = $4
		WHERE vehicle_id = $1
	`, vehicleID, lat, lon, ts)
	if err != nil {
		return fmt.Errorf("last-known refresh failed: %w", err)
	}
	return nil
}
