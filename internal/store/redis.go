package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-track/tracking/internal/config"
	"fleet-track/tracking/internal/domain"
)

// RedisStore mirrors live vehicle state for dashboards and carries alert
// fan-out. The geo set itself is owned by spatial.RedisIndex.
type RedisStore struct {
	client  *redis.Client
	fleetID string
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, fleetID: cfg.FleetID}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// PipelineStateUpdate writes the vehicle's live state hash and publishes
// the update on the fleet positions channel in one round trip.
func (r *RedisStore) PipelineStateUpdate(ctx context.Context, af *domain.AcceptedFix) error {
	f := &af.Fix
	stateData := map[string]interface{}{
		"vehicle_id":  f.VehicleID,
		"lat":         f.Latitude,
		"lng":         f.Longitude,
		"speed_kmh":   f.SpeedKmh,
		"heading":     f.HeadingDeg,
		"accuracy_m":  f.AccuracyM,
		"is_moving":   af.IsMoving,
		"timestamp":   f.Timestamp.Unix(),
		"received_at": af.ReceivedAt.Unix(),
	}
	if f.BatteryPct != nil {
		stateData["battery_pct"] = *f.BatteryPct
	}

	pubPayload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	vehicleStateKey := fmt.Sprintf("vehicle:%s:state", f.VehicleID)
	pubChannel := fmt.Sprintf("fleet:%s:positions", r.fleetID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, vehicleStateKey, stateData)
	pipe.Expire(ctx, vehicleStateKey, 5*time.Minute)
	pipe.Publish(ctx, pubChannel, pubPayload)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// CheckAlertDedup reports whether an alert of this type fired recently
// for the vehicle, across all engine processes.
func (r *RedisStore) CheckAlertDedup(ctx context.Context, vehicleID string, alertType domain.AlertType) (bool, error) {
	key := fmt.Sprintf("alert:%s:%s", vehicleID, string(alertType))
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) SetAlertDedup(ctx context.Context, vehicleID string, alertType domain.AlertType) error {
	key := fmt.Sprintf("alert:%s:%s", vehicleID, string(alertType))
	return r.client.Set(ctx, key, "1", 5*time.Minute).Err()
}

func (r *RedisStore) PublishAlert(ctx context.Context, vehicleID string, a *domain.Alert) error {
	payload, err := json.Marshal(map[string]interface{}{
		"vehicle_id":   vehicleID,
		"alert_id":     a.ID,
		"alert_type":   string(a.Type),
		"severity":     string(a.Severity),
		"message":      a.Message,
		"lat":          a.Location.Latitude,
		"lng":          a.Location.Longitude,
		"triggered_at": a.TriggeredAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	channel := fmt.Sprintf("fleet:%s:alerts", r.fleetID)
	return r.client.Publish(ctx, channel, payload).Err()
}
