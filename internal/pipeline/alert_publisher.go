package pipeline

import (
	"context"
	"log"

	"fleet-track/tracking/internal/store"
)

// AlertPublisher persists triggered alerts and fans them out on the
// fleet alerts channel. The Redis TTL dedup keeps several engine
// processes from publishing the same alert burst.
type AlertPublisher struct {
	ch    <-chan *AlertMessage
	db    *store.TimescaleStore
	redis *store.RedisStore
}

func NewAlertPublisher(
	ch <-chan *AlertMessage,
	db *store.TimescaleStore,
	redis *store.RedisStore,
) *AlertPublisher {
	return &AlertPublisher{ch: ch, db: db, redis: redis}
}

func (p *AlertPublisher) Run(ctx context.Context) {
	for {
		select {
		case msg, ok := <-p.ch:
			if !ok {
				return
			}
			p.publish(context.Background(), msg)

		case <-ctx.Done():
			return
		}
	}
}

func (p *AlertPublisher) publish(ctx context.Context, msg *AlertMessage) {
	isDuplicate, err := p.redis.CheckAlertDedup(ctx, msg.VehicleID, msg.Alert.Type)
	if err != nil {
		log.Printf("alert dedup check failed for %s/%s: %v", msg.VehicleID, msg.Alert.Type, err)
	} else if isDuplicate {
		return
	}

	if err := p.db.InsertAlert(ctx, msg.VehicleID, &msg.Alert); err != nil {
		log.Printf("alert insert failed for %s: %v", msg.VehicleID, err)
		return
	}

	if err := p.redis.SetAlertDedup(ctx, msg.VehicleID, msg.Alert.Type); err != nil {
		log.Printf("alert dedup set failed for %s: %v", msg.VehicleID, err)
	}

	if err := p.redis.PublishAlert(ctx, msg.VehicleID, &msg.Alert); err != nil {
		log.Printf("alert publish failed for %s: %v", msg.VehicleID, err)
	}
}
