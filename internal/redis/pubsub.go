package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SpotsPubSub propagates spot transitions between instances. Messages
// carry only the spot id and the kind of change; receivers re-read the
// row before fanning out, so a delayed message never delivers a stale
// snapshot.
type SpotsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSpotsPubSub(rdb *redis.Client) *SpotsPubSub {
	return &SpotsPubSub{
		rdb:     rdb,
		channel: ChannelSpotsChanged(),
	}
}

type spotChangedMsg struct {
	Type   string `json:"type"`
	SpotID string `json:"spot_id"`
	Change string `json:"change"`
	TsUnix int64  `json:"ts_unix"`
}

func (p *SpotsPubSub) PublishSpotChanged(ctx context.Context, spotID uuid.UUID, change domain.ChangeKind) error {
	msg := spotChangedMsg{
		Type:   "spot_changed",
		SpotID: spotID.String(),
		Change: string(change),
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *SpotsPubSub) Subscribe(
	ctx context.Context,
	handler func(ctx context.Context, spotID uuid.UUID, change domain.ChangeKind),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg spotChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			id, err := uuid.Parse(msg.SpotID)
			if err != nil {
				continue
			}
			handler(ctx, id, domain.ChangeKind(msg.Change))
		}
	}
}
