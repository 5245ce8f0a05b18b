package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceStore mirrors recent logins into a Redis sorted set scored by expiry time.
// Postgres stays authoritative for users.status; this only feeds the online gauge.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

const presenceOnlineSet = "presence:online"

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetOnline marks a user as online until the TTL runs out. Repeated calls extend it.
func (p *PresenceStore) SetOnline(ctx context.Context, userID int64) error {
	expiresAt := p.now().Add(p.ttl).Unix()
	err := p.client.ZAdd(ctx, presenceOnlineSet, goredis.Z{
		Score:  float64(expiresAt),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
	if err != nil {
		observability.RedisErrors.WithLabelValues("presence_set").Inc()
		return err
	}
	return nil
}

// OnlineCount drops expired members and returns how many users are still online.
func (p *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	cutoff := strconv.FormatInt(p.now().Unix(), 10)

	pipe := p.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, presenceOnlineSet, "-inf", "("+cutoff)
	card := pipe.ZCard(ctx, presenceOnlineSet)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrors.WithLabelValues("presence_count").Inc()
		return 0, err
	}
	return card.Val(), nil
}

// OnlineGauge adapts OnlineCount to a prometheus GaugeFunc callback. Errors report 0.
func (p *PresenceStore) OnlineGauge(timeout time.Duration) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := p.OnlineCount(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	}
}
