package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const onlineOfficersKey = "online_officers"

// Presence tracks which officers currently hold an open session.
type Presence struct {
	Redis *redis.Client
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{Redis: rdb}
}

// MarkOnline adds the officer to the online set.
func (p *Presence) MarkOnline(ctx context.Context, officerID string) error {
	return p.Redis.SAdd(ctx, onlineOfficersKey, officerID).Err()
}

func (p *Presence) MarkOffline(ctx context.Context, officerID string) error {
	return p.Redis.SRem(ctx, onlineOfficersKey, officerID).Err()
}

// Online returns the ids of every officer with an open session.
func (p *Presence) Online(ctx context.Context) ([]string, error) {
	return p.Redis.SMembers(ctx, onlineOfficersKey).Result()
}
