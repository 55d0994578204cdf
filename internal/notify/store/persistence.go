// internal/notify/store/persistence.go
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"notification-pipeline/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// stateKeyPrefix matches the fixed storage key the web client used, scoped
// per user. No expiry, no versioning.
const stateKeyPrefix = "notifications:state"

// RedisPersister stores the snapshot as a JSON string in redis.
type RedisPersister struct {
	rdb    *database.RedisClient
	userID string
}

func NewRedisPersister(rdb *database.RedisClient, userID string) *RedisPersister {
	return &RedisPersister{rdb: rdb, userID: userID}
}

func (p *RedisPersister) key() string {
	return fmt.Sprintf("%s:%s", stateKeyPrefix, p.userID)
}

func (p *RedisPersister) Save(ctx context.Context, s Snapshot) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.rdb.Set(ctx, p.key(), encoded, 0); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func (p *RedisPersister) Load(ctx context.Context) (Snapshot, bool, error) {
	raw, err := p.rdb.Get(ctx, p.key())
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
