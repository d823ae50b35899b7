// Package directory exposes the gateway's contact/group list with a
// short-lived Redis cache in front of it to bound gateway call volume.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
)

type Lister interface {
	ListTargets(ctx context.Context) ([]model.Target, error)
}

const targetsKey = "directory:targets"

type CachedDirectory struct {
	upstream Lister
	rdb      *redis.Client
	ttl      time.Duration
}

// NewCachedDirectory wraps upstream with a Redis cache. Entries stay
// fresh for ttl; cache failures fall through to the upstream so a
// broken Redis never breaks directory lookups.
func NewCachedDirectory(upstream Lister, rdb *redis.Client, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedDirectory{upstream: upstream, rdb: rdb, ttl: ttl}
}

func (d *CachedDirectory) ListTargets(ctx context.Context) ([]model.Target, error) {
	raw, err := d.rdb.Get(ctx, targetsKey).Bytes()
	if err == nil {
		var targets []model.Target
		if err := json.Unmarshal(raw, &targets); err == nil {
			return targets, nil
		}
		slog.Warn("directory cache holds undecodable payload, refreshing", "key", targetsKey)
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("directory cache read failed", "error", err)
	}

	targets, err := d.upstream.ListTargets(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(targets); err == nil {
		if err := d.rdb.Set(ctx, targetsKey, b, d.ttl).Err(); err != nil {
			slog.Warn("directory cache write failed", "error", err)
		}
	}

	return targets, nil
}
