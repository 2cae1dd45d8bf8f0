package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

// SummaryCache keeps recently finished session summaries hot so the report
// endpoint doesn't have to hit MongoDB for sessions that just ended.
type SummaryCache interface {
	Set(ctx context.Context, summary *model.SessionSummary) error
	Get(ctx context.Context, roomID int64) (*model.SessionSummary, error)
}

type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	return &summaryCache{client: client, ttl: ttl}
}

func (c *summaryCache) key(roomID int64) string {
	return fmt.Sprintf("summary:%d", roomID)
}

func (c *summaryCache) Set(ctx context.Context, summary *model.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(summary.RoomID), data, c.ttl).Err()
}

func (c *summaryCache) Get(ctx context.Context, roomID int64) (*model.SessionSummary, error) {
	data, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary model.SessionSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
