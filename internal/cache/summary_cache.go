package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recon-ledger/internal/domain"
)

// SummaryCache stores summary reports under a per-company version. Bumping the
// version orphans every cached report of that company; the TTL reaps them.
type SummaryCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewSummaryCache(rdb redis.UniversalClient, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

func versionKey(companyID int64) string {
	return fmt.Sprintf("summary:ver:%d", companyID)
}

func (c *SummaryCache) version(ctx context.Context, companyID int64) (int64, error) {
	ver, err := c.rdb.Get(ctx, versionKey(companyID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read summary version: %w", err)
	}
	return ver, nil
}

func entryKey(q domain.SummaryQuery, ver int64) string {
	return fmt.Sprintf("summary:%d:v%d:%04d-%02d:%s", q.CompanyID, ver, q.Year, q.Month, q.Status)
}

// Get returns the cached report, or nil on a miss, together with the
// version it was looked up under. Pass that version to Set so a report
// computed before an invalidation is written under the orphaned version.
func (c *SummaryCache) Get(ctx context.Context, q domain.SummaryQuery) (*domain.Summary, int64, error) {
	ver, err := c.version(ctx, q.CompanyID)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.rdb.Get(ctx, entryKey(q, ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ver, nil
	}
	if err != nil {
		return nil, ver, fmt.Errorf("failed to read summary: %w", err)
	}

	var s domain.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ver, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &s, ver, nil
}

func (c *SummaryCache) Set(ctx context.Context, q domain.SummaryQuery, ver int64, s *domain.Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.rdb.Set(ctx, entryKey(q, ver), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Invalidate drops every cached report of the company.
func (c *SummaryCache) Invalidate(ctx context.Context, companyID int64) error {
	if err := c.rdb.Incr(ctx, versionKey(companyID)).Err(); err != nil {
		return fmt.Errorf("failed to bump summary version: %w", err)
	}
	return nil
}
