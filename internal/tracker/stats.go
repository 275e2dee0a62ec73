package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/job-tracker/internal/history"
)

const (
	statsCacheKey = "jobtracker:stats"
	statsCacheTTL = 30 * time.Second
)

// Statistics summarizes the whole collection.
type Statistics struct {
	TotalApplications  int            `json:"total_applications"`
	ByStatus           map[string]int `json:"by_status"`
	ByDomain           map[string]int `json:"by_domain"`
	ByWorkType         map[string]int `json:"by_work_type"`
	RecentApplications int            `json:"recent_applications"`
	RejectionsByStage  map[string]int `json:"rejections_by_stage"`
}

// Statistics computes the collection summary. The rejection histogram counts
// all-time rejection events: every record whose journal resolves to a stage
// contributes once, even if its current status has since moved past
// "Rejected" (a reopened application keeps the stage of its latest
// rejection). Results are cached in Redis for a short TTL when a client is
// configured; cache failures degrade to a recompute, never to an error.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached Statistics
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	counts, err := s.store.CountApplications(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	rows, err := s.store.Histories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}

	histogram := make(map[string]int)
	for _, row := range rows {
		if stage, ok := history.ResolveStage(row.Entries); ok {
			histogram[stage]++
		}
	}

	stats := &Statistics{
		TotalApplications:  counts.Total,
		ByStatus:           counts.ByStatus,
		ByDomain:           counts.ByDomain,
		ByWorkType:         counts.ByWorkType,
		RecentApplications: counts.Recent,
		RejectionsByStage:  histogram,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
				slog.Warn("statistics cache write failed", "err", err)
			}
		}
	}
	return stats, nil
}

// invalidateStats drops the cached statistics after any mutation. Best
// effort: a cache miss on the next read just recomputes.
func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		slog.Warn("statistics cache invalidation failed", "err", err)
	}
}
