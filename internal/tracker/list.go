package tracker

import (
	"context"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/history"
)

// ListQuery is db.ListFilters plus the rejection-stage post-filter.
type ListQuery struct {
	db.ListFilters
	Stage string
}

// List returns the filtered view. Without a stage filter the whole query,
// pagination included, is pushed down to SQL. With one, the stage filter
// runs over the full filtered-and-sorted set and pagination is applied
// afterwards — a page is never short-changed by rows the stage filter
// drops.
func (s *Service) List(ctx context.Context, q ListQuery) ([]db.Application, error) {
	if q.Stage == "" {
		return s.store.ListApplications(ctx, q.ListFilters)
	}

	full := q.ListFilters
	offset, limit := full.Offset, full.Limit
	full.Offset, full.Limit = 0, 0

	apps, err := s.store.ListApplications(ctx, full)
	if err != nil {
		return nil, err
	}

	matched := make([]db.Application, 0, len(apps))
	for _, app := range apps {
		if app.Status != history.StatusRejected {
			continue
		}
		stage, ok := history.ResolveStage(app.StatusHistory)
		if !ok {
			// Rejected status with no resolvable rejection entry in the
			// journal (legacy data) counts as unspecified.
			stage = history.StageNotSpecified
		}
		if stage == q.Stage {
			matched = append(matched, app)
		}
	}

	if offset >= len(matched) {
		return []db.Application{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
