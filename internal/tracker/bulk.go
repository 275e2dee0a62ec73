package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/history"
)

const bulkStatusNotes = "Bulk status update"

// BulkResult reports how a bulk operation fared. Skipped holds the ids that
// matched no record; they never abort the batch.
type BulkResult struct {
	Count   int         `json:"count"`
	Skipped []uuid.UUID `json:"skipped,omitempty"`
}

// BulkDelete deletes each identified record and its attachments. Records are
// committed one at a time; a hard failure partway through leaves the earlier
// deletions in place.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) (BulkResult, error) {
	var res BulkResult
	for _, id := range ids {
		existed, err := s.Delete(ctx, id)
		if err != nil {
			return res, fmt.Errorf("bulk delete %s: %w", id, err)
		}
		if existed {
			res.Count++
		} else {
			res.Skipped = append(res.Skipped, id)
		}
	}
	return res, nil
}

// BulkArchive sets the archived flag on each identified record.
func (s *Service) BulkArchive(ctx context.Context, ids []uuid.UUID, archived bool) (BulkResult, error) {
	var res BulkResult
	for _, id := range ids {
		_, err := s.Archive(ctx, id, archived)
		switch {
		case err == nil:
			res.Count++
		case errors.Is(err, ErrNotFound):
			res.Skipped = append(res.Skipped, id)
		default:
			return res, fmt.Errorf("bulk archive %s: %w", id, err)
		}
	}
	return res, nil
}

// BulkUpdateStatus moves each identified record to the given status,
// appending a journal entry with the same stage-defaulting rule as a single
// update. The entry is appended even when the status is unchanged, so the
// journal records that the bulk action touched the record.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status, stage string) (BulkResult, error) {
	var res BulkResult
	for _, id := range ids {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			return res, fmt.Errorf("bulk status %s: %w", id, err)
		}
		if app == nil {
			res.Skipped = append(res.Skipped, id)
			continue
		}

		entry := history.Transition(app.Status, status, stage, bulkStatusNotes, s.now())
		app.StatusHistory = append(app.StatusHistory, entry)
		app.Status = status

		if err := s.store.UpdateApplication(ctx, app); err != nil {
			return res, fmt.Errorf("bulk status %s: %w", id, err)
		}
		res.Count++
	}
	if res.Count > 0 {
		s.invalidateStats(ctx)
	}
	return res, nil
}
