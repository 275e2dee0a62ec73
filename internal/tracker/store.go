// Package tracker implements the application-record semantics: journal
// seeding and appending, stage-aware listing, statistics, and bulk
// operations. It is transport-agnostic; the HTTP layer calls into it.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
)

// ErrNotFound is returned when no application exists with the requested id.
var ErrNotFound = errors.New("application not found")

// Store is the record persistence the service runs on. *db.DB implements it;
// tests substitute an in-memory fake.
type Store interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	ListApplications(ctx context.Context, f db.ListFilters) ([]db.Application, error)
	CreateApplication(ctx context.Context, app *db.Application) (*db.Application, error)
	UpdateApplication(ctx context.Context, app *db.Application) error
	DeleteApplication(ctx context.Context, id uuid.UUID) (bool, error)
	CountApplications(ctx context.Context, recentSince time.Time) (db.StatCounts, error)
	Histories(ctx context.Context) ([]db.HistoryRow, error)
	ListForExport(ctx context.Context) ([]db.Application, error)
	Domains(ctx context.Context) ([]string, error)
	AllTags(ctx context.Context) ([]string, error)
}

// Files is the attachment filesystem collaborator. Remove of a missing path
// must be a no-op, not an error.
type Files interface {
	Remove(path string) error
}
