// Package db provides PostgreSQL persistence for job application records.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the job_applications table and its indexes if they do not
// exist yet. status_history and tags live in JSONB columns; older deployments
// stored text there, which the history package tolerates on read.
func (db *DB) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS job_applications (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company_name TEXT NOT NULL,
	job_title TEXT NOT NULL,
	job_url TEXT,
	location TEXT,
	work_type TEXT,
	domain TEXT,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	status TEXT NOT NULL DEFAULT 'Saved',
	status_history JSONB NOT NULL DEFAULT '[]'::jsonb,
	application_date TIMESTAMPTZ,
	application_deadline TIMESTAMPTZ,
	applied_on TEXT,
	cv_filename TEXT,
	cv_filepath TEXT,
	coverletter_filename TEXT,
	coverletter_filepath TEXT,
	contact_person TEXT,
	contact_email TEXT,
	references_info TEXT,
	job_description TEXT,
	notes TEXT,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	interview_notes TEXT,
	interview_questions TEXT,
	interview_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_job_applications_company_name ON job_applications (company_name);
CREATE INDEX IF NOT EXISTS idx_job_applications_status ON job_applications (status);
CREATE INDEX IF NOT EXISTS idx_job_applications_created_at ON job_applications (created_at);
`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
