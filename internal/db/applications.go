package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-tracker/internal/history"
)

const appColumns = `id, company_name, job_title, job_url, location, work_type, domain,
	salary_min, salary_max, status, status_history, application_date,
	application_deadline, applied_on, cv_filename, cv_filepath,
	coverletter_filename, coverletter_filepath, contact_person, contact_email,
	references_info, job_description, notes, tags, is_archived,
	interview_notes, interview_questions, interview_date, created_at, updated_at`

// GetApplication retrieves an application by id. Returns nil without error
// when no row exists.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM job_applications WHERE id = $1`, id)

	app, err := scanApplication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplications returns the filtered, sorted, paginated view described by
// the filters. The rejection-stage post-filter is not applied here; it needs
// the resolved journal and lives in the service layer.
func (db *DB) ListApplications(ctx context.Context, f ListFilters) ([]Application, error) {
	sqlStr, args, err := buildListQuery(f)
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := db.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// buildListQuery translates filters into SQL. Split out so the clause
// composition is testable without a database.
func buildListQuery(f ListFilters) (string, []any, error) {
	qb := sq.Select(appColumns).
		From("job_applications").
		PlaceholderFormat(sq.Dollar)

	if !f.IncludeArchived {
		qb = qb.Where(sq.Eq{"is_archived": false})
	}
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"status": f.Status})
	}
	if f.Domain != "" {
		qb = qb.Where(sq.Eq{"domain": f.Domain})
	}
	if f.WorkType != "" {
		qb = qb.Where(sq.Eq{"work_type": f.WorkType})
	}
	for _, tag := range f.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		member, err := json.Marshal([]string{tag})
		if err != nil {
			return "", nil, err
		}
		qb = qb.Where(sq.Expr("tags @> ?::jsonb", string(member)))
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		qb = qb.Where(sq.Or{
			sq.ILike{"company_name": like},
			sq.ILike{"job_title": like},
			sq.ILike{"location": like},
			sq.ILike{"domain": like},
			sq.ILike{"notes": like},
			sq.ILike{"job_description": like},
		})
	}

	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}
	qb = qb.OrderBy(f.SortColumn() + " " + direction)

	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset))
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}

	return qb.ToSql()
}

// CreateApplication inserts a new record. The caller seeds StatusHistory; the
// database assigns id and created_at.
func (db *DB) CreateApplication(ctx context.Context, app *Application) (*Application, error) {
	historyJSON, tagsJSON, err := marshalJSONColumns(app)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO job_applications (
			company_name, job_title, job_url, location, work_type, domain,
			salary_min, salary_max, status, status_history, application_date,
			application_deadline, applied_on, contact_person, contact_email,
			references_info, job_description, notes, tags, is_archived,
			interview_notes, interview_questions, interview_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING `+appColumns,
		app.CompanyName, app.JobTitle, app.JobURL, app.Location, app.WorkType,
		app.Domain, app.SalaryMin, app.SalaryMax, app.Status, historyJSON,
		app.ApplicationDate, app.ApplicationDeadline, app.AppliedOn,
		app.ContactPerson, app.ContactEmail, app.References, app.JobDescription,
		app.Notes, tagsJSON, app.IsArchived, app.InterviewNotes,
		app.InterviewQuestions, app.InterviewDate,
	)

	created, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return created, nil
}

// UpdateApplication persists every mutable field of the given record. The
// write is a single statement; concurrent writers race last-write-wins.
func (db *DB) UpdateApplication(ctx context.Context, app *Application) error {
	historyJSON, tagsJSON, err := marshalJSONColumns(app)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE job_applications SET
			company_name = $1, job_title = $2, job_url = $3, location = $4,
			work_type = $5, domain = $6, salary_min = $7, salary_max = $8,
			status = $9, status_history = $10, application_date = $11,
			application_deadline = $12, applied_on = $13, cv_filename = $14,
			cv_filepath = $15, coverletter_filename = $16,
			coverletter_filepath = $17, contact_person = $18,
			contact_email = $19, references_info = $20, job_description = $21,
			notes = $22, tags = $23, is_archived = $24, interview_notes = $25,
			interview_questions = $26, interview_date = $27, updated_at = NOW()
		WHERE id = $28`,
		app.CompanyName, app.JobTitle, app.JobURL, app.Location, app.WorkType,
		app.Domain, app.SalaryMin, app.SalaryMax, app.Status, historyJSON,
		app.ApplicationDate, app.ApplicationDeadline, app.AppliedOn,
		app.CVFilename, app.CVFilepath, app.CoverLetterFilename,
		app.CoverLetterFilepath, app.ContactPerson, app.ContactEmail,
		app.References, app.JobDescription, app.Notes, tagsJSON,
		app.IsArchived, app.InterviewNotes, app.InterviewQuestions,
		app.InterviewDate, app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return nil
}

// DeleteApplication removes a record, reporting whether it existed.
func (db *DB) DeleteApplication(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_applications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountApplications computes the grouped counts for the statistics endpoint.
// recentSince bounds the "recent applications" window.
func (db *DB) CountApplications(ctx context.Context, recentSince time.Time) (StatCounts, error) {
	counts := StatCounts{
		ByStatus:   make(map[string]int),
		ByDomain:   make(map[string]int),
		ByWorkType: make(map[string]int),
	}

	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_applications`).Scan(&counts.Total)
	if err != nil {
		return counts, fmt.Errorf("failed to count applications: %w", err)
	}

	if err := db.groupCount(ctx, "status", counts.ByStatus); err != nil {
		return counts, err
	}
	if err := db.groupCount(ctx, "domain", counts.ByDomain); err != nil {
		return counts, err
	}
	if err := db.groupCount(ctx, "work_type", counts.ByWorkType); err != nil {
		return counts, err
	}

	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_applications WHERE application_date >= $1`,
		recentSince).Scan(&counts.Recent)
	if err != nil {
		return counts, fmt.Errorf("failed to count recent applications: %w", err)
	}

	return counts, nil
}

func (db *DB) groupCount(ctx context.Context, column string, into map[string]int) error {
	// column comes from a fixed internal call site, never from user input.
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM job_applications WHERE %s IS NOT NULL GROUP BY %s`,
		column, column, column))
	if err != nil {
		return fmt.Errorf("failed to count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

// Histories streams every record's id and normalized journal, for the
// rejection-stage histogram.
func (db *DB) Histories(ctx context.Context) ([]HistoryRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, status_history FROM job_applications`)
	if err != nil {
		return nil, fmt.Errorf("failed to load histories: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		var raw []byte
		if err := rows.Scan(&r.ID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		r.Entries = history.Decode(raw)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListForExport returns every record, newest application first, for the
// spreadsheet export.
func (db *DB) ListForExport(ctx context.Context) ([]Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+appColumns+` FROM job_applications
		 ORDER BY application_date DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for export: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// Domains lists the distinct non-empty domains in use.
func (db *DB) Domains(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT domain FROM job_applications
		 WHERE domain IS NOT NULL AND domain <> '' ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// AllTags returns the sorted union of every record's tag list. Legacy rows
// may hold the tag array JSON-encoded as text; those are tolerated the same
// way journals are.
func (db *DB) AllTags(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT tags FROM job_applications`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		for _, tag := range decodeTags(raw) {
			seen[tag] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func marshalJSONColumns(app *Application) (historyJSON, tagsJSON []byte, err error) {
	entries := app.StatusHistory
	if entries == nil {
		entries = []history.Entry{}
	}
	historyJSON, err = json.Marshal(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal status history: %w", err)
	}

	tags := app.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err = json.Marshal(tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return historyJSON, tagsJSON, nil
}

// decodeTags accepts a JSONB array or a JSON-encoded string holding one.
func decodeTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err == nil {
		return tags
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &tags); err == nil {
			return tags
		}
	}
	return nil
}

func scanApplication(row pgx.Row) (*Application, error) {
	var app Application
	var rawHistory, rawTags []byte

	err := row.Scan(
		&app.ID, &app.CompanyName, &app.JobTitle, &app.JobURL, &app.Location,
		&app.WorkType, &app.Domain, &app.SalaryMin, &app.SalaryMax,
		&app.Status, &rawHistory, &app.ApplicationDate,
		&app.ApplicationDeadline, &app.AppliedOn, &app.CVFilename,
		&app.CVFilepath, &app.CoverLetterFilename, &app.CoverLetterFilepath,
		&app.ContactPerson, &app.ContactEmail, &app.References,
		&app.JobDescription, &app.Notes, &rawTags, &app.IsArchived,
		&app.InterviewNotes, &app.InterviewQuestions, &app.InterviewDate,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.StatusHistory = history.Decode(rawHistory)
	app.Tags = decodeTags(rawTags)
	return &app, nil
}

func collectApplications(rows pgx.Rows) ([]Application, error) {
	apps := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}
