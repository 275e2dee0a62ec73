package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/history"
)

// Application is one tracked job application. StatusHistory is always the
// normalized journal; the raw column shape never leaves this package.
type Application struct {
	ID                  uuid.UUID       `json:"id"`
	CompanyName         string          `json:"company_name"`
	JobTitle            string          `json:"job_title"`
	JobURL              *string         `json:"job_url"`
	Location            *string         `json:"location"`
	WorkType            *string         `json:"work_type"`
	Domain              *string         `json:"domain"`
	SalaryMin           *float64        `json:"salary_min"`
	SalaryMax           *float64        `json:"salary_max"`
	Status              string          `json:"status"`
	StatusHistory       []history.Entry `json:"status_history"`
	ApplicationDate     *time.Time      `json:"application_date"`
	ApplicationDeadline *time.Time      `json:"application_deadline"`
	AppliedOn           *string         `json:"applied_on"`
	CVFilename          *string         `json:"cv_filename"`
	CVFilepath          *string         `json:"cv_filepath"`
	CoverLetterFilename *string         `json:"coverletter_filename"`
	CoverLetterFilepath *string         `json:"coverletter_filepath"`
	ContactPerson       *string         `json:"contact_person"`
	ContactEmail        *string         `json:"contact_email"`
	References          *string         `json:"references"`
	JobDescription      *string         `json:"job_description"`
	Notes               *string         `json:"notes"`
	Tags                []string        `json:"tags"`
	IsArchived          bool            `json:"is_archived"`
	InterviewNotes      *string         `json:"interview_notes"`
	InterviewQuestions  *string         `json:"interview_questions"`
	InterviewDate       *time.Time      `json:"interview_date"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           *time.Time      `json:"updated_at"`
}

// ListFilters selects, orders and paginates applications. Zero values mean
// "no filter"; archived records are excluded unless IncludeArchived is set.
type ListFilters struct {
	Status          string
	Domain          string
	WorkType        string
	Search          string
	Tags            []string
	IncludeArchived bool
	SortBy          string
	SortOrder       string // "asc" or "desc" (default)
	Offset          int
	Limit           int
}

// sortColumns whitelists the fields a caller may sort by. Anything else
// falls back to created_at.
var sortColumns = map[string]bool{
	"created_at":           true,
	"updated_at":           true,
	"company_name":         true,
	"job_title":            true,
	"status":               true,
	"location":             true,
	"domain":               true,
	"work_type":            true,
	"application_date":     true,
	"application_deadline": true,
	"interview_date":       true,
	"salary_min":           true,
	"salary_max":           true,
}

// SortColumn resolves the requested sort field to a real column name.
func (f ListFilters) SortColumn() string {
	if sortColumns[f.SortBy] {
		return f.SortBy
	}
	return "created_at"
}

// StatCounts holds the SQL-side aggregates backing the statistics endpoint.
type StatCounts struct {
	Total      int
	ByStatus   map[string]int
	ByDomain   map[string]int
	ByWorkType map[string]int
	Recent     int
}

// HistoryRow pairs a record id with its normalized journal, for aggregate
// scans that do not need the full row.
type HistoryRow struct {
	ID      uuid.UUID
	Entries []history.Entry
}
