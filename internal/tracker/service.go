package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/history"
)

// Attachment types accepted by the document operations.
const (
	DocTypeCV          = "cv"
	DocTypeCoverLetter = "coverletter"
)

// Service encapsulates the record-store business logic. A single instance
// serves all requests; it holds no per-request state.
type Service struct {
	store Store
	files Files
	cache *redis.Client // optional; nil disables the statistics cache
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Tests use it to pin "now" so journal
// dates and the recent-applications window are deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a configured Service. cache may be nil.
func NewService(store Store, files Files, cache *redis.Client, opts ...Option) *Service {
	s := &Service{store: store, files: files, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the fields accepted when registering an application.
type CreateInput struct {
	CompanyName         string
	JobTitle            string
	JobURL              *string
	Location            *string
	WorkType            *string
	Domain              *string
	SalaryMin           *float64
	SalaryMax           *float64
	Status              string
	StatusStage         string
	ApplicationDate     *time.Time
	ApplicationDeadline *time.Time
	AppliedOn           *string
	ContactPerson       *string
	ContactEmail        *string
	References          *string
	JobDescription      *string
	Notes               *string
	Tags                []string
	IsArchived          bool
	InterviewNotes      *string
	InterviewQuestions  *string
	InterviewDate       *time.Time
}

// UpdateInput is a partial patch: nil fields are left untouched.
// StatusDate/StatusNotes/StatusStage describe the journal entry an update
// appends; outside a status change or a rejected-record stage correction
// they are discarded.
type UpdateInput struct {
	CompanyName         *string
	JobTitle            *string
	JobURL              *string
	Location            *string
	WorkType            *string
	Domain              *string
	SalaryMin           *float64
	SalaryMax           *float64
	Status              *string
	StatusDate          *time.Time
	StatusNotes         *string
	StatusStage         *string
	ApplicationDate     *time.Time
	ApplicationDeadline *time.Time
	AppliedOn           *string
	ContactPerson       *string
	ContactEmail        *string
	References          *string
	JobDescription      *string
	Notes               *string
	Tags                *[]string
	IsArchived          *bool
	InterviewNotes      *string
	InterviewQuestions  *string
	InterviewDate       *time.Time
}

// Create registers a new application and seeds its journal with one entry
// reflecting the initial status.
func (s *Service) Create(ctx context.Context, in CreateInput) (*db.Application, error) {
	status := in.Status
	if status == "" {
		status = history.StatusSaved
	}

	seedAt := s.now()
	if in.ApplicationDate != nil {
		seedAt = *in.ApplicationDate
	}

	app := &db.Application{
		CompanyName:         in.CompanyName,
		JobTitle:            in.JobTitle,
		JobURL:              in.JobURL,
		Location:            in.Location,
		WorkType:            in.WorkType,
		Domain:              in.Domain,
		SalaryMin:           in.SalaryMin,
		SalaryMax:           in.SalaryMax,
		Status:              status,
		StatusHistory:       []history.Entry{history.Seed(status, in.StatusStage, seedAt)},
		ApplicationDate:     in.ApplicationDate,
		ApplicationDeadline: in.ApplicationDeadline,
		AppliedOn:           in.AppliedOn,
		ContactPerson:       in.ContactPerson,
		ContactEmail:        in.ContactEmail,
		References:          in.References,
		JobDescription:      in.JobDescription,
		Notes:               in.Notes,
		Tags:                in.Tags,
		IsArchived:          in.IsArchived,
		InterviewNotes:      in.InterviewNotes,
		InterviewQuestions:  in.InterviewQuestions,
		InterviewDate:       in.InterviewDate,
	}

	created, err := s.store.CreateApplication(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.invalidateStats(ctx)
	return created, nil
}

// Get returns one application or ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*db.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

// Update applies a partial patch. A status change appends a transition entry
// to the journal; a stage-only patch on a rejected record appends a
// correction entry. The journal itself is append-only — existing entries are
// never rewritten.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*db.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case in.Status != nil && *in.Status != app.Status:
		at := s.now()
		if in.StatusDate != nil {
			at = *in.StatusDate
		}
		entry := history.Transition(app.Status, *in.Status,
			strVal(in.StatusStage), strVal(in.StatusNotes), at)
		app.StatusHistory = append(app.StatusHistory, entry)
		app.Status = *in.Status

	case in.StatusStage != nil && app.Status == history.StatusRejected:
		at := s.now()
		if in.StatusDate != nil {
			at = *in.StatusDate
		}
		app.StatusHistory = append(app.StatusHistory,
			history.Correction(app.Status, *in.StatusStage, strVal(in.StatusNotes), at))
	}
	// Outside those two cases, stray StatusDate/StatusNotes/StatusStage
	// inputs are dropped without touching the journal.

	applyPatch(app, in)

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	s.invalidateStats(ctx)
	return app, nil
}

// Delete removes an application together with its attachment files. File
// removal is best-effort; a missing or stubborn file never blocks the
// record's deletion. Reports whether a record existed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return false, nil
	}

	s.removeFile(app.CVFilepath)
	s.removeFile(app.CoverLetterFilepath)

	existed, err := s.store.DeleteApplication(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	if existed {
		s.invalidateStats(ctx)
	}
	return existed, nil
}

// Archive flips the archived flag. Archived records drop out of default
// listings but keep their journal and attachments.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, archived bool) (*db.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	app.IsArchived = archived
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("archive application: %w", err)
	}
	return app, nil
}

// UpdateDocument records a freshly stored attachment, deleting the file the
// record previously pointed at.
func (s *Service) UpdateDocument(ctx context.Context, id uuid.UUID, docType, filename, path string) (*db.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch docType {
	case DocTypeCV:
		s.removeFile(app.CVFilepath)
		app.CVFilename = &filename
		app.CVFilepath = &path
	case DocTypeCoverLetter:
		s.removeFile(app.CoverLetterFilepath)
		app.CoverLetterFilename = &filename
		app.CoverLetterFilepath = &path
	default:
		return nil, fmt.Errorf("unknown document type %q", docType)
	}

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return app, nil
}

// AllForExport returns every record for the spreadsheet export, newest
// application first.
func (s *Service) AllForExport(ctx context.Context) ([]db.Application, error) {
	return s.store.ListForExport(ctx)
}

// Domains lists the distinct domains in use.
func (s *Service) Domains(ctx context.Context) ([]string, error) {
	return s.store.Domains(ctx)
}

// Tags returns the sorted union of every record's tags.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.store.AllTags(ctx)
}

func (s *Service) removeFile(path *string) {
	if path == nil || *path == "" {
		return
	}
	if err := s.files.Remove(*path); err != nil {
		slog.Warn("attachment removal failed", "path", *path, "err", err)
	}
}

func applyPatch(app *db.Application, in UpdateInput) {
	if in.CompanyName != nil {
		app.CompanyName = *in.CompanyName
	}
	if in.JobTitle != nil {
		app.JobTitle = *in.JobTitle
	}
	if in.JobURL != nil {
		app.JobURL = in.JobURL
	}
	if in.Location != nil {
		app.Location = in.Location
	}
	if in.WorkType != nil {
		app.WorkType = in.WorkType
	}
	if in.Domain != nil {
		app.Domain = in.Domain
	}
	if in.SalaryMin != nil {
		app.SalaryMin = in.SalaryMin
	}
	if in.SalaryMax != nil {
		app.SalaryMax = in.SalaryMax
	}
	if in.ApplicationDate != nil {
		app.ApplicationDate = in.ApplicationDate
	}
	if in.ApplicationDeadline != nil {
		app.ApplicationDeadline = in.ApplicationDeadline
	}
	if in.AppliedOn != nil {
		app.AppliedOn = in.AppliedOn
	}
	if in.ContactPerson != nil {
		app.ContactPerson = in.ContactPerson
	}
	if in.ContactEmail != nil {
		app.ContactEmail = in.ContactEmail
	}
	if in.References != nil {
		app.References = in.References
	}
	if in.JobDescription != nil {
		app.JobDescription = in.JobDescription
	}
	if in.Notes != nil {
		app.Notes = in.Notes
	}
	if in.Tags != nil {
		app.Tags = *in.Tags
	}
	if in.IsArchived != nil {
		app.IsArchived = *in.IsArchived
	}
	if in.InterviewNotes != nil {
		app.InterviewNotes = in.InterviewNotes
	}
	if in.InterviewQuestions != nil {
		app.InterviewQuestions = in.InterviewQuestions
	}
	if in.InterviewDate != nil {
		app.InterviewDate = in.InterviewDate
	}
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
