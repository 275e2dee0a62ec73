package server

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/tracker"
)

// createApplicationRequest is the POST /applications body.
type createApplicationRequest struct {
	CompanyName         string     `json:"company_name" validate:"required,min=1"`
	JobTitle            string     `json:"job_title" validate:"required,min=1"`
	JobURL              *string    `json:"job_url,omitempty"`
	Location            *string    `json:"location,omitempty"`
	WorkType            *string    `json:"work_type,omitempty"`
	Domain              *string    `json:"domain,omitempty"`
	SalaryMin           *float64   `json:"salary_min,omitempty"`
	SalaryMax           *float64   `json:"salary_max,omitempty"`
	Status              string     `json:"status,omitempty"`
	StatusStage         string     `json:"status_stage,omitempty"`
	ApplicationDate     *time.Time `json:"application_date,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	AppliedOn           *string    `json:"applied_on,omitempty"`
	ContactPerson       *string    `json:"contact_person,omitempty"`
	ContactEmail        *string    `json:"contact_email,omitempty" validate:"omitempty,email"`
	References          *string    `json:"references,omitempty"`
	JobDescription      *string    `json:"job_description,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	Tags                []string   `json:"tags,omitempty"`
	IsArchived          bool       `json:"is_archived,omitempty"`
	InterviewNotes      *string    `json:"interview_notes,omitempty"`
	InterviewQuestions  *string    `json:"interview_questions,omitempty"`
	InterviewDate       *time.Time `json:"interview_date,omitempty"`
}

// Validate validates the createApplicationRequest using the validator.
func (r *createApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

func (r *createApplicationRequest) toInput() tracker.CreateInput {
	return tracker.CreateInput{
		CompanyName:         r.CompanyName,
		JobTitle:            r.JobTitle,
		JobURL:              r.JobURL,
		Location:            r.Location,
		WorkType:            r.WorkType,
		Domain:              r.Domain,
		SalaryMin:           r.SalaryMin,
		SalaryMax:           r.SalaryMax,
		Status:              r.Status,
		StatusStage:         r.StatusStage,
		ApplicationDate:     r.ApplicationDate,
		ApplicationDeadline: r.ApplicationDeadline,
		AppliedOn:           r.AppliedOn,
		ContactPerson:       r.ContactPerson,
		ContactEmail:        r.ContactEmail,
		References:          r.References,
		JobDescription:      r.JobDescription,
		Notes:               r.Notes,
		Tags:                r.Tags,
		IsArchived:          r.IsArchived,
		InterviewNotes:      r.InterviewNotes,
		InterviewQuestions:  r.InterviewQuestions,
		InterviewDate:       r.InterviewDate,
	}
}

// updateApplicationRequest is the PUT /applications/{id} body. Absent fields
// leave the stored value untouched.
type updateApplicationRequest struct {
	CompanyName         *string    `json:"company_name,omitempty" validate:"omitempty,min=1"`
	JobTitle            *string    `json:"job_title,omitempty" validate:"omitempty,min=1"`
	JobURL              *string    `json:"job_url,omitempty"`
	Location            *string    `json:"location,omitempty"`
	WorkType            *string    `json:"work_type,omitempty"`
	Domain              *string    `json:"domain,omitempty"`
	SalaryMin           *float64   `json:"salary_min,omitempty"`
	SalaryMax           *float64   `json:"salary_max,omitempty"`
	Status              *string    `json:"status,omitempty"`
	StatusDate          *time.Time `json:"status_date,omitempty"`
	StatusNotes         *string    `json:"status_notes,omitempty"`
	StatusStage         *string    `json:"status_stage,omitempty"`
	ApplicationDate     *time.Time `json:"application_date,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	AppliedOn           *string    `json:"applied_on,omitempty"`
	ContactPerson       *string    `json:"contact_person,omitempty"`
	ContactEmail        *string    `json:"contact_email,omitempty" validate:"omitempty,email"`
	References          *string    `json:"references,omitempty"`
	JobDescription      *string    `json:"job_description,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	Tags                *[]string  `json:"tags,omitempty"`
	IsArchived          *bool      `json:"is_archived,omitempty"`
	InterviewNotes      *string    `json:"interview_notes,omitempty"`
	InterviewQuestions  *string    `json:"interview_questions,omitempty"`
	InterviewDate       *time.Time `json:"interview_date,omitempty"`
}

// Validate validates the updateApplicationRequest using the validator.
func (r *updateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

func (r *updateApplicationRequest) toInput() tracker.UpdateInput {
	return tracker.UpdateInput{
		CompanyName:         r.CompanyName,
		JobTitle:            r.JobTitle,
		JobURL:              r.JobURL,
		Location:            r.Location,
		WorkType:            r.WorkType,
		Domain:              r.Domain,
		SalaryMin:           r.SalaryMin,
		SalaryMax:           r.SalaryMax,
		Status:              r.Status,
		StatusDate:          r.StatusDate,
		StatusNotes:         r.StatusNotes,
		StatusStage:         r.StatusStage,
		ApplicationDate:     r.ApplicationDate,
		ApplicationDeadline: r.ApplicationDeadline,
		AppliedOn:           r.AppliedOn,
		ContactPerson:       r.ContactPerson,
		ContactEmail:        r.ContactEmail,
		References:          r.References,
		JobDescription:      r.JobDescription,
		Notes:               r.Notes,
		Tags:                r.Tags,
		IsArchived:          r.IsArchived,
		InterviewNotes:      r.InterviewNotes,
		InterviewQuestions:  r.InterviewQuestions,
		InterviewDate:       r.InterviewDate,
	}
}

// bulkRequest identifies the records a bulk operation targets.
type bulkRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// Validate validates the bulkRequest using the validator.
func (r *bulkRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// bulkStatusRequest is the POST /applications/bulk/status body.
type bulkStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1"`
	Status string      `json:"status" validate:"required,min=1"`
	Stage  string      `json:"stage,omitempty"`
}

// Validate validates the bulkStatusRequest using the validator.
func (r *bulkStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
