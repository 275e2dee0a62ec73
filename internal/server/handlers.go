package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/export"
	"github.com/jonathan/job-tracker/internal/tracker"
)

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// serviceError maps service failures to HTTP responses.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	if errors.Is(err, tracker.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Application not found")
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
}

// handleCreateApplication registers a new application
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	app, err := s.svc.Create(r.Context(), req.toInput())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

// handleListApplications lists applications with filtering, sorting and
// pagination
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := tracker.ListQuery{
		ListFilters: db.ListFilters{
			Status:          q.Get("status"),
			Domain:          q.Get("domain"),
			WorkType:        q.Get("work_type"),
			Search:          q.Get("search"),
			IncludeArchived: q.Get("include_archived") == "true",
			SortBy:          q.Get("sort_by"),
			SortOrder:       q.Get("sort_order"),
			Offset:          parseQueryInt(r, "skip", 0, 0),
			Limit:           parseQueryInt(r, "limit", 1000, 0),
		},
		Stage: q.Get("status_stage"),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				query.Tags = append(query.Tags, tag)
			}
		}
	}

	apps, err := s.svc.List(r.Context(), query)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"applications": apps,
		"count":        len(apps),
		"skip":         query.Offset,
		"limit":        query.Limit,
	})
}

// handleGetApplication retrieves a single application
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	app, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleUpdateApplication applies a partial update
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	var req updateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	app, err := s.svc.Update(r.Context(), id, req.toInput())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleDeleteApplication deletes an application and its attachments
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	existed, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if !existed {
		s.errorResponse(w, http.StatusNotFound, "Application not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Application deleted"})
}

// handleArchiveApplication marks an application archived
func (s *Server) handleArchiveApplication(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, true)
}

// handleUnarchiveApplication clears the archived flag
func (s *Server) handleUnarchiveApplication(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, false)
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	app, err := s.svc.Archive(r.Context(), id, archived)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleBulkDelete deletes a batch of applications
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBulk(w, r)
	if !ok {
		return
	}

	res, err := s.svc.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleBulkArchive archives a batch of applications
func (s *Server) handleBulkArchive(w http.ResponseWriter, r *http.Request) {
	s.bulkArchive(w, r, true)
}

// handleBulkUnarchive unarchives a batch of applications
func (s *Server) handleBulkUnarchive(w http.ResponseWriter, r *http.Request) {
	s.bulkArchive(w, r, false)
}

func (s *Server) bulkArchive(w http.ResponseWriter, r *http.Request, archived bool) {
	req, ok := s.decodeBulk(w, r)
	if !ok {
		return
	}

	res, err := s.svc.BulkArchive(r.Context(), req.IDs, archived)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleBulkStatus moves a batch of applications to a new status
func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	res, err := s.svc.BulkUpdateStatus(r.Context(), req.IDs, req.Status, req.Stage)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) decodeBulk(w http.ResponseWriter, r *http.Request) (bulkRequest, bool) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return req, false
	}
	return req, true
}

const maxUploadBytes = 32 << 20

// handleUploadDocument stores a CV or cover letter for an application
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}
	docType := r.PathValue("type")
	if docType != tracker.DocTypeCV && docType != tracker.DocTypeCoverLetter {
		s.errorResponse(w, http.StatusBadRequest, "Unknown document type: "+docType)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	// Confirm the record exists before writing anything to disk.
	if _, err := s.svc.Get(r.Context(), id); err != nil {
		s.serviceError(w, err)
		return
	}

	path, err := s.uploads.Save(docType, id, header.Filename, file)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Storing file failed: "+err.Error())
		return
	}

	app, err := s.svc.UpdateDocument(r.Context(), id, docType, header.Filename, path)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleDownloadDocument serves a stored CV or cover letter
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	app, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	var path, filename *string
	switch r.PathValue("type") {
	case tracker.DocTypeCV:
		path, filename = app.CVFilepath, app.CVFilename
	case tracker.DocTypeCoverLetter:
		path, filename = app.CoverLetterFilepath, app.CoverLetterFilename
	default:
		s.errorResponse(w, http.StatusBadRequest, "Unknown document type: "+r.PathValue("type"))
		return
	}
	if path == nil || *path == "" {
		s.errorResponse(w, http.StatusNotFound, "Document not uploaded")
		return
	}
	if _, err := os.Stat(*path); err != nil {
		s.errorResponse(w, http.StatusNotFound, "Document file missing")
		return
	}

	name := "document"
	if filename != nil && *filename != "" {
		name = *filename
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, *path)
}

// handleStatistics returns the collection summary
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Statistics(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleListTags returns the sorted union of all tag lists
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Tags(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tags": tags})
}

// handleListDomains returns the distinct domains in use
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.svc.Domains(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"domains": domains})
}

// handleExportExcel streams the collection as an xlsx attachment
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	apps, err := s.svc.AllForExport(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}

	f, err := export.Workbook(apps)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}
	defer f.Close()

	filename := "job_applications_" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		// Headers are already gone; nothing useful left to send.
		return
	}
}
