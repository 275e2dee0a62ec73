package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/history"
	"github.com/jonathan/job-tracker/internal/storage"
	"github.com/jonathan/job-tracker/internal/tracker"
)

// memStore is an in-memory tracker.Store for handler tests.
type memStore struct {
	apps  map[uuid.UUID]*db.Application
	order []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{apps: make(map[uuid.UUID]*db.Application)}
}

func copyApp(app *db.Application) *db.Application {
	cp := *app
	cp.StatusHistory = append([]history.Entry(nil), app.StatusHistory...)
	cp.Tags = append([]string(nil), app.Tags...)
	return &cp
}

func (m *memStore) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	return copyApp(app), nil
}

func (m *memStore) ListApplications(_ context.Context, f db.ListFilters) ([]db.Application, error) {
	matched := make([]db.Application, 0)
	for _, id := range m.order {
		app := m.apps[id]
		if !f.IncludeArchived && app.IsArchived {
			continue
		}
		if f.Status != "" && app.Status != f.Status {
			continue
		}
		matched = append(matched, *copyApp(app))
	}
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []db.Application{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (m *memStore) CreateApplication(_ context.Context, app *db.Application) (*db.Application, error) {
	stored := copyApp(app)
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	m.apps[stored.ID] = stored
	m.order = append(m.order, stored.ID)
	return copyApp(stored), nil
}

func (m *memStore) UpdateApplication(_ context.Context, app *db.Application) error {
	if _, ok := m.apps[app.ID]; ok {
		m.apps[app.ID] = copyApp(app)
	}
	return nil
}

func (m *memStore) DeleteApplication(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.apps[id]; !ok {
		return false, nil
	}
	delete(m.apps, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memStore) CountApplications(_ context.Context, recentSince time.Time) (db.StatCounts, error) {
	counts := db.StatCounts{
		Total:      len(m.apps),
		ByStatus:   make(map[string]int),
		ByDomain:   make(map[string]int),
		ByWorkType: make(map[string]int),
	}
	for _, app := range m.apps {
		counts.ByStatus[app.Status]++
		if app.ApplicationDate != nil && !app.ApplicationDate.Before(recentSince) {
			counts.Recent++
		}
	}
	return counts, nil
}

func (m *memStore) Histories(_ context.Context) ([]db.HistoryRow, error) {
	rows := make([]db.HistoryRow, 0, len(m.apps))
	for _, id := range m.order {
		rows = append(rows, db.HistoryRow{ID: id, Entries: m.apps[id].StatusHistory})
	}
	return rows, nil
}

func (m *memStore) ListForExport(ctx context.Context) ([]db.Application, error) {
	return m.ListApplications(ctx, db.ListFilters{IncludeArchived: true})
}

func (m *memStore) Domains(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, app := range m.apps {
		if app.Domain != nil && *app.Domain != "" {
			seen[*app.Domain] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) AllTags(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, app := range m.apps {
		for _, tag := range app.Tags {
			seen[tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	uploads, err := storage.New(t.TempDir())
	require.NoError(t, err)
	svc := tracker.NewService(store, uploads, nil)
	return New(Config{Port: 0}, svc, uploads), store
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func doJSON(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return doRequest(s, req)
}

func createApp(t *testing.T, s *Server, body map[string]any) db.Application {
	t.Helper()
	w := doJSON(s, http.MethodPost, "/applications", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app db.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	return app
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateApplication(t *testing.T) {
	s, _ := newTestServer(t)

	app := createApp(t, s, map[string]any{
		"company_name": "Acme",
		"job_title":    "Backend Engineer",
		"status":       "Applied",
	})

	assert.Equal(t, "Acme", app.CompanyName)
	assert.Equal(t, "Applied", app.Status)
	require.Len(t, app.StatusHistory, 1)
	assert.Equal(t, "Application submitted", app.StatusHistory[0].Notes)
}

func TestCreateApplication_ValidationFailures(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing company name", map[string]any{"job_title": "Engineer"}},
		{"missing job title", map[string]any{"company_name": "Acme"}},
		{"bad contact email", map[string]any{
			"company_name":  "Acme",
			"job_title":     "Engineer",
			"contact_email": "not-an-email",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(s, http.MethodPost, "/applications", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetApplication_InvalidID(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/applications/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetApplication_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/applications/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateApplication(t *testing.T) {
	s, _ := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer", "status": "Applied"})

	w := doJSON(s, http.MethodPut, "/applications/"+app.ID.String(), map[string]any{"status": "Interview"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated db.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Interview", updated.Status)
	assert.Len(t, updated.StatusHistory, 2)
}

func TestUpdateApplication_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodPut, "/applications/"+uuid.NewString(), map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteApplication(t *testing.T) {
	s, store := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	w := doRequest(s, httptest.NewRequest(http.MethodDelete, "/applications/"+app.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.apps)

	w = doRequest(s, httptest.NewRequest(http.MethodDelete, "/applications/"+app.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListApplications(t *testing.T) {
	s, _ := newTestServer(t)
	createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer", "status": "Applied"})
	createApp(t, s, map[string]any{"company_name": "Globex", "job_title": "SRE"})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/applications?status=Applied", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Applications []db.Application `json:"applications"`
		Count        int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Applications, 1)
	assert.Equal(t, "Acme", resp.Applications[0].CompanyName)
}

func TestListApplications_StageFilter(t *testing.T) {
	s, _ := newTestServer(t)

	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer", "status": "Interview"})
	w := doJSON(s, http.MethodPut, "/applications/"+app.ID.String(), map[string]any{"status": "Rejected"})
	require.Equal(t, http.StatusOK, w.Code)
	createApp(t, s, map[string]any{"company_name": "Globex", "job_title": "SRE", "status": "Applied"})

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/applications?status_stage=Interview", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Applications []db.Application `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Applications, 1)
	assert.Equal(t, "Acme", resp.Applications[0].CompanyName)
}

func TestArchiveRoundTrip(t *testing.T) {
	s, store := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	w := doRequest(s, httptest.NewRequest(http.MethodPut, "/applications/"+app.ID.String()+"/archive", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.apps[app.ID].IsArchived)

	w = doRequest(s, httptest.NewRequest(http.MethodPut, "/applications/"+app.ID.String()+"/unarchive", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.apps[app.ID].IsArchived)
}

func TestBulkDelete(t *testing.T) {
	s, store := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})
	missing := uuid.New()

	w := doJSON(s, http.MethodPost, "/applications/bulk/delete", map[string]any{
		"ids": []string{app.ID.String(), missing.String()},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res tracker.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []uuid.UUID{missing}, res.Skipped)
	assert.Empty(t, store.apps)
}

func TestBulkDelete_EmptyIDs(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/applications/bulk/delete", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkStatus(t *testing.T) {
	s, store := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer", "status": "Applied"})

	w := doJSON(s, http.MethodPost, "/applications/bulk/status", map[string]any{
		"ids":    []string{app.ID.String()},
		"status": "Rejected",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rejected", store.apps[app.ID].Status)
}

func TestBulkStatus_MissingStatus(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/applications/bulk/status", map[string]any{
		"ids": []string{uuid.NewString()},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadAndDownloadDocument(t *testing.T) {
	s, _ := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	body, contentType := multipartBody(t, "file", "resume.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/applications/"+app.ID.String()+"/documents/cv", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated db.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.NotNil(t, updated.CVFilename)
	assert.Equal(t, "resume.pdf", *updated.CVFilename)

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/applications/"+app.ID.String()+"/documents/cv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "resume.pdf")
}

func TestUploadDocument_UnknownType(t *testing.T) {
	s, _ := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	body, contentType := multipartBody(t, "file", "x.pdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/applications/"+app.ID.String()+"/documents/portfolio", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadDocument_MissingRecord(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := multipartBody(t, "file", "x.pdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/applications/"+uuid.NewString()+"/documents/cv", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadDocument_NotUploaded(t *testing.T) {
	s, _ := newTestServer(t)
	app := createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/applications/"+app.ID.String()+"/documents/cv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer", "status": "Applied"})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/statistics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats tracker.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalApplications)
	assert.Equal(t, 1, stats.ByStatus["Applied"])
}

func TestTagsAndDomainsEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	createApp(t, s, map[string]any{
		"company_name": "Acme",
		"job_title":    "Engineer",
		"domain":       "Fintech",
		"tags":         []string{"remote", "golang"},
	})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/tags", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":["golang","remote"]}`, w.Body.String())

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/domains", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"domains":["Fintech"]}`, w.Body.String())
}

func TestExportExcelEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	createApp(t, s, map[string]any{"company_name": "Acme", "job_title": "Engineer"})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/export/excel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")
}
