package tracker

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/history"
)

// fakeStore is an in-memory Store for service tests. Listing preserves
// insertion order, which stands in for the SQL sort.
type fakeStore struct {
	apps  map[uuid.UUID]*db.Application
	order []uuid.UUID
	clock func() time.Time
}

func newFakeStore(clock func() time.Time) *fakeStore {
	return &fakeStore{apps: make(map[uuid.UUID]*db.Application), clock: clock}
}

func cloneApp(app *db.Application) *db.Application {
	cp := *app
	cp.StatusHistory = append([]history.Entry(nil), app.StatusHistory...)
	cp.Tags = append([]string(nil), app.Tags...)
	return &cp
}

func (f *fakeStore) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, nil
	}
	return cloneApp(app), nil
}

func (f *fakeStore) ListApplications(_ context.Context, filters db.ListFilters) ([]db.Application, error) {
	matched := make([]db.Application, 0)
	for _, id := range f.order {
		app := f.apps[id]
		if !filters.IncludeArchived && app.IsArchived {
			continue
		}
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		if filters.Domain != "" && (app.Domain == nil || *app.Domain != filters.Domain) {
			continue
		}
		if filters.WorkType != "" && (app.WorkType == nil || *app.WorkType != filters.WorkType) {
			continue
		}
		matched = append(matched, *cloneApp(app))
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []db.Application{}, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, app *db.Application) (*db.Application, error) {
	stored := cloneApp(app)
	stored.ID = uuid.New()
	stored.CreatedAt = f.clock()
	f.apps[stored.ID] = stored
	f.order = append(f.order, stored.ID)
	return cloneApp(stored), nil
}

func (f *fakeStore) UpdateApplication(_ context.Context, app *db.Application) error {
	if _, ok := f.apps[app.ID]; ok {
		f.apps[app.ID] = cloneApp(app)
	}
	return nil
}

func (f *fakeStore) DeleteApplication(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.apps[id]; !ok {
		return false, nil
	}
	delete(f.apps, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (f *fakeStore) CountApplications(_ context.Context, recentSince time.Time) (db.StatCounts, error) {
	counts := db.StatCounts{
		Total:      len(f.apps),
		ByStatus:   make(map[string]int),
		ByDomain:   make(map[string]int),
		ByWorkType: make(map[string]int),
	}
	for _, app := range f.apps {
		counts.ByStatus[app.Status]++
		if app.Domain != nil {
			counts.ByDomain[*app.Domain]++
		}
		if app.WorkType != nil {
			counts.ByWorkType[*app.WorkType]++
		}
		if app.ApplicationDate != nil && !app.ApplicationDate.Before(recentSince) {
			counts.Recent++
		}
	}
	return counts, nil
}

func (f *fakeStore) Histories(_ context.Context) ([]db.HistoryRow, error) {
	rows := make([]db.HistoryRow, 0, len(f.apps))
	for _, id := range f.order {
		app := f.apps[id]
		rows = append(rows, db.HistoryRow{
			ID:      id,
			Entries: append([]history.Entry(nil), app.StatusHistory...),
		})
	}
	return rows, nil
}

func (f *fakeStore) ListForExport(ctx context.Context) ([]db.Application, error) {
	return f.ListApplications(ctx, db.ListFilters{IncludeArchived: true})
}

func (f *fakeStore) Domains(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, app := range f.apps {
		if app.Domain != nil && *app.Domain != "" {
			seen[*app.Domain] = true
		}
	}
	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains, nil
}

func (f *fakeStore) AllTags(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, app := range f.apps {
		for _, tag := range app.Tags {
			seen[tag] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// fakeFiles records removals and can be told to fail for specific paths.
type fakeFiles struct {
	removed []string
	failOn  map[string]error
}

func (f *fakeFiles) Remove(path string) error {
	if err, ok := f.failOn[path]; ok {
		return err
	}
	f.removed = append(f.removed, path)
	return nil
}

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *fakeStore, *fakeFiles) {
	store := newFakeStore(func() time.Time { return testNow })
	files := &fakeFiles{}
	svc := NewService(store, files, nil, WithClock(func() time.Time { return testNow }))
	return svc, store, files
}

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func boolPtr(b bool) *bool           { return &b }
