package education

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type fakeRepo struct {
	modules     []Module
	lessons     []Lesson
	completed   map[string]map[int]time.Time
	slugLookups int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{completed: make(map[string]map[int]time.Time)}
}

func (f *fakeRepo) SyncCatalog(ctx context.Context, c *Catalog) (map[string]int, error) {
	ids := make(map[string]int)
	f.modules, f.lessons = nil, nil
	for i, m := range c.Modules {
		id := i + 1
		ids[m.Slug] = id
		f.modules = append(f.modules, Module{ID: id, Slug: m.Slug, Title: m.Title, Level: m.Level, Position: id})
		for j, l := range m.Lessons {
			f.lessons = append(f.lessons, Lesson{
				ID: id*100 + j, ModuleID: id, Slug: l.Slug, Title: l.Title,
				Content: l.Content, DurationMinutes: l.DurationMinutes, Position: j + 1,
			})
		}
	}
	return ids, nil
}

func (f *fakeRepo) ListModules(ctx context.Context) ([]Module, error) {
	return f.modules, nil
}

func (f *fakeRepo) FindModuleBySlug(ctx context.Context, slug string) (*Module, error) {
	f.slugLookups++
	for _, m := range f.modules {
		if m.Slug == slug {
			return &m, nil
		}
	}
	return nil, ErrModuleNotFound
}

func (f *fakeRepo) withProgress(l Lesson, userID string) Lesson {
	if at, ok := f.completed[userID][l.ID]; ok {
		l.CompletedAt = &at
	}
	return l
}

func (f *fakeRepo) ListLessons(ctx context.Context, moduleID int, userID string) ([]Lesson, error) {
	out := []Lesson{}
	for _, l := range f.lessons {
		if l.ModuleID == moduleID {
			l.Content = ""
			out = append(out, f.withProgress(l, userID))
		}
	}
	return out, nil
}

func (f *fakeRepo) FindLesson(ctx context.Context, moduleID int, slug string, userID string) (*Lesson, error) {
	for _, l := range f.lessons {
		if l.ModuleID == moduleID && l.Slug == slug {
			l = f.withProgress(l, userID)
			return &l, nil
		}
	}
	return nil, ErrLessonNotFound
}

func (f *fakeRepo) MarkComplete(ctx context.Context, userID string, lessonID int) error {
	if f.completed[userID] == nil {
		f.completed[userID] = make(map[int]time.Time)
	}
	if _, ok := f.completed[userID][lessonID]; !ok {
		f.completed[userID][lessonID] = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return nil
}

func (f *fakeRepo) Progress(ctx context.Context, userID string) (map[int]ModuleProgress, error) {
	out := make(map[int]ModuleProgress)
	for _, l := range f.lessons {
		p := out[l.ModuleID]
		p.ModuleID = l.ModuleID
		p.Total++
		if _, ok := f.completed[userID][l.ID]; ok {
			p.Completed++
		}
		out[l.ModuleID] = p
	}
	return out, nil
}

const testCatalog = `
modules:
  - slug: budgeting
    title: Budgeting
    lessons:
      - {slug: why, title: Why, content: Plan ahead.}
      - {slug: how, title: How}
      - {slug: review, title: Review}
  - slug: investing
    title: Investing
    level: intermediate
    lessons:
      - {slug: risk, title: Risk}
`

func newSyncedService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo)
	c, err := ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	require.NoError(t, svc.SyncCatalog(context.Background(), c))
	return svc, repo
}

func TestCompleteLesson_UpdatesProgress(t *testing.T) {
	svc, _ := newSyncedService(t)
	ctx := context.Background()

	summary, err := svc.CompleteLesson(ctx, "budgeting", "why", "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.LessonCount)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 33, summary.CompletionPct)

	summary, err = svc.CompleteLesson(ctx, "budgeting", "why", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedCount)

	modules, err := svc.ListModules(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, 33, modules[0].CompletionPct)
	assert.Equal(t, 0, modules[1].CompletionPct)

	others, err := svc.ListModules(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, others[0].CompletedCount)
}

func TestGetModule_MarksCompletedLessons(t *testing.T) {
	svc, _ := newSyncedService(t)
	ctx := context.Background()

	_, err := svc.CompleteLesson(ctx, "investing", "risk", "u1")
	require.NoError(t, err)

	detail, err := svc.GetModule(ctx, "investing", "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, detail.CompletionPct)
	require.Len(t, detail.Lessons, 1)
	assert.NotNil(t, detail.Lessons[0].CompletedAt)

	lesson, err := svc.GetLesson(ctx, "budgeting", "why", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Plan ahead.", lesson.Content)
	assert.Nil(t, lesson.CompletedAt)
}

func TestModuleSlugsAreCached(t *testing.T) {
	svc, repo := newSyncedService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.GetModule(ctx, "budgeting", "u1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.slugLookups)
}

func TestUnknownSlugs(t *testing.T) {
	svc, _ := newSyncedService(t)
	ctx := context.Background()

	_, err := svc.GetModule(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrModuleNotFound)

	_, err = svc.CompleteLesson(ctx, "budgeting", "missing", "u1")
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestHandler(t *testing.T) {
	svc, _ := newSyncedService(t)
	h := NewHandler(svc, api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodGet, "/education/modules", nil)
	w := httptest.NewRecorder()
	h.ListModules(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/education/modules/budgeting/lessons/how/complete", nil)
	req.SetPathValue("moduleSlug", "budgeting")
	req.SetPathValue("lessonSlug", "how")
	req = req.WithContext(auth.WithUser(req.Context(), "u1", "u1@example.com"))
	w = httptest.NewRecorder()
	h.CompleteLesson(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed_count":1`)

	req = httptest.NewRequest(http.MethodGet, "/education/modules/nope", nil)
	req.SetPathValue("moduleSlug", "nope")
	req = req.WithContext(auth.WithUser(req.Context(), "u1", "u1@example.com"))
	w = httptest.NewRecorder()
	h.GetModule(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Module not found")
}
