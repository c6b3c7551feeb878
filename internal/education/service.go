package education

import (
	"context"
	"errors"
	"sync"

	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

var logger = logging.New("education")

type ModuleSummary struct {
	Module
	LessonCount    int `json:"lesson_count"`
	CompletedCount int `json:"completed_count"`
	CompletionPct  int `json:"completion_pct"`
}

type ModuleDetail struct {
	ModuleSummary
	Lessons []Lesson `json:"lessons"`
}

type Service interface {
	SyncCatalog(ctx context.Context, c *Catalog) error
	ListModules(ctx context.Context, userID string) ([]ModuleSummary, error)
	GetModule(ctx context.Context, slug, userID string) (*ModuleDetail, error)
	GetLesson(ctx context.Context, moduleSlug, lessonSlug, userID string) (*Lesson, error)
	CompleteLesson(ctx context.Context, moduleSlug, lessonSlug, userID string) (*ModuleSummary, error)
}

type service struct {
	repo Repository

	mu      sync.RWMutex
	modules map[string]Module
}

func NewService(repo Repository) Service {
	return &service{repo: repo, modules: make(map[string]Module)}
}

func completionPct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return completed * 100 / total
}

func summarize(m Module, p ModuleProgress) ModuleSummary {
	return ModuleSummary{
		Module:         m,
		LessonCount:    p.Total,
		CompletedCount: p.Completed,
		CompletionPct:  completionPct(p.Completed, p.Total),
	}
}

func (s *service) SyncCatalog(ctx context.Context, c *Catalog) error {
	ids, err := s.repo.SyncCatalog(ctx, c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.modules = make(map[string]Module, len(ids))
	s.mu.Unlock()

	logger.Info().Int("modules", len(ids)).Msg("learning catalog synced")
	return nil
}

// module resolves a slug through the cache, falling back to the database.
func (s *service) module(ctx context.Context, slug string) (Module, error) {
	s.mu.RLock()
	m, ok := s.modules[slug]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	found, err := s.repo.FindModuleBySlug(ctx, slug)
	if err != nil {
		return Module{}, err
	}
	s.mu.Lock()
	s.modules[slug] = *found
	s.mu.Unlock()
	return *found, nil
}

func (s *service) ListModules(ctx context.Context, userID string) ([]ModuleSummary, error) {
	modules, err := s.repo.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.repo.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ModuleSummary, 0, len(modules))
	for _, m := range modules {
		out = append(out, summarize(m, progress[m.ID]))
	}
	return out, nil
}

func (s *service) GetModule(ctx context.Context, slug, userID string) (*ModuleDetail, error) {
	m, err := s.module(ctx, slug)
	if err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListLessons(ctx, m.ID, userID)
	if err != nil {
		return nil, err
	}

	p := ModuleProgress{ModuleID: m.ID, Total: len(lessons)}
	for _, l := range lessons {
		if l.CompletedAt != nil {
			p.Completed++
		}
	}
	return &ModuleDetail{ModuleSummary: summarize(m, p), Lessons: lessons}, nil
}

func (s *service) GetLesson(ctx context.Context, moduleSlug, lessonSlug, userID string) (*Lesson, error) {
	m, err := s.module(ctx, moduleSlug)
	if err != nil {
		return nil, err
	}
	return s.repo.FindLesson(ctx, m.ID, lessonSlug, userID)
}

func (s *service) CompleteLesson(ctx context.Context, moduleSlug, lessonSlug, userID string) (*ModuleSummary, error) {
	lesson, err := s.GetLesson(ctx, moduleSlug, lessonSlug, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkComplete(ctx, userID, lesson.ID); err != nil {
		return nil, err
	}
	detail, err := s.GetModule(ctx, moduleSlug, userID)
	if err != nil {
		return nil, err
	}
	return &detail.ModuleSummary, nil
}
