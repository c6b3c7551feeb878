package education

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Module struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Position    int    `json:"position"`
}

type Lesson struct {
	ID              int        `json:"id"`
	ModuleID        int        `json:"module_id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Content         string     `json:"content,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Position        int        `json:"position"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type ModuleProgress struct {
	ModuleID  int
	Total     int
	Completed int
}

type Repository interface {
	SyncCatalog(ctx context.Context, c *Catalog) (map[string]int, error)
	ListModules(ctx context.Context) ([]Module, error)
	FindModuleBySlug(ctx context.Context, slug string) (*Module, error)
	ListLessons(ctx context.Context, moduleID int, userID string) ([]Lesson, error)
	FindLesson(ctx context.Context, moduleID int, slug string, userID string) (*Lesson, error)
	MarkComplete(ctx context.Context, userID string, lessonID int) error
	Progress(ctx context.Context, userID string) (map[int]ModuleProgress, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error().Err(err).Msg("Error during transaction rollback")
	}
}

// SyncCatalog upserts every module and lesson in one transaction and returns
// the module ids keyed by slug. Rows missing from the catalog are kept so
// existing progress survives content edits.
func (r *repository) SyncCatalog(ctx context.Context, c *Catalog) (map[string]int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer safeRollback(tx)

	ids := make(map[string]int, len(c.Modules))
	for i, m := range c.Modules {
		var moduleID int
		err := tx.QueryRowContext(ctx,
			`INSERT INTO learning_modules (slug, title, description, level, position)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (slug) DO UPDATE SET
                title = EXCLUDED.title,
                description = EXCLUDED.description,
                level = EXCLUDED.level,
                position = EXCLUDED.position
            RETURNING id`,
			m.Slug, m.Title, m.Description, m.Level, i+1).Scan(&moduleID)
		if err != nil {
			return nil, err
		}
		ids[m.Slug] = moduleID

		for j, l := range m.Lessons {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO education_lessons (module_id, slug, title, content, duration_minutes, position)
                VALUES ($1, $2, $3, $4, $5, $6)
                ON CONFLICT (module_id, slug) DO UPDATE SET
                    title = EXCLUDED.title,
                    content = EXCLUDED.content,
                    duration_minutes = EXCLUDED.duration_minutes,
                    position = EXCLUDED.position`,
				moduleID, l.Slug, l.Title, l.Content, l.DurationMinutes, j+1)
			if err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, slug, title, description, level, position FROM learning_modules ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modules := []Module{}
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Slug, &m.Title, &m.Description, &m.Level, &m.Position); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *repository) FindModuleBySlug(ctx context.Context, slug string) (*Module, error) {
	var m Module
	err := r.db.QueryRowContext(ctx,
		`SELECT id, slug, title, description, level, position FROM learning_modules WHERE slug = $1`, slug,
	).Scan(&m.ID, &m.Slug, &m.Title, &m.Description, &m.Level, &m.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListLessons(ctx context.Context, moduleID int, userID string) ([]Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.module_id, l.slug, l.title, l.duration_minutes, l.position, p.completed_at
        FROM education_lessons l
        LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.user_id = $2
        WHERE l.module_id = $1
        ORDER BY l.position, l.id`, moduleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Slug, &l.Title, &l.DurationMinutes, &l.Position, &l.CompletedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *repository) FindLesson(ctx context.Context, moduleID int, slug string, userID string) (*Lesson, error) {
	var l Lesson
	err := r.db.QueryRowContext(ctx,
		`SELECT l.id, l.module_id, l.slug, l.title, l.content, l.duration_minutes, l.position, p.completed_at
        FROM education_lessons l
        LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.user_id = $3
        WHERE l.module_id = $1 AND l.slug = $2`, moduleID, slug, userID,
	).Scan(&l.ID, &l.ModuleID, &l.Slug, &l.Title, &l.Content, &l.DurationMinutes, &l.Position, &l.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkComplete is idempotent; the first completion time is kept.
func (r *repository) MarkComplete(ctx context.Context, userID string, lessonID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, lessonID)
	return err
}

func (r *repository) Progress(ctx context.Context, userID string) (map[int]ModuleProgress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.module_id, COUNT(*), COUNT(p.lesson_id)
        FROM education_lessons l
        LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.user_id = $1
        GROUP BY l.module_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make(map[int]ModuleProgress)
	for rows.Next() {
		var p ModuleProgress
		if err := rows.Scan(&p.ModuleID, &p.Total, &p.Completed); err != nil {
			return nil, err
		}
		progress[p.ModuleID] = p
	}
	return progress, rows.Err()
}
