package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project. A duplicate name returns
// repository.ErrDuplicate.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, color, created_at, last_used)
			VALUES (?, ?, ?, ?, ?)`,
			proj.ID, proj.Name, proj.Color, proj.CreatedAt.Unix(), nullableUnix(proj.LastUsed))
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to create project: %w", err))
		}
		return nil
	})
}

// Get retrieves a project by ID.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	return r.getBy(ctx, `WHERE id = ?`, id)
}

// GetByName retrieves a project by its unique, case-sensitive name.
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	return r.getBy(ctx, `WHERE name = ?`, name)
}

func (r *ProjectRepository) getBy(ctx context.Context, where string, arg any) (*project.Project, error) {
	query := `SELECT id, name, color, created_at, last_used FROM projects ` + where

	var proj project.Project
	var created int64
	var lastUsed sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&proj.ID, &proj.Name, &proj.Color, &created, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	proj.CreatedAt = time.Unix(created, 0).UTC()
	if lastUsed.Valid {
		t := time.Unix(lastUsed.Int64, 0).UTC()
		proj.LastUsed = &t
	}
	return &proj, nil
}

// List returns all projects ordered by name.
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	return r.list(ctx, `SELECT id, name, color, created_at, last_used FROM projects ORDER BY name ASC`)
}

// ListRecentlyUsed returns projects with a last_used stamp, most recent
// first.
func (r *ProjectRepository) ListRecentlyUsed(ctx context.Context, limit int) ([]project.Project, error) {
	return r.list(ctx, `
		SELECT id, name, color, created_at, last_used FROM projects
		WHERE last_used IS NOT NULL
		ORDER BY last_used DESC
		LIMIT ?`, limit)
}

func (r *ProjectRepository) list(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var proj project.Project
		var created int64
		var lastUsed sql.NullInt64
		if err := rows.Scan(&proj.ID, &proj.Name, &proj.Color, &created, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		proj.CreatedAt = time.Unix(created, 0).UTC()
		if lastUsed.Valid {
			t := time.Unix(lastUsed.Int64, 0).UTC()
			proj.LastUsed = &t
		}
		projects = append(projects, proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

// Delete removes a project. The activities foreign key is declared
// ON DELETE SET NULL, so interval history survives with the assignment
// cleared.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to delete project: %w", err))
		}
		return requireRowAffected(result)
	})
}

// TouchLastUsed stamps the project's last_used timestamp.
func (r *ProjectRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE projects SET last_used = ? WHERE id = ?`, at.Unix(), id)
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to touch project: %w", err))
		}
		return requireRowAffected(result)
	})
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
