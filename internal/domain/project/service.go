package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsiebert/worklog/internal/repository"
)

// DefaultColor is used when a project is created without a display color.
const DefaultColor = "#3498db"

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name  string
	Color string
}

// Create creates a new project. Names are unique and case-sensitive.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	color := req.Color
	if color == "" {
		color = DefaultColor
	}

	proj := &Project{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Color:     color,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// GetByName fetches a project by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*Project, error) {
	proj, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project by name: %w", err)
	}
	return proj, nil
}

// List returns all projects ordered by name.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// Delete removes a project. Intervals referencing it keep their
// timestamps and lose only the assignment.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("deleted project, interval references cleared", "project_id", id)
	return nil
}

// MarkUsed stamps the project's last_used timestamp.
func (s *Service) MarkUsed(ctx context.Context, id string) error {
	if err := s.repo.TouchLastUsed(ctx, id, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("marking project used: %w", err)
	}
	return nil
}

// RecentlyUsed returns projects ordered by most recent assignment.
func (s *Service) RecentlyUsed(ctx context.Context, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.ListRecentlyUsed(ctx, limit)
}
