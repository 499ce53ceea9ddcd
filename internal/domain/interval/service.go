package interval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jsiebert/worklog/internal/repository"
)

// Service commits observed intervals while preserving disjointness. All
// mutations for one capture run inside a single repository transaction,
// so readers never see a partially resolved log.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new interval service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CaptureRequest describes one observed activity interval.
type CaptureRequest struct {
	Start       time.Time
	End         time.Time
	AppName     string
	WindowTitle string
	IsIdle      bool
	ProjectID   *string
}

// Capture inserts the observed interval, truncating, splitting or
// deleting any stored intervals it overlaps. The new interval always
// wins its own time range.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*Interval, error) {
	if !req.Start.Before(req.End) {
		return nil, ErrDegenerateInterval
	}

	iv := &Interval{
		ID:          uuid.NewString(),
		Start:       req.Start,
		End:         req.End,
		AppName:     req.AppName,
		WindowTitle: req.WindowTitle,
		IsIdle:      req.IsIdle,
		ProjectID:   req.ProjectID,
		CreatedAt:   time.Now(),
	}

	err := s.repo.InTx(ctx, func(tx Tx) error {
		overlapping, err := tx.Overlapping(ctx, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("querying overlaps: %w", err)
		}

		if len(overlapping) > 0 {
			muts := PlanMutations(req.Start, req.End, overlapping)
			deleted, truncated, _, err := ApplyMutations(ctx, tx, muts)
			if err != nil {
				return err
			}
			s.logger.Debug("resolved overlaps for capture",
				"app", req.AppName,
				"deleted", deleted,
				"truncated", truncated)
		}

		return tx.Insert(ctx, iv)
	})
	if err != nil {
		return nil, fmt.Errorf("committing interval: %w", err)
	}

	return iv, nil
}

// Get returns an interval by ID.
func (s *Service) Get(ctx context.Context, id string) (*Interval, error) {
	iv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIntervalNotFound
		}
		return nil, fmt.Errorf("getting interval: %w", err)
	}
	return iv, nil
}

// List returns intervals matching the options, ordered by start.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Interval, error) {
	return s.repo.List(ctx, opts)
}

// AssignProject sets or clears the project reference of one interval.
// Timestamps are untouched; project edits never affect disjointness.
func (s *Service) AssignProject(ctx context.Context, id string, projectID *string) error {
	if err := s.repo.AssignProject(ctx, id, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIntervalNotFound
		}
		return fmt.Errorf("assigning project: %w", err)
	}
	return nil
}

// AssignProjectByRange assigns every interval of one app inside the time
// range to a project. Returns the number of intervals updated.
func (s *Service) AssignProjectByRange(ctx context.Context, start, end time.Time, appName string, projectID *string) (int64, error) {
	if !start.Before(end) {
		return 0, ErrInvalidInput
	}
	n, err := s.repo.AssignProjectByRange(ctx, start, end, appName, projectID)
	if err != nil {
		return 0, fmt.Errorf("assigning project by range: %w", err)
	}
	return n, nil
}

// DeleteByRange removes every interval of one app inside the time range.
// Returns the number of intervals deleted.
func (s *Service) DeleteByRange(ctx context.Context, start, end time.Time, appName string) (int64, error) {
	if !start.Before(end) {
		return 0, ErrInvalidInput
	}
	n, err := s.repo.DeleteByRange(ctx, start, end, appName)
	if err != nil {
		return 0, fmt.Errorf("deleting by range: %w", err)
	}
	return n, nil
}
