package mcp

import (
	"errors"
	"fmt"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/domain/repair"
	"github.com/jsiebert/worklog/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, interval.ErrIntervalNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "interval not found", RecoveryHint: "Check the interval ID"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "project not found", RecoveryHint: "Use list_projects to find valid IDs"}
	case errors.Is(err, project.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: "a project with that name already exists"}
	case errors.Is(err, interval.ErrDegenerateInterval):
		return &APIError{Code: "CONSTRAINT_VIOLATION", Message: "interval start must be before its end"}
	case errors.Is(err, repository.ErrConstraint):
		return &APIError{Code: "CONSTRAINT_VIOLATION", Message: "storage constraint violated"}
	case errors.Is(err, repository.ErrLocked):
		return &APIError{Code: "RESOURCE_LOCKED", Message: "database is locked by another process", RecoveryHint: "Stop the other instance and retry"}
	case errors.Is(err, repair.ErrDivergence):
		return &APIError{Code: "REPAIR_DIVERGENCE", Message: "repair exceeded its mutation budget", RecoveryHint: "Inspect the data manually before retrying"}
	case errors.Is(err, interval.ErrInvalidInput), errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
