package project

import (
	"context"
	"time"
)

// Repository provides persistence for projects. Delete nulls out interval
// references rather than cascading, so historical records survive project
// deletion.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	Delete(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	ListRecentlyUsed(ctx context.Context, limit int) ([]Project, error)
}
