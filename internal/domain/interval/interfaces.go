package interval

import (
	"context"
	"time"
)

// Tx is the mutation surface available inside one repository transaction.
// Everything a resolver commit does (truncate, delete, insert) happens
// through one Tx and applies atomically or not at all.
type Tx interface {
	Insert(ctx context.Context, iv *Interval) error
	Overlapping(ctx context.Context, start, end time.Time) ([]Interval, error)
	UpdateBounds(ctx context.Context, id string, start, end time.Time) error
	Delete(ctx context.Context, id string) error
}

// ViolationPair is two stored intervals whose [start, end) ranges
// overlap, breaking the disjointness invariant.
type ViolationPair struct {
	Earlier Interval
	Later   Interval
}

// Repository provides persistence for activity intervals.
type Repository interface {
	Tx

	Get(ctx context.Context, id string) (*Interval, error)
	// ViolatingPairs returns all overlapping pairs, ordered by the
	// earlier interval's start. A consistent log returns none.
	ViolatingPairs(ctx context.Context) ([]ViolationPair, error)
	List(ctx context.Context, opts ListOptions) ([]Interval, error)
	AssignProject(ctx context.Context, id string, projectID *string) error
	AssignProjectByRange(ctx context.Context, start, end time.Time, appName string, projectID *string) (int64, error)
	DeleteByRange(ctx context.Context, start, end time.Time, appName string) (int64, error)

	// InTx runs fn within a single transaction under the writer lock.
	// Readers observe either the pre- or post-commit state, never an
	// intermediate one.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
