package interval

import "time"

// ListOptions provides filtering options for listing intervals. The time
// range is inclusive-start, exclusive-end. Results are ordered by Start
// ascending.
type ListOptions struct {
	Start     time.Time
	End       time.Time
	ProjectID *string
	AppName   string
	IsIdle    *bool
	Limit     int
}
