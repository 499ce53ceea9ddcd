package main

import (
	"github.com/jsiebert/worklog/internal/domain/tracking"
)

// newPlatformSource returns the foreground-activity source for this
// platform. TODO: wire the OS window pollers behind build tags; until
// then serve runs the query surface only.
func newPlatformSource() tracking.Source {
	return nil
}
