package repository

import "context"

// SettingsRepository manages persisted key/value settings such as tracker
// overrides and the timestamp of the last completed repair run.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
