package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/repository"
)

// dbtx abstracts *sql.DB and *sql.Tx so the same statement helpers serve
// both autocommit calls and resolver transactions.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// IntervalRepository implements interval.Repository for SQLite.
// Timestamps are persisted as integer Unix seconds; the schema CHECK
// backs the non-degeneracy invariant at the lowest layer.
type IntervalRepository struct {
	db *DB
}

// NewIntervalRepository creates a new IntervalRepository.
func NewIntervalRepository(db *DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

const intervalColumns = `id, start_time, end_time, app_name, window_title, is_idle, project_id, created_at`

// Insert stores a new interval. Degenerate bounds are rejected with
// repository.ErrConstraint before reaching storage.
func (r *IntervalRepository) Insert(ctx context.Context, iv *interval.Interval) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		return insertInterval(ctx, tx, iv)
	})
}

// Get retrieves an interval by ID.
func (r *IntervalRepository) Get(ctx context.Context, id string) (*interval.Interval, error) {
	query := `SELECT ` + intervalColumns + ` FROM activities WHERE id = ?`

	iv, err := scanInterval(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interval: %w", err)
	}
	return iv, nil
}

// List returns intervals intersecting the requested range, ordered by
// start ascending.
func (r *IntervalRepository) List(ctx context.Context, opts interval.ListOptions) ([]interval.Interval, error) {
	query := `SELECT ` + intervalColumns + ` FROM activities WHERE 1=1`

	var args []any
	var conditions []string

	if !opts.Start.IsZero() {
		conditions = append(conditions, "end_time > ?")
		args = append(args, opts.Start.Unix())
	}
	if !opts.End.IsZero() {
		conditions = append(conditions, "start_time < ?")
		args = append(args, opts.End.Unix())
	}
	if opts.AppName != "" {
		conditions = append(conditions, "app_name = ?")
		args = append(args, opts.AppName)
	}
	if opts.IsIdle != nil {
		conditions = append(conditions, "is_idle = ?")
		args = append(args, boolToInt(*opts.IsIdle))
	}
	if opts.ProjectID != nil {
		if *opts.ProjectID == "" {
			conditions = append(conditions, "project_id IS NULL")
		} else {
			conditions = append(conditions, "project_id = ?")
			args = append(args, *opts.ProjectID)
		}
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals: %w", err)
	}
	defer rows.Close()

	return collectIntervals(rows)
}

// Overlapping returns stored intervals sharing any point in time with
// [start, end), ordered by start. Adjacency at the boundary is excluded
// by the strict comparisons.
func (r *IntervalRepository) Overlapping(ctx context.Context, start, end time.Time) ([]interval.Interval, error) {
	return overlappingIntervals(ctx, r.db, start, end)
}

// UpdateBounds rewrites an interval's timestamps.
func (r *IntervalRepository) UpdateBounds(ctx context.Context, id string, start, end time.Time) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		return updateIntervalBounds(ctx, tx, id, start, end)
	})
}

// Delete removes an interval.
func (r *IntervalRepository) Delete(ctx context.Context, id string) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		return deleteInterval(ctx, tx, id)
	})
}

// AssignProject sets or clears one interval's project reference.
func (r *IntervalRepository) AssignProject(ctx context.Context, id string, projectID *string) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE activities SET project_id = ? WHERE id = ?`,
			nullableString(projectID), id)
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to assign project: %w", err))
		}
		return requireRowAffected(result)
	})
}

// AssignProjectByRange assigns every interval of one app starting inside
// [start, end) to a project. Returns the number of rows updated.
func (r *IntervalRepository) AssignProjectByRange(ctx context.Context, start, end time.Time, appName string, projectID *string) (int64, error) {
	var affected int64
	err := r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE activities SET project_id = ?
			WHERE start_time >= ? AND start_time < ? AND app_name = ?`,
			nullableString(projectID), start.Unix(), end.Unix(), appName)
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to assign project by range: %w", err))
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

// DeleteByRange removes every interval of one app starting inside
// [start, end). Returns the number of rows deleted.
func (r *IntervalRepository) DeleteByRange(ctx context.Context, start, end time.Time, appName string) (int64, error) {
	var affected int64
	err := r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM activities
			WHERE start_time >= ? AND start_time < ? AND app_name = ?`,
			start.Unix(), end.Unix(), appName)
		if err != nil {
			return mapSQLError(fmt.Errorf("failed to delete by range: %w", err))
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

// ViolatingPairs returns all pairs of stored intervals that overlap,
// ordered by the earlier interval's start. Earlier/later ties on start
// break by ID so each pair appears once.
func (r *IntervalRepository) ViolatingPairs(ctx context.Context) ([]interval.ViolationPair, error) {
	query := `
		SELECT
			a.id, a.start_time, a.end_time, a.app_name, a.window_title, a.is_idle, a.project_id, a.created_at,
			b.id, b.start_time, b.end_time, b.app_name, b.window_title, b.is_idle, b.project_id, b.created_at
		FROM activities a
		JOIN activities b
		  ON (a.start_time < b.start_time OR (a.start_time = b.start_time AND a.id < b.id))
		 AND a.end_time > b.start_time
		ORDER BY a.start_time ASC, b.start_time ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query violating pairs: %w", err)
	}
	defer rows.Close()

	var pairs []interval.ViolationPair
	for rows.Next() {
		var a, b intervalRow
		if err := rows.Scan(
			&a.id, &a.start, &a.end, &a.app, &a.title, &a.idle, &a.project, &a.created,
			&b.id, &b.start, &b.end, &b.app, &b.title, &b.idle, &b.project, &b.created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan violating pair: %w", err)
		}
		pairs = append(pairs, interval.ViolationPair{Earlier: a.toInterval(), Later: b.toInterval()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violating pairs: %w", err)
	}
	return pairs, nil
}

// InTx runs fn inside one write transaction under the writer lock.
func (r *IntervalRepository) InTx(ctx context.Context, fn func(tx interval.Tx) error) error {
	return r.db.WriteTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&intervalTx{tx: sqlTx})
	})
}

// intervalTx exposes the mutation surface over an open transaction.
type intervalTx struct {
	tx *sql.Tx
}

func (t *intervalTx) Insert(ctx context.Context, iv *interval.Interval) error {
	return insertInterval(ctx, t.tx, iv)
}

func (t *intervalTx) Overlapping(ctx context.Context, start, end time.Time) ([]interval.Interval, error) {
	return overlappingIntervals(ctx, t.tx, start, end)
}

func (t *intervalTx) UpdateBounds(ctx context.Context, id string, start, end time.Time) error {
	return updateIntervalBounds(ctx, t.tx, id, start, end)
}

func (t *intervalTx) Delete(ctx context.Context, id string) error {
	return deleteInterval(ctx, t.tx, id)
}

func insertInterval(ctx context.Context, q dbtx, iv *interval.Interval) error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s",
			repository.ErrConstraint, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO activities (id, start_time, end_time, app_name, window_title, is_idle, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID,
		iv.Start.Unix(),
		iv.End.Unix(),
		iv.AppName,
		iv.WindowTitle,
		boolToInt(iv.IsIdle),
		nullableString(iv.ProjectID),
		iv.CreatedAt.Unix(),
	)
	if err != nil {
		return mapSQLError(fmt.Errorf("failed to insert interval: %w", err))
	}
	return nil
}

func overlappingIntervals(ctx context.Context, q dbtx, start, end time.Time) ([]interval.Interval, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+intervalColumns+` FROM activities
		WHERE start_time < ? AND end_time > ?
		ORDER BY start_time ASC, id ASC`,
		end.Unix(), start.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping intervals: %w", err)
	}
	defer rows.Close()

	return collectIntervals(rows)
}

func updateIntervalBounds(ctx context.Context, q dbtx, id string, start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s",
			repository.ErrConstraint, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	result, err := q.ExecContext(ctx,
		`UPDATE activities SET start_time = ?, end_time = ? WHERE id = ?`,
		start.Unix(), end.Unix(), id)
	if err != nil {
		return mapSQLError(fmt.Errorf("failed to update interval bounds: %w", err))
	}
	return requireRowAffected(result)
}

func deleteInterval(ctx context.Context, q dbtx, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return mapSQLError(fmt.Errorf("failed to delete interval: %w", err))
	}
	return requireRowAffected(result)
}

// intervalRow mirrors one activities row before conversion.
type intervalRow struct {
	id      string
	start   int64
	end     int64
	app     string
	title   string
	idle    int
	project sql.NullString
	created int64
}

func (r intervalRow) toInterval() interval.Interval {
	iv := interval.Interval{
		ID:          r.id,
		Start:       time.Unix(r.start, 0).UTC(),
		End:         time.Unix(r.end, 0).UTC(),
		AppName:     r.app,
		WindowTitle: r.title,
		IsIdle:      r.idle != 0,
		CreatedAt:   time.Unix(r.created, 0).UTC(),
	}
	if r.project.Valid {
		iv.ProjectID = &r.project.String
	}
	return iv
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterval(s rowScanner) (*interval.Interval, error) {
	var row intervalRow
	if err := s.Scan(&row.id, &row.start, &row.end, &row.app, &row.title, &row.idle, &row.project, &row.created); err != nil {
		return nil, err
	}
	iv := row.toInterval()
	return &iv, nil
}

func collectIntervals(rows *sql.Rows) ([]interval.Interval, error) {
	var intervals []interval.Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interval rows: %w", err)
	}
	return intervals, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
