package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/repository"
)

var testEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return testEpoch.Add(time.Duration(sec) * time.Second)
}

func seedInterval(t *testing.T, repo *IntervalRepository, id string, start, end int, app string) {
	t.Helper()
	err := repo.Insert(context.Background(), &interval.Interval{
		ID:        id,
		Start:     at(start),
		End:       at(end),
		AppName:   app,
		CreatedAt: testEpoch,
	})
	require.NoError(t, err)
}

func TestIntervalRepository_InsertAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	iv := &interval.Interval{
		ID:          "iv1",
		Start:       at(0),
		End:         at(300),
		AppName:     "editor",
		WindowTitle: "main.go - project",
		IsIdle:      false,
		CreatedAt:   testEpoch,
	}
	require.NoError(t, repo.Insert(ctx, iv))

	got, err := repo.Get(ctx, "iv1")
	require.NoError(t, err)
	require.Equal(t, "iv1", got.ID)
	require.True(t, got.Start.Equal(at(0)))
	require.True(t, got.End.Equal(at(300)))
	require.Equal(t, "editor", got.AppName)
	require.Equal(t, "main.go - project", got.WindowTitle)
	require.False(t, got.IsIdle)
	require.Nil(t, got.ProjectID)
	require.Equal(t, 300*time.Second, got.Duration())
}

func TestIntervalRepository_InsertRejectsDegenerate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	err := repo.Insert(ctx, &interval.Interval{
		ID: "iv1", Start: at(100), End: at(100), AppName: "editor", CreatedAt: testEpoch,
	})
	require.ErrorIs(t, err, repository.ErrConstraint)

	err = repo.Insert(ctx, &interval.Interval{
		ID: "iv2", Start: at(200), End: at(100), AppName: "editor", CreatedAt: testEpoch,
	})
	require.ErrorIs(t, err, repository.ErrConstraint)
}

func TestIntervalRepository_GetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIntervalRepository_Overlapping(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 100, "editor")
	seedInterval(t, repo, "b", 100, 200, "browser")
	seedInterval(t, repo, "c", 200, 300, "terminal")

	// [90, 210) touches all three.
	got, err := repo.Overlapping(ctx, at(90), at(210))
	require.NoError(t, err)
	require.Len(t, got, 3)

	// [100, 200) overlaps only b; a and c are adjacent, not overlapping.
	got, err = repo.Overlapping(ctx, at(100), at(200))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].ID)

	// Zero-width probes at a boundary match nothing.
	got, err = repo.Overlapping(ctx, at(300), at(400))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIntervalRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	projects := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, &project.Project{
		ID: "p1", Name: "worklog", Color: "#fff", CreatedAt: testEpoch,
	}))

	p1 := "p1"
	require.NoError(t, repo.Insert(ctx, &interval.Interval{
		ID: "a", Start: at(0), End: at(100), AppName: "editor", ProjectID: &p1, CreatedAt: testEpoch,
	}))
	seedInterval(t, repo, "b", 100, 200, "browser")
	idle := &interval.Interval{
		ID: "c", Start: at(200), End: at(300), AppName: "editor", IsIdle: true, CreatedAt: testEpoch,
	}
	require.NoError(t, repo.Insert(ctx, idle))

	all, err := repo.List(ctx, interval.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	byApp, err := repo.List(ctx, interval.ListOptions{AppName: "editor"})
	require.NoError(t, err)
	require.Len(t, byApp, 2)

	active := false
	byIdle, err := repo.List(ctx, interval.ListOptions{IsIdle: &active})
	require.NoError(t, err)
	require.Len(t, byIdle, 2)

	byProject, err := repo.List(ctx, interval.ListOptions{ProjectID: &p1})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	require.Equal(t, "a", byProject[0].ID)

	unassigned := ""
	noProject, err := repo.List(ctx, interval.ListOptions{ProjectID: &unassigned})
	require.NoError(t, err)
	require.Len(t, noProject, 2)

	ranged, err := repo.List(ctx, interval.ListOptions{Start: at(100), End: at(200)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "b", ranged[0].ID)

	limited, err := repo.List(ctx, interval.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestIntervalRepository_UpdateBounds(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 300, "editor")

	require.NoError(t, repo.UpdateBounds(ctx, "a", at(0), at(150)))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, got.End.Equal(at(150)))
	require.Equal(t, 150*time.Second, got.Duration())

	err = repo.UpdateBounds(ctx, "a", at(150), at(150))
	require.ErrorIs(t, err, repository.ErrConstraint)

	err = repo.UpdateBounds(ctx, "missing", at(0), at(10))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIntervalRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 100, "editor")

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err := repo.Get(ctx, "a")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, "a"), repository.ErrNotFound)
}

func TestIntervalRepository_AssignProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	projects := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, &project.Project{
		ID: "p1", Name: "worklog", Color: "#fff", CreatedAt: testEpoch,
	}))
	seedInterval(t, repo, "a", 0, 100, "editor")

	p1 := "p1"
	require.NoError(t, repo.AssignProject(ctx, "a", &p1))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.ProjectID)
	require.Equal(t, "p1", *got.ProjectID)

	// Clearing the assignment.
	require.NoError(t, repo.AssignProject(ctx, "a", nil))
	got, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, got.ProjectID)

	// Unknown project violates the foreign key.
	bogus := "nope"
	err = repo.AssignProject(ctx, "a", &bogus)
	require.Error(t, err)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestIntervalRepository_AssignProjectByRange(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	projects := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, &project.Project{
		ID: "p1", Name: "worklog", Color: "#fff", CreatedAt: testEpoch,
	}))
	seedInterval(t, repo, "a", 0, 100, "editor")
	seedInterval(t, repo, "b", 100, 200, "editor")
	seedInterval(t, repo, "c", 200, 300, "browser")

	p1 := "p1"
	n, err := repo.AssignProjectByRange(ctx, at(0), at(300), "editor", &p1)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	got, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	require.Nil(t, got.ProjectID, "other apps must be untouched")
}

func TestIntervalRepository_DeleteByRange(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 100, "editor")
	seedInterval(t, repo, "b", 100, 200, "editor")
	seedInterval(t, repo, "c", 200, 300, "editor")

	n, err := repo.DeleteByRange(ctx, at(0), at(200), "editor")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	remaining, err := repo.List(ctx, interval.ListOptions{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "c", remaining[0].ID)
}

func TestIntervalRepository_ViolatingPairs(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	// Disjoint log: no violations.
	seedInterval(t, repo, "a", 0, 100, "editor")
	seedInterval(t, repo, "b", 100, 200, "browser")

	pairs, err := repo.ViolatingPairs(ctx)
	require.NoError(t, err)
	require.Empty(t, pairs)

	// Overlap b with c.
	seedInterval(t, repo, "c", 150, 250, "terminal")

	pairs, err = repo.ViolatingPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "b", pairs[0].Earlier.ID)
	require.Equal(t, "c", pairs[0].Later.ID)
}

func TestIntervalRepository_ViolatingPairsIdenticalStarts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 100, "editor")
	seedInterval(t, repo, "b", 0, 100, "editor")

	pairs, err := repo.ViolatingPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1, "duplicate rows must appear as exactly one pair")
	require.Equal(t, "a", pairs[0].Earlier.ID)
	require.Equal(t, "b", pairs[0].Later.ID)
}

func TestIntervalRepository_InTxAtomicity(t *testing.T) {
	db := NewTestDB(t)
	repo := NewIntervalRepository(db)
	ctx := context.Background()

	seedInterval(t, repo, "a", 0, 100, "editor")

	sentinel := errors.New("abort")
	err := repo.InTx(ctx, func(tx interval.Tx) error {
		if err := tx.Delete(ctx, "a"); err != nil {
			return err
		}
		if err := tx.Insert(ctx, &interval.Interval{
			ID: "b", Start: at(0), End: at(50), AppName: "editor", CreatedAt: testEpoch,
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Neither the delete nor the insert is visible.
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
	_, err = repo.Get(ctx, "b")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
