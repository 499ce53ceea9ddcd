package repair

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/repository"
)

// SettingLastRun is the settings key stamped after a completed repair.
const SettingLastRun = "repair.last_run_at"

// Options controls a repair run.
type Options struct {
	// DropOverlappedIdle deletes idle intervals fully covered by a
	// non-idle one before the generic pairwise pass. Idle observations
	// are lower-confidence.
	DropOverlappedIdle bool
	// Compact merges adjacent intervals with identical app, title,
	// project and idle flag when the gap between them is below
	// CompactGap. Lossy with respect to original granularity, so it must
	// be requested explicitly.
	Compact    bool
	CompactGap time.Duration
	// BudgetFactor scales the mutation budget relative to the initial
	// violation count. Zero means DefaultBudgetFactor.
	BudgetFactor int
}

// DefaultBudgetFactor bounds repair at 4 pair resolutions per initially
// found violation (plus a small floor): a split introduces at most two
// new pairs, so a diverging run signals corrupt data, not progress.
const DefaultBudgetFactor = 4

const budgetFloor = 16

// Report summarizes the mutations a repair run applied.
type Report struct {
	InitialViolations int `json:"initial_violations"`
	Deleted           int `json:"deleted"`
	Truncated         int `json:"truncated"`
	Merged            int `json:"merged"`
}

// Engine restores disjointness on a log written by parties that bypassed
// the overlap resolver. It reuses the resolver's planning rule pairwise,
// re-evaluating violations after every mutation until a fixed point.
type Engine struct {
	repo     interval.Repository
	settings repository.SettingsRepository
	logger   *slog.Logger
}

// NewEngine creates a repair engine. settings may be nil; the last-run
// stamp is then skipped.
func NewEngine(repo interval.Repository, settings repository.SettingsRepository, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, settings: settings, logger: logger}
}

// FindViolations returns all currently overlapping pairs, ordered by the
// earlier interval's start.
func (e *Engine) FindViolations(ctx context.Context) ([]interval.ViolationPair, error) {
	return e.repo.ViolatingPairs(ctx)
}

// Preview computes the full mutation sequence a repair run would apply,
// without touching storage.
func (e *Engine) Preview(ctx context.Context, opts Options) ([]interval.Mutation, error) {
	snapshot, err := e.repo.List(ctx, interval.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	sim := newSimulation(snapshot)
	budget := budgetFor(sim.countViolations(), opts)

	var planned []interval.Mutation
	for {
		pair, ok := sim.firstViolation()
		if !ok {
			break
		}
		if budget == 0 {
			return planned, fmt.Errorf("%w after %d planned mutations", ErrDivergence, len(planned))
		}
		budget--

		muts := resolvePair(pair, opts)
		planned = append(planned, muts...)
		sim.apply(muts)
	}

	if opts.Compact {
		merges := sim.compactionMerges(opts.CompactGap)
		planned = append(planned, merges...)
	}

	return planned, nil
}

// Apply repairs the log in place. Each pair resolution commits in its own
// transaction and violations are re-read from storage before the next
// step, so a split's new fragments are themselves checked. Running Apply
// on an already consistent log performs zero mutations.
func (e *Engine) Apply(ctx context.Context, opts Options) (Report, error) {
	initial, err := e.repo.ViolatingPairs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("finding violations: %w", err)
	}

	report := Report{InitialViolations: len(initial)}
	budget := budgetFor(len(initial), opts)

	pairs := initial
	for len(pairs) > 0 {
		if budget == 0 {
			e.logRemaining(pairs)
			return report, fmt.Errorf("%w: %d pairs remain", ErrDivergence, len(pairs))
		}
		budget--

		muts := resolvePair(pairs[0], opts)
		err := e.repo.InTx(ctx, func(tx interval.Tx) error {
			deleted, truncated, merged, err := interval.ApplyMutations(ctx, tx, muts)
			if err != nil {
				return err
			}
			report.Deleted += deleted
			report.Truncated += truncated
			report.Merged += merged
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("applying repair mutations: %w", err)
		}

		pairs, err = e.repo.ViolatingPairs(ctx)
		if err != nil {
			return report, fmt.Errorf("re-checking violations: %w", err)
		}
	}

	if opts.Compact {
		merged, err := e.compact(ctx, opts.CompactGap)
		if err != nil {
			return report, err
		}
		report.Merged += merged
	}

	if e.settings != nil {
		if err := e.settings.Set(ctx, SettingLastRun, time.Now().UTC().Format(time.RFC3339)); err != nil {
			e.logger.Warn("failed to record repair run", "error", err)
		}
	}

	e.logger.Info("repair completed",
		"initial_violations", report.InitialViolations,
		"deleted", report.Deleted,
		"truncated", report.Truncated,
		"merged", report.Merged)
	return report, nil
}

// compact merges fragmentation left by short polling windows. Only runs
// on a consistent log.
func (e *Engine) compact(ctx context.Context, gap time.Duration) (int, error) {
	snapshot, err := e.repo.List(ctx, interval.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("loading snapshot for compaction: %w", err)
	}

	sim := newSimulation(snapshot)
	merges := sim.compactionMerges(gap)
	if len(merges) == 0 {
		return 0, nil
	}

	var merged int
	err = e.repo.InTx(ctx, func(tx interval.Tx) error {
		_, _, m, err := interval.ApplyMutations(ctx, tx, merges)
		merged = m
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("applying compaction: %w", err)
	}
	return merged, nil
}

func (e *Engine) logRemaining(pairs []interval.ViolationPair) {
	for _, p := range pairs {
		e.logger.Error("unresolved overlap",
			"earlier_id", p.Earlier.ID,
			"earlier_start", p.Earlier.Start,
			"earlier_end", p.Earlier.End,
			"later_id", p.Later.ID,
			"later_start", p.Later.Start,
			"later_end", p.Later.End)
	}
}

func budgetFor(initialViolations int, opts Options) int {
	factor := opts.BudgetFactor
	if factor <= 0 {
		factor = DefaultBudgetFactor
	}
	budget := factor * initialViolations
	if budget < budgetFloor {
		budget = budgetFloor
	}
	return budget
}

// resolvePair resolves one overlapping pair with the same rule the live
// resolver uses: the later-starting interval is treated as the candidate
// and wins its time range. The idle heuristic, when enabled, takes
// precedence.
func resolvePair(pair interval.ViolationPair, opts Options) []interval.Mutation {
	earlier, later := pair.Earlier, pair.Later

	if opts.DropOverlappedIdle {
		if earlier.IsIdle && !later.IsIdle && coveredBy(earlier, later) {
			return []interval.Mutation{{Kind: interval.MutationDelete, Target: earlier}}
		}
		if later.IsIdle && !earlier.IsIdle && coveredBy(later, earlier) {
			return []interval.Mutation{{Kind: interval.MutationDelete, Target: later}}
		}
	}

	return interval.PlanMutations(later.Start, later.End, []interval.Interval{earlier})
}

func coveredBy(inner, outer interval.Interval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// simulation replays repair mutations against an in-memory copy of the
// log for previews.
type simulation struct {
	intervals []interval.Interval
}

func newSimulation(snapshot []interval.Interval) *simulation {
	copied := make([]interval.Interval, len(snapshot))
	copy(copied, snapshot)
	sim := &simulation{intervals: copied}
	sim.sort()
	return sim
}

func (s *simulation) sort() {
	sort.Slice(s.intervals, func(i, j int) bool {
		a, b := s.intervals[i], s.intervals[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
}

func (s *simulation) countViolations() int {
	count := 0
	for i := range s.intervals {
		for j := i + 1; j < len(s.intervals); j++ {
			if !s.intervals[j].Start.Before(s.intervals[i].End) {
				break
			}
			count++
		}
	}
	return count
}

func (s *simulation) firstViolation() (interval.ViolationPair, bool) {
	for i := range s.intervals {
		for j := i + 1; j < len(s.intervals); j++ {
			if !s.intervals[j].Start.Before(s.intervals[i].End) {
				break
			}
			return interval.ViolationPair{Earlier: s.intervals[i], Later: s.intervals[j]}, true
		}
	}
	return interval.ViolationPair{}, false
}

func (s *simulation) apply(muts []interval.Mutation) {
	for _, m := range muts {
		switch m.Kind {
		case interval.MutationDelete:
			s.remove(m.Target.ID)
		case interval.MutationTruncateEnd:
			if !m.Target.Start.Before(m.NewEnd) {
				s.remove(m.Target.ID)
				continue
			}
			s.setBounds(m.Target.ID, m.Target.Start, m.NewEnd)
		case interval.MutationTruncateStart:
			if !m.NewStart.Before(m.Target.End) {
				s.remove(m.Target.ID)
				continue
			}
			s.setBounds(m.Target.ID, m.NewStart, m.Target.End)
		case interval.MutationSplit:
			s.remove(m.Target.ID)
			s.intervals = append(s.intervals, m.SplitResult()...)
		case interval.MutationMerge:
			s.setBounds(m.Target.ID, m.NewStart, m.NewEnd)
			s.remove(m.Absorbed.ID)
		}
	}
	s.sort()
}

func (s *simulation) remove(id string) {
	for i := range s.intervals {
		if s.intervals[i].ID == id {
			s.intervals = append(s.intervals[:i], s.intervals[i+1:]...)
			return
		}
	}
}

func (s *simulation) setBounds(id string, start, end time.Time) {
	for i := range s.intervals {
		if s.intervals[i].ID == id {
			s.intervals[i].Start = start
			s.intervals[i].End = end
			return
		}
	}
}

// compactionMerges plans merges of same-activity runs separated by less
// than gap. Requires a consistent, sorted log.
func (s *simulation) compactionMerges(gap time.Duration) []interval.Mutation {
	if gap <= 0 {
		return nil
	}

	var merges []interval.Mutation
	i := 0
	for i < len(s.intervals) {
		target := s.intervals[i]
		j := i + 1
		for j < len(s.intervals) {
			next := s.intervals[j]
			if !target.SameActivity(next) || next.Start.Sub(target.End) >= gap {
				break
			}
			absorbed := next
			target.End = next.End
			merges = append(merges, interval.Mutation{
				Kind:     interval.MutationMerge,
				Target:   s.intervals[i],
				NewStart: target.Start,
				NewEnd:   target.End,
				Absorbed: &absorbed,
			})
			j++
		}
		i = j
	}
	return merges
}
