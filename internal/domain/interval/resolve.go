package interval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MutationKind classifies a planned storage mutation.
type MutationKind string

const (
	// MutationDelete removes an existing interval entirely.
	MutationDelete MutationKind = "delete"
	// MutationTruncateEnd shortens an existing interval's End.
	MutationTruncateEnd MutationKind = "truncate_end"
	// MutationTruncateStart shortens an existing interval's Start.
	MutationTruncateStart MutationKind = "truncate_start"
	// MutationSplit replaces an existing interval with two fragments that
	// inherit its metadata.
	MutationSplit MutationKind = "split"
	// MutationMerge extends one interval to absorb another. Only produced
	// by repair compaction, never by live overlap resolution.
	MutationMerge MutationKind = "merge"
)

// Mutation is one planned change to an existing stored interval.
type Mutation struct {
	Kind   MutationKind `json:"kind"`
	Target Interval     `json:"target"`
	// NewStart/NewEnd carry the post-mutation bounds. For a split they
	// bound the hole: fragments become [Target.Start, NewStart) and
	// [NewEnd, Target.End).
	NewStart time.Time `json:"new_start,omitempty"`
	NewEnd   time.Time `json:"new_end,omitempty"`
	// Absorbed is the interval removed by a merge.
	Absorbed *Interval `json:"absorbed,omitempty"`
}

func (m Mutation) String() string {
	switch m.Kind {
	case MutationDelete:
		return fmt.Sprintf("delete %s [%s, %s)", m.Target.ID, m.Target.Start.Format(time.RFC3339), m.Target.End.Format(time.RFC3339))
	case MutationTruncateEnd:
		return fmt.Sprintf("truncate %s end to %s", m.Target.ID, m.NewEnd.Format(time.RFC3339))
	case MutationTruncateStart:
		return fmt.Sprintf("truncate %s start to %s", m.Target.ID, m.NewStart.Format(time.RFC3339))
	case MutationSplit:
		return fmt.Sprintf("split %s around [%s, %s)", m.Target.ID, m.NewStart.Format(time.RFC3339), m.NewEnd.Format(time.RFC3339))
	case MutationMerge:
		return fmt.Sprintf("merge %s into %s", m.Absorbed.ID, m.Target.ID)
	default:
		return string(m.Kind)
	}
}

// SplitResult returns the fragments a split mutation produces. Fragment
// IDs are assigned per call, so apply once.
func (m Mutation) SplitResult() []Interval {
	return splitFragments(m.Target, m.NewStart, m.NewEnd)
}

// PlanMutations computes the minimal mutation set that removes every
// overlap between the candidate range [start, end) and the given existing
// intervals. The candidate always wins its own time range; the caller
// inserts it separately. The function is pure so live capture and batch
// repair share one resolution rule.
func PlanMutations(start, end time.Time, overlapping []Interval) []Mutation {
	var muts []Mutation
	for _, ex := range overlapping {
		if !ex.Overlaps(start, end) {
			// Adjacent or disjoint neighbors are left untouched.
			continue
		}
		switch {
		case ex.containedIn(start, end):
			// Fully contained, including identical bounds (duplicate
			// observations de-duplicate here).
			muts = append(muts, Mutation{Kind: MutationDelete, Target: ex})
		case ex.Start.Before(start) && end.Before(ex.End):
			// Candidate falls strictly inside: split into two fragments.
			muts = append(muts, Mutation{Kind: MutationSplit, Target: ex, NewStart: start, NewEnd: end})
		case ex.Start.Before(start):
			// Overlaps only at its tail.
			muts = append(muts, Mutation{Kind: MutationTruncateEnd, Target: ex, NewStart: ex.Start, NewEnd: start})
		default:
			// Overlaps only at its head.
			muts = append(muts, Mutation{Kind: MutationTruncateStart, Target: ex, NewStart: end, NewEnd: ex.End})
		}
	}
	return muts
}

// ApplyMutations executes planned mutations against a transaction.
// Truncations that would leave a non-positive span delete the row
// instead. Returns counts of deleted, truncated and merged intervals.
func ApplyMutations(ctx context.Context, tx Tx, muts []Mutation) (deleted, truncated, merged int, err error) {
	for _, m := range muts {
		switch m.Kind {
		case MutationDelete:
			if err = tx.Delete(ctx, m.Target.ID); err != nil {
				return deleted, truncated, merged, fmt.Errorf("deleting interval %s: %w", m.Target.ID, err)
			}
			deleted++
		case MutationTruncateEnd:
			if !m.Target.Start.Before(m.NewEnd) {
				if err = tx.Delete(ctx, m.Target.ID); err != nil {
					return deleted, truncated, merged, fmt.Errorf("deleting collapsed interval %s: %w", m.Target.ID, err)
				}
				deleted++
				continue
			}
			if err = tx.UpdateBounds(ctx, m.Target.ID, m.Target.Start, m.NewEnd); err != nil {
				return deleted, truncated, merged, fmt.Errorf("truncating interval %s: %w", m.Target.ID, err)
			}
			truncated++
		case MutationTruncateStart:
			if !m.NewStart.Before(m.Target.End) {
				if err = tx.Delete(ctx, m.Target.ID); err != nil {
					return deleted, truncated, merged, fmt.Errorf("deleting collapsed interval %s: %w", m.Target.ID, err)
				}
				deleted++
				continue
			}
			if err = tx.UpdateBounds(ctx, m.Target.ID, m.NewStart, m.Target.End); err != nil {
				return deleted, truncated, merged, fmt.Errorf("truncating interval %s: %w", m.Target.ID, err)
			}
			truncated++
		case MutationSplit:
			if err = tx.Delete(ctx, m.Target.ID); err != nil {
				return deleted, truncated, merged, fmt.Errorf("deleting split interval %s: %w", m.Target.ID, err)
			}
			for _, frag := range splitFragments(m.Target, m.NewStart, m.NewEnd) {
				if err = tx.Insert(ctx, &frag); err != nil {
					return deleted, truncated, merged, fmt.Errorf("inserting split fragment of %s: %w", m.Target.ID, err)
				}
			}
			truncated++
		case MutationMerge:
			if err = tx.UpdateBounds(ctx, m.Target.ID, m.NewStart, m.NewEnd); err != nil {
				return deleted, truncated, merged, fmt.Errorf("extending interval %s: %w", m.Target.ID, err)
			}
			if err = tx.Delete(ctx, m.Absorbed.ID); err != nil {
				return deleted, truncated, merged, fmt.Errorf("deleting absorbed interval %s: %w", m.Absorbed.ID, err)
			}
			merged++
		default:
			return deleted, truncated, merged, fmt.Errorf("unknown mutation kind %q", m.Kind)
		}
	}
	return deleted, truncated, merged, nil
}

// splitFragments builds the two surviving fragments of a split. Both
// inherit the original interval's metadata, project assignment included,
// under fresh IDs.
func splitFragments(original Interval, holeStart, holeEnd time.Time) []Interval {
	var frags []Interval
	if original.Start.Before(holeStart) {
		frags = append(frags, Interval{
			ID:          uuid.NewString(),
			Start:       original.Start,
			End:         holeStart,
			AppName:     original.AppName,
			WindowTitle: original.WindowTitle,
			IsIdle:      original.IsIdle,
			ProjectID:   original.ProjectID,
			CreatedAt:   original.CreatedAt,
		})
	}
	if holeEnd.Before(original.End) {
		frags = append(frags, Interval{
			ID:          uuid.NewString(),
			Start:       holeEnd,
			End:         original.End,
			AppName:     original.AppName,
			WindowTitle: original.WindowTitle,
			IsIdle:      original.IsIdle,
			ProjectID:   original.ProjectID,
			CreatedAt:   original.CreatedAt,
		})
	}
	return frags
}
