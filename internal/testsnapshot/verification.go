package testsnapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

const (
	selfAlignment   = 100.0
	rankedPairCount = 3
)

// Results is everything fetched back from the service for one snapshot.
type Results struct {
	Summary   Summary
	Alignment Alignment
	Profiles  map[string]Profile
	Agenda    []Meeting
	Items     []AgendaItemDetail
}

// Verify checks the fetched analytics against the generated snapshot and the
// invariants every response must hold. All failures are joined.
func Verify(ctx context.Context, snap model.Snapshot, res Results, stats *Stats) error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"participation", func() error { return verifyParticipation(snap, res.Summary) }},
		{"matrix", func() error { return verifyMatrix(res.Alignment) }},
		{"ranking", func() error { return verifyRanking(res.Alignment) }},
		{"profiles", func() error { return verifyProfiles(res.Alignment, res.Profiles) }},
		{"agenda", func() error { return verifyAgenda(snap, res.Agenda) }},
		{"agenda_items", func() error { return verifyAgendaItems(snap, res.Items) }},
	}

	var errs []error
	for _, c := range checks {
		if err := c.fn(); err != nil {
			logger.Get().Error(ctx, "check failed", logger.String("check", c.name), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		logger.Get().Debug(ctx, "check passed", logger.String("check", c.name))
		if stats != nil {
			stats.ChecksPassed++
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
	}
	return nil
}

// verifyParticipation checks member counts and that rows are ordered by
// vote count, highest first.
func verifyParticipation(snap model.Snapshot, s Summary) error {
	if s.TotalMembers != snap.MemberAnalysis.Len() {
		return fmt.Errorf("total_members %d, generated %d", s.TotalMembers, snap.MemberAnalysis.Len())
	}
	if len(s.MemberParticipation) != s.TotalMembers {
		return fmt.Errorf("%d participation rows for %d members", len(s.MemberParticipation), s.TotalMembers)
	}
	if s.ActiveMembers > s.TotalMembers {
		return fmt.Errorf("active_members %d exceeds total %d", s.ActiveMembers, s.TotalMembers)
	}
	for i, row := range s.MemberParticipation {
		if i > 0 && row.Votes > s.MemberParticipation[i-1].Votes {
			return fmt.Errorf("row %d (%s) has more votes than row %d", i, row.Name, i-1)
		}
		if row.AyePercentage < 0 || row.AyePercentage > 100 {
			return fmt.Errorf("%s aye_percentage %.1f out of range", row.Name, row.AyePercentage)
		}
		stats, ok := snap.MemberAnalysis.Get(row.Name)
		if !ok {
			return fmt.Errorf("unknown member %q in summary", row.Name)
		}
		if stats.TotalVotes != row.Votes {
			return fmt.Errorf("%s has %d votes, generated %d", row.Name, row.Votes, stats.TotalVotes)
		}
	}
	return nil
}

// verifyMatrix checks the matrix is square, symmetric, bounded and has a
// diagonal of 100.
func verifyMatrix(a Alignment) error {
	if len(a.Matrix) != len(a.Members) {
		return fmt.Errorf("matrix has %d rows for %d members", len(a.Matrix), len(a.Members))
	}
	for _, m := range a.Members {
		row, ok := a.Matrix[m]
		if !ok {
			return fmt.Errorf("missing row for %s", m)
		}
		if len(row) != len(a.Members) {
			return fmt.Errorf("row %s has %d cells", m, len(row))
		}
		if row[m] != selfAlignment {
			return fmt.Errorf("diagonal for %s is %.1f", m, row[m])
		}
		for _, o := range a.Members {
			v, ok := row[o]
			if !ok {
				return fmt.Errorf("missing cell %s/%s", m, o)
			}
			if v < 0 || v > 100 {
				return fmt.Errorf("cell %s/%s = %.1f out of range", m, o, v)
			}
			if w := a.Matrix[o][m]; w != v {
				return fmt.Errorf("asymmetric cell %s/%s: %.1f vs %.1f", m, o, v, w)
			}
		}
	}
	return nil
}

// verifyRanking checks list sizes against the number of pairs, the
// ordering within each list, and that every score matches the matrix.
func verifyRanking(a Alignment) error {
	n := len(a.Members)
	pairs := n * (n - 1) / 2

	if want := min(rankedPairCount, pairs); len(a.MostAligned) != want {
		return fmt.Errorf("most_aligned has %d pairs, want %d", len(a.MostAligned), want)
	}
	wantLeast := 0
	if pairs >= rankedPairCount {
		wantLeast = rankedPairCount
	}
	if len(a.LeastAligned) != wantLeast {
		return fmt.Errorf("least_aligned has %d pairs, want %d", len(a.LeastAligned), wantLeast)
	}

	for _, list := range [][]Pair{a.MostAligned, a.LeastAligned} {
		for i, p := range list {
			if p.Member1 >= p.Member2 {
				return fmt.Errorf("pair %s/%s not ordered by name", p.Member1, p.Member2)
			}
			if got := a.Matrix[p.Member1][p.Member2]; got != p.Score {
				return fmt.Errorf("pair %s/%s score %.1f, matrix %.1f", p.Member1, p.Member2, p.Score, got)
			}
			if i > 0 && p.Score > list[i-1].Score {
				return fmt.Errorf("pair list not sorted at %d", i)
			}
		}
	}

	if len(a.MostAligned) > 0 && len(a.LeastAligned) > 0 &&
		a.MostAligned[0].Score < a.LeastAligned[len(a.LeastAligned)-1].Score {
		return errors.New("most aligned pair scores below least aligned pair")
	}
	return nil
}

// verifyProfiles checks each profile's agreements against the matrix. A
// member absent from a profile's agreement list never shared a comparable
// vote, so the matrix must score that pair 0.
func verifyProfiles(a Alignment, profiles map[string]Profile) error {
	for name, p := range profiles {
		if p.MemberName != name {
			return fmt.Errorf("profile for %s names %s", name, p.MemberName)
		}

		seen := make(map[string]bool, len(p.Agreements))
		for i, ag := range p.Agreements {
			if ag.Comparisons < 1 {
				return fmt.Errorf("%s lists %s with no comparisons", name, ag.Member)
			}
			if i > 0 && ag.AgreementPercentage > p.Agreements[i-1].AgreementPercentage {
				return fmt.Errorf("%s agreements not sorted at %d", name, i)
			}
			if got := a.Matrix[name][ag.Member]; got != ag.AgreementPercentage {
				return fmt.Errorf("%s/%s agreement %.1f, matrix %.1f", name, ag.Member, ag.AgreementPercentage, got)
			}
			seen[ag.Member] = true
		}

		for _, other := range a.Members {
			if other == name || seen[other] {
				continue
			}
			if got := a.Matrix[name][other]; got != 0 {
				return fmt.Errorf("%s omits %s but matrix scores %.1f", name, other, got)
			}
		}
	}
	return nil
}

// verifyAgenda checks every generated record appears once and meetings are
// listed newest first.
func verifyAgenda(snap model.Snapshot, meetings []Meeting) error {
	ids := make(map[string]int, len(snap.Votes))
	for i, m := range meetings {
		if i > 0 && m.MeetingDate > meetings[i-1].MeetingDate {
			return fmt.Errorf("meeting %s listed after older %s", m.MeetingDate, meetings[i-1].MeetingDate)
		}
		for _, item := range m.AgendaItems {
			ids[item.ExampleID]++
		}
	}

	for _, rec := range snap.Votes {
		switch ids[rec.ExampleID] {
		case 1:
		case 0:
			return fmt.Errorf("item %s missing from agenda", rec.ExampleID)
		default:
			return fmt.Errorf("item %s listed %d times", rec.ExampleID, ids[rec.ExampleID])
		}
	}
	if len(ids) != len(snap.Votes) {
		return fmt.Errorf("agenda lists %d items, generated %d", len(ids), len(snap.Votes))
	}
	return nil
}

// verifyAgendaItems compares fetched item votes with the generated ballots.
func verifyAgendaItems(snap model.Snapshot, items []AgendaItemDetail) error {
	byID := make(map[string]model.VoteRecord, len(snap.Votes))
	for _, rec := range snap.Votes {
		byID[rec.ExampleID] = rec
	}

	for _, item := range items {
		rec, ok := byID[item.ExampleID]
		if !ok {
			return fmt.Errorf("unknown item %s", item.ExampleID)
		}
		if len(item.Votes) != len(rec.MemberVotes) {
			return fmt.Errorf("item %s has %d votes, generated %d", item.ExampleID, len(item.Votes), len(rec.MemberVotes))
		}
		if !slices.IsSortedFunc(item.Votes, func(a, b MemberVote) int {
			switch {
			case a.Name < b.Name:
				return -1
			case a.Name > b.Name:
				return 1
			}
			return 0
		}) {
			return fmt.Errorf("item %s votes not sorted by name", item.ExampleID)
		}
		for _, v := range item.Votes {
			if rec.MemberVotes[v.Name] != v.Vote {
				return fmt.Errorf("item %s: %s voted %s, generated %s", item.ExampleID, v.Name, v.Vote, rec.MemberVotes[v.Name])
			}
		}
	}
	return nil
}
