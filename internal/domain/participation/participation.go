// Package participation aggregates per-member vote counts, the overall
// summary, and meeting-level agenda indices from a vote snapshot.
//
// Every function here is a pure transformation of its arguments.
package participation

import (
	"sort"

	"github.com/okian/rollcall/internal/domain/model"
)

// MemberParticipation is one row of the participation table.
type MemberParticipation struct {
	Name          string  `json:"name"`
	Votes         int     `json:"votes"`
	AyePercentage float64 `json:"aye_percentage"`
}

// Summary is the vote summary result.
type Summary struct {
	VoteSummary         map[string]any        `json:"vote_summary"`
	MemberParticipation []MemberParticipation `json:"member_participation"`
	TotalMembers        int                   `json:"total_members"`
	ActiveMembers       int                   `json:"active_members"`
}

// Summarize builds the participation summary of a snapshot. Rows are ordered
// by vote count descending; equal counts keep member-analysis order.
func Summarize(snap model.Snapshot) Summary {
	names := snap.MemberAnalysis.Names()
	rows := make([]MemberParticipation, 0, len(names))
	active := 0

	for _, name := range names {
		stats, _ := snap.MemberAnalysis.Get(name)
		if stats.TotalVotes > 0 {
			active++
		}
		rows = append(rows, MemberParticipation{
			Name:          name,
			Votes:         stats.TotalVotes,
			AyePercentage: model.Percent(stats.VoteBreakdown[model.ChoiceAye], stats.TotalVotes),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Votes > rows[j].Votes
	})

	return Summary{
		VoteSummary:         snap.VoteSummary,
		MemberParticipation: rows,
		TotalMembers:        len(names),
		ActiveMembers:       active,
	}
}

// BuildMemberAnalysis counts every member's choices across votes. Members are
// ordered by first appearance; names inside one record are taken in sorted order.
func BuildMemberAnalysis(votes []model.VoteRecord) model.MemberAnalysis {
	var out model.MemberAnalysis
	counts := make(map[string]*model.MemberStats)

	for _, rec := range votes {
		for _, name := range sortedMembers(rec.MemberVotes) {
			s, ok := counts[name]
			if !ok {
				s = &model.MemberStats{VoteBreakdown: make(map[string]int)}
				counts[name] = s
				out.Set(name, model.MemberStats{})
			}
			s.TotalVotes++
			s.VoteBreakdown[rec.MemberVotes[name]]++
		}
	}

	for _, name := range out.Names() {
		out.Set(name, *counts[name])
	}
	return out
}

// BuildVoteSummary derives the aggregate block used when a snapshot does not
// carry its own.
func BuildVoteSummary(votes []model.VoteRecord) map[string]any {
	outcomes := make(map[string]int)
	meetings := make(map[string]struct{})
	first, last := "", ""

	for _, rec := range votes {
		outcomes[rec.Outcome]++
		meetings[rec.MeetingKey()] = struct{}{}
		if rec.MeetingDate == "" {
			continue
		}
		if first == "" || laterDate(first, rec.MeetingDate) {
			first = rec.MeetingDate
		}
		if last == "" || laterDate(rec.MeetingDate, last) {
			last = rec.MeetingDate
		}
	}

	return map[string]any{
		"total_votes":        len(votes),
		"total_meetings":     len(meetings),
		"outcome_breakdown":  outcomes,
		"first_meeting_date": first,
		"last_meeting_date":  last,
	}
}

func sortedMembers(votes map[string]string) []string {
	names := make([]string, 0, len(votes))
	for name := range votes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
