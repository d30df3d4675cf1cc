package alignment

import (
	"sort"

	"github.com/okian/rollcall/internal/domain/model"
)

// HistoryEntry is one vote cast by the profiled member.
type HistoryEntry struct {
	AgendaItem     string `json:"agenda_item"`
	Title          string `json:"title"`
	Outcome        string `json:"outcome"`
	MemberVote     string `json:"member_vote"`
	MeetingDate    string `json:"meeting_date"`
	MeetingSection string `json:"meeting_section"`
}

// Agreement is how often another member voted the same way.
type Agreement struct {
	Member              string  `json:"member"`
	AgreementPercentage float64 `json:"agreement_percentage"`
	Comparisons         int     `json:"comparisons"`
}

// Profile is a member's stats, vote history and agreement ranking.
type Profile struct {
	MemberName  string            `json:"member_name"`
	MemberStats model.MemberStats `json:"member_stats"`
	VoteHistory []HistoryEntry    `json:"vote_history"`
	Agreements  []Agreement       `json:"agreements"`
}

// BuildProfile returns the profile of name, or false when name is not in
// members. Members who never cast a comparable vote alongside name are left
// out of the agreement list rather than scored 0.
func BuildProfile(name string, members model.MemberAnalysis, votes []model.VoteRecord) (Profile, bool) {
	stats, ok := members.Get(name)
	if !ok {
		return Profile{}, false
	}

	history := make([]HistoryEntry, 0, stats.TotalVotes)
	for _, rec := range votes {
		v, ok := rec.MemberVotes[name]
		if !ok {
			continue
		}
		history = append(history, HistoryEntry{
			AgendaItem:     rec.AgendaItemNumber,
			Title:          rec.AgendaItemTitle,
			Outcome:        rec.Outcome,
			MemberVote:     v,
			MeetingDate:    rec.MeetingDate,
			MeetingSection: rec.MeetingSection,
		})
	}

	agreements := make([]Agreement, 0, members.Len())
	for _, other := range members.Names() {
		if other == name {
			continue
		}
		agree, total := compare(name, other, votes)
		if total == 0 {
			continue
		}
		agreements = append(agreements, Agreement{
			Member:              other,
			AgreementPercentage: model.Percent(agree, total),
			Comparisons:         total,
		})
	}
	sort.SliceStable(agreements, func(i, j int) bool {
		return agreements[i].AgreementPercentage > agreements[j].AgreementPercentage
	})

	return Profile{
		MemberName:  name,
		MemberStats: stats,
		VoteHistory: history,
		Agreements:  agreements,
	}, true
}
