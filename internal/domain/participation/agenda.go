package participation

import (
	"sort"

	"github.com/okian/rollcall/internal/domain/model"
)

// AgendaItem is one roll call listed under a meeting.
type AgendaItem struct {
	AgendaItem string `json:"agenda_item"`
	Title      string `json:"title"`
	Outcome    string `json:"outcome"`
	Section    string `json:"section"`
	ExampleID  string `json:"example_id"`
}

// Meeting groups the agenda items voted on at one meeting.
type Meeting struct {
	Meeting     string       `json:"meeting"`
	MeetingDate string       `json:"meeting_date"`
	MeetingType string       `json:"meeting_type"`
	AgendaItems []AgendaItem `json:"agenda_items"`
}

// MemberVote is a single member's choice on a roll call.
type MemberVote struct {
	Name string `json:"name"`
	Vote string `json:"vote"`
}

// AgendaItemDetail is a full record plus its votes flattened into a list.
type AgendaItemDetail struct {
	model.VoteRecord
	Votes []MemberVote `json:"votes"`
}

// GroupAgendaItems groups records by meeting (date and type). Items keep
// encounter order; meetings are ordered by date, newest first.
func GroupAgendaItems(votes []model.VoteRecord) []Meeting {
	index := make(map[string]int)
	meetings := make([]Meeting, 0)

	for _, rec := range votes {
		key := rec.MeetingKey()
		i, ok := index[key]
		if !ok {
			i = len(meetings)
			index[key] = i
			meetings = append(meetings, Meeting{
				Meeting:     key,
				MeetingDate: rec.MeetingDate,
				MeetingType: rec.MeetingType,
				AgendaItems: make([]AgendaItem, 0, 1),
			})
		}
		meetings[i].AgendaItems = append(meetings[i].AgendaItems, AgendaItem{
			AgendaItem: rec.AgendaItemNumber,
			Title:      rec.AgendaItemTitle,
			Outcome:    rec.Outcome,
			Section:    rec.MeetingSection,
			ExampleID:  rec.ExampleID,
		})
	}

	keys := make([]meetingDate, len(meetings))
	for i, m := range meetings {
		keys[i] = parseMeetingDate(m.MeetingDate)
	}
	order := make([]int, len(meetings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]].after(keys[order[b]])
	})

	out := make([]Meeting, len(meetings))
	for i, idx := range order {
		out[i] = meetings[idx]
	}
	return out
}

// FindAgendaItem returns the first record whose example id matches id.
// It scans linearly; lookups are rare compared to building an index.
func FindAgendaItem(votes []model.VoteRecord, id string) (AgendaItemDetail, bool) {
	for _, rec := range votes {
		if rec.ExampleID != id {
			continue
		}
		names := sortedMembers(rec.MemberVotes)
		flat := make([]MemberVote, 0, len(names))
		for _, name := range names {
			flat = append(flat, MemberVote{Name: name, Vote: rec.MemberVotes[name]})
		}
		return AgendaItemDetail{VoteRecord: rec, Votes: flat}, true
	}
	return AgendaItemDetail{}, false
}
