// Package model contains domain models passed between layers.
package model

import "strings"

// Recognized vote choices. Only AYE and NAY take part in alignment comparisons;
// every other value is retained and counted in breakdowns.
const (
	ChoiceAye     = "AYE"
	ChoiceNay     = "NAY"
	ChoiceAbsent  = "ABSENT"
	ChoiceAbstain = "ABSTAIN"
	ChoiceRecused = "RECUSED"
)

// Sentinel values applied to missing record fields at ingestion time.
const (
	DefaultMeetingType = "Regular"
	NotAvailable       = "N/A"
	Unknown            = "Unknown"
)

// VoteRecord is one recorded roll call on one agenda item.
type VoteRecord struct {
	MeetingDate      string            `json:"meeting_date"`
	MeetingType      string            `json:"meeting_type"`
	AgendaItemNumber string            `json:"agenda_item_number"`
	AgendaItemTitle  string            `json:"agenda_item_title"`
	Outcome          string            `json:"outcome"`
	MeetingSection   string            `json:"meeting_section"`
	ExampleID        string            `json:"example_id"`
	MemberVotes      map[string]string `json:"member_votes"`
}

// MeetingKey identifies the meeting a record belongs to, e.g. "2024-01-16 (Regular)".
func (r VoteRecord) MeetingKey() string {
	return r.MeetingDate + " (" + r.MeetingType + ")"
}

// Vote returns the member's choice on this record.
func (r VoteRecord) Vote(member string) (string, bool) {
	v, ok := r.MemberVotes[member]
	return v, ok
}

// Comparable reports whether a choice takes part in pairwise alignment.
func Comparable(choice string) bool {
	return choice == ChoiceAye || choice == ChoiceNay
}

// NormalizeChoice upper-cases and trims a raw choice label.
func NormalizeChoice(choice string) string {
	return strings.ToUpper(strings.TrimSpace(choice))
}

// MemberStats is the participation breakdown of one member.
type MemberStats struct {
	TotalVotes    int            `json:"total_votes"`
	VoteBreakdown map[string]int `json:"vote_breakdown"`
}

// Snapshot is the immutable input every analytics operation works on.
type Snapshot struct {
	VoteSummary    map[string]any `json:"vote_summary"`
	MemberAnalysis MemberAnalysis `json:"member_analysis"`
	Votes          []VoteRecord   `json:"votes"`
}
