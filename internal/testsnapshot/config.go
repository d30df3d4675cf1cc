// Package testsnapshot generates synthetic council snapshots, uploads them to
// a running rollcall service and checks the analytics it returns.
package testsnapshot

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a snapshot test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	SnapshotID string        // Id to upload the snapshot under
	Members    int           // Council size
	Votes      int           // Number of roll calls
	Meetings   int           // Number of meetings the roll calls are spread over
	Cohesion   float64       // Probability a member votes with their bloc, 0..1
	Seed       uint64        // Generator seed
	Workers    int           // Concurrent profile fetches
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional file for the generated snapshot
	Keep       bool          // Leave the snapshot on the server after the run
	Verbose    bool          // Enable verbose logging
}

// SnapshotInfo mirrors the upload response.
type SnapshotInfo struct {
	ID       string `json:"id"`
	Version  int64  `json:"version"`
	Votes    int    `json:"votes"`
	Members  int    `json:"members"`
	Meetings int    `json:"meetings"`
}

// Participation is one row of the summary's member participation.
type Participation struct {
	Name          string  `json:"name"`
	Votes         int     `json:"votes"`
	AyePercentage float64 `json:"aye_percentage"`
}

// Summary mirrors GET /snapshots/{id}/summary.
type Summary struct {
	MemberParticipation []Participation `json:"member_participation"`
	TotalMembers        int             `json:"total_members"`
	ActiveMembers       int             `json:"active_members"`
}

// Pair is a ranked member pair.
type Pair struct {
	Member1 string  `json:"member1"`
	Member2 string  `json:"member2"`
	Score   float64 `json:"score"`
}

// Alignment mirrors GET /snapshots/{id}/alignment.
type Alignment struct {
	Members      []string                      `json:"members"`
	Matrix       map[string]map[string]float64 `json:"alignment_matrix"`
	MostAligned  []Pair                        `json:"most_aligned"`
	LeastAligned []Pair                        `json:"least_aligned"`
}

// Agreement is one entry of a member profile's agreement list.
type Agreement struct {
	Member              string  `json:"member"`
	AgreementPercentage float64 `json:"agreement_percentage"`
	Comparisons         int     `json:"comparisons"`
}

// Profile mirrors GET /snapshots/{id}/members/{name}.
type Profile struct {
	MemberName  string            `json:"member_name"`
	VoteHistory []json.RawMessage `json:"vote_history"`
	Agreements  []Agreement       `json:"agreements"`
}

// AgendaItem is one item inside a meeting group.
type AgendaItem struct {
	AgendaItem string `json:"agenda_item"`
	Title      string `json:"title"`
	Outcome    string `json:"outcome"`
	Section    string `json:"section"`
	ExampleID  string `json:"example_id"`
}

// Meeting mirrors one group of GET /snapshots/{id}/agenda.
type Meeting struct {
	Meeting     string       `json:"meeting"`
	MeetingDate string       `json:"meeting_date"`
	MeetingType string       `json:"meeting_type"`
	AgendaItems []AgendaItem `json:"agenda_items"`
}

// MemberVote is one member's vote on an agenda item.
type MemberVote struct {
	Name string `json:"name"`
	Vote string `json:"vote"`
}

// AgendaItemDetail mirrors GET /snapshots/{id}/agenda/{item_id}.
type AgendaItemDetail struct {
	ExampleID string       `json:"example_id"`
	Votes     []MemberVote `json:"votes"`
}

// Stats holds run statistics.
type Stats struct {
	VotesGenerated    int
	MembersGenerated  int
	ProfilesRetrieved int
	MeetingsRetrieved int
	ChecksPassed      int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
