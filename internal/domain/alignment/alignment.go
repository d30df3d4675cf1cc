// Package alignment computes pairwise voting alignment between council
// members: the full alignment matrix, the most and least aligned pairs, and
// per-member profiles.
//
// Only AYE and NAY choices are compared. The matrix is O(M²·V) in members and
// votes, which is fine at council scale; callers that query an unchanged
// snapshot repeatedly should cache the result.
package alignment

import (
	"encoding/json"
	"sort"

	"github.com/okian/rollcall/internal/domain/model"
)

// SelfAlignment is the diagonal value of every matrix.
const SelfAlignment = 100.0

// rankedPairCount bounds the most and least aligned lists.
const rankedPairCount = 3

// Matrix holds alignment scores for every ordered pair of members.
type Matrix struct {
	members []string
	scores  map[string]map[string]float64
}

// Members returns the matrix members in member-analysis order.
func (m Matrix) Members() []string {
	out := make([]string, len(m.members))
	copy(out, m.members)
	return out
}

// Score returns the alignment between a and b.
func (m Matrix) Score(a, b string) (float64, bool) {
	row, ok := m.scores[a]
	if !ok {
		return 0, false
	}
	s, ok := row[b]
	return s, ok
}

// Len returns the number of members in the matrix.
func (m Matrix) Len() int { return len(m.members) }

// MarshalJSON encodes the matrix as a nested object member -> member -> score.
func (m Matrix) MarshalJSON() ([]byte, error) {
	if m.scores == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.scores)
}

// Pair is an unordered pair of members with their alignment score.
type Pair struct {
	Member1 string  `json:"member1"`
	Member2 string  `json:"member2"`
	Score   float64 `json:"score"`
}

// Ranking holds the extremes of the pair list.
type Ranking struct {
	MostAligned  []Pair `json:"most_aligned"`
	LeastAligned []Pair `json:"least_aligned"`
}

// Compute builds the alignment matrix for every member in members. A pair
// that never cast comparable votes on the same record scores 0.
func Compute(members model.MemberAnalysis, votes []model.VoteRecord) Matrix {
	names := members.Names()
	scores := make(map[string]map[string]float64, len(names))

	for _, a := range names {
		row := make(map[string]float64, len(names))
		for _, b := range names {
			if a == b {
				row[b] = SelfAlignment
				continue
			}
			agree, total := compare(a, b, votes)
			row[b] = model.Percent(agree, total)
		}
		scores[a] = row
	}

	return Matrix{members: names, scores: scores}
}

// RankPairs lists every unordered pair once (member1 < member2), sorts by
// score descending, and takes the top and bottom three. The bottom list is
// only filled when there are at least three pairs.
func RankPairs(m Matrix) Ranking {
	pairs := make([]Pair, 0, len(m.members)*len(m.members)/2)
	for _, a := range m.members {
		for _, b := range m.members {
			if a < b {
				pairs = append(pairs, Pair{Member1: a, Member2: b, Score: m.scores[a][b]})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})

	most := pairs[:min(rankedPairCount, len(pairs))]
	least := []Pair{}
	if len(pairs) >= rankedPairCount {
		least = pairs[len(pairs)-rankedPairCount:]
	}

	return Ranking{
		MostAligned:  append([]Pair{}, most...),
		LeastAligned: append([]Pair{}, least...),
	}
}

// compare counts the records where a and b both cast a comparable vote, and
// how many of those they agreed on.
func compare(a, b string, votes []model.VoteRecord) (agree, total int) {
	for _, rec := range votes {
		va, okA := rec.MemberVotes[a]
		vb, okB := rec.MemberVotes[b]
		if !okA || !okB || !model.Comparable(va) || !model.Comparable(vb) {
			continue
		}
		total++
		if va == vb {
			agree++
		}
	}
	return agree, total
}
