// Package snapshot decodes vote snapshots and normalizes them once at
// ingestion so the analytics packages can assume every field is populated.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/participation"
)

// Decode reads one snapshot document from r and normalizes it.
func Decode(ctx context.Context, r io.Reader, opts ...Option) (model.Snapshot, error) {
	o := newOptions(opts...)
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if o.requireVotes && len(snap.Votes) == 0 {
		return model.Snapshot{}, ErrEmptySnapshot
	}
	return normalize(snap, o), nil
}

// LoadFile decodes the snapshot stored at path.
func LoadFile(ctx context.Context, path string, opts ...Option) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	snap, err := Decode(ctx, f, opts...)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load %s: %w", path, err)
	}
	return snap, nil
}

// Normalize applies field defaults to an already decoded snapshot and fills
// in member analysis and vote summary when they are missing. A supplied member
// analysis gets the same name trimming and choice labels as the ballots. The
// input is not modified.
func Normalize(snap model.Snapshot, opts ...Option) model.Snapshot {
	return normalize(snap, newOptions(opts...))
}

func normalize(snap model.Snapshot, o *options) model.Snapshot {
	votes := make([]model.VoteRecord, len(snap.Votes))
	for i, rec := range snap.Votes {
		votes[i] = normalizeRecord(rec, i, o.namespace)
	}

	out := model.Snapshot{
		VoteSummary:    snap.VoteSummary,
		MemberAnalysis: snap.MemberAnalysis,
		Votes:          votes,
	}
	if out.MemberAnalysis.Len() > 0 {
		out.MemberAnalysis = canonicalAnalysis(out.MemberAnalysis)
	}
	if out.MemberAnalysis.Len() == 0 {
		out.MemberAnalysis = participation.BuildMemberAnalysis(votes)
	}
	if out.VoteSummary == nil {
		out.VoteSummary = participation.BuildVoteSummary(votes)
	}
	return out
}

func normalizeRecord(rec model.VoteRecord, pos int, ns uuid.UUID) model.VoteRecord {
	out := model.VoteRecord{
		MeetingDate:      orDefault(rec.MeetingDate, model.Unknown),
		MeetingType:      orDefault(rec.MeetingType, model.DefaultMeetingType),
		AgendaItemNumber: orDefault(rec.AgendaItemNumber, model.NotAvailable),
		AgendaItemTitle:  orDefault(rec.AgendaItemTitle, model.Unknown),
		Outcome:          orDefault(rec.Outcome, model.Unknown),
		MeetingSection:   orDefault(rec.MeetingSection, model.Unknown),
		ExampleID:        strings.TrimSpace(rec.ExampleID),
		MemberVotes:      make(map[string]string, len(rec.MemberVotes)),
	}

	// Keys that trim to the same name collapse into one ballot: an already
	// clean key wins, otherwise the first raw key in sorted order.
	for _, raw := range rawNames(rec.MemberVotes) {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, taken := out.MemberVotes[name]; taken {
			continue
		}
		out.MemberVotes[name] = canonicalChoice(rec.MemberVotes[raw])
	}

	if out.ExampleID == "" {
		out.ExampleID = exampleID(ns, out, pos)
	}
	return out
}

// exampleID derives a stable id from the record's position and meeting data,
// so reloading the same document yields the same ids.
func exampleID(ns uuid.UUID, rec model.VoteRecord, pos int) string {
	key := strings.Join([]string{
		rec.MeetingDate,
		rec.MeetingType,
		rec.AgendaItemNumber,
		strconv.Itoa(pos),
	}, "|")
	return uuid.NewSHA1(ns, []byte(key)).String()
}

// rawNames returns the ballot keys with already trimmed keys first, each
// group in sorted order.
func rawNames(votes map[string]string) []string {
	names := make([]string, 0, len(votes))
	for name := range votes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci := names[i] == strings.TrimSpace(names[i])
		cj := names[j] == strings.TrimSpace(names[j])
		if ci != cj {
			return ci
		}
		return names[i] < names[j]
	})
	return names
}

func canonicalChoice(choice string) string {
	c := model.NormalizeChoice(choice)
	if c == "" {
		return model.ChoiceAbsent
	}
	return c
}

// canonicalAnalysis rewrites a supplied member analysis with the same name
// and choice normalization applied to ballots, merging counts of labels
// that collapse together. Member order is kept; a name that trims to one
// already seen is merged into it.
func canonicalAnalysis(in model.MemberAnalysis) model.MemberAnalysis {
	var out model.MemberAnalysis
	for _, raw := range in.Names() {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		src, _ := in.Get(raw)
		dst, _ := out.Get(name)
		if dst.VoteBreakdown == nil {
			dst.VoteBreakdown = make(map[string]int, len(src.VoteBreakdown))
		}
		dst.TotalVotes += src.TotalVotes
		for label, n := range src.VoteBreakdown {
			dst.VoteBreakdown[canonicalChoice(label)] += n
		}
		out.Set(name, dst)
	}
	return out
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
