package testsnapshot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/participation"
	"github.com/okian/rollcall/pkg/logger"
)

// Generator tuning.
const (
	absentRate       = 0.05
	abstainRate      = 0.03
	leadingBlocAye   = 0.6
	blocsAgreeRate   = 0.5
	meetingSpacing   = 14 * 24 * time.Hour
	specialEvery     = 5
	consentThreshold = 3
)

var (
	firstMeeting = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	exampleNS    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rollcall:test-snapshot"))
)

// Generate builds a snapshot with two voting blocs. Members alternate between
// blocs; each member follows the bloc position with probability cfg.Cohesion.
// The same seed always yields the same snapshot.
func Generate(ctx context.Context, cfg *Config, stats *Stats) (model.Snapshot, error) {
	if cfg.Members < 1 || cfg.Votes < 0 || cfg.Meetings < 1 {
		return model.Snapshot{}, fmt.Errorf("%w: members=%d votes=%d meetings=%d",
			ErrInvalidConfig, cfg.Members, cfg.Votes, cfg.Meetings)
	}
	if cfg.Cohesion < 0 || cfg.Cohesion > 1 {
		return model.Snapshot{}, fmt.Errorf("%w: cohesion %.2f outside [0,1]", ErrInvalidConfig, cfg.Cohesion)
	}

	logger.Get().Info(ctx, "generating snapshot",
		logger.Int("members", cfg.Members),
		logger.Int("votes", cfg.Votes),
		logger.Int("meetings", cfg.Meetings),
		logger.Float64("cohesion", cfg.Cohesion))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	members := make([]string, cfg.Members)
	for i := range members {
		members[i] = fmt.Sprintf("Member %02d", i+1)
	}

	votes := make([]model.VoteRecord, 0, cfg.Votes)
	itemsPerMeeting := make([]int, cfg.Meetings)
	for i := 0; i < cfg.Votes; i++ {
		if err := ctx.Err(); err != nil {
			return model.Snapshot{}, fmt.Errorf("generation cancelled: %w", err)
		}

		m := i * cfg.Meetings / max(cfg.Votes, 1)
		itemsPerMeeting[m]++
		votes = append(votes, generateRecord(rng, cfg, members, i, m, itemsPerMeeting[m]))
	}

	snap := model.Snapshot{
		VoteSummary:    participation.BuildVoteSummary(votes),
		MemberAnalysis: participation.BuildMemberAnalysis(votes),
		Votes:          votes,
	}

	if stats != nil {
		stats.VotesGenerated = len(votes)
		stats.MembersGenerated = snap.MemberAnalysis.Len()
	}
	return snap, nil
}

func generateRecord(rng *rand.Rand, cfg *Config, members []string, index, meeting, item int) model.VoteRecord {
	date := firstMeeting.Add(time.Duration(meeting) * meetingSpacing)
	meetingType := model.DefaultMeetingType
	if meeting%specialEvery == specialEvery-1 {
		meetingType = "Special"
	}
	section := "General Business"
	if item <= consentThreshold {
		section = "Consent Calendar"
	}

	positions := [2]string{model.ChoiceNay, model.ChoiceNay}
	if rng.Float64() < leadingBlocAye {
		positions[0] = model.ChoiceAye
	}
	positions[1] = positions[0]
	if rng.Float64() >= blocsAgreeRate {
		positions[1] = flip(positions[0])
	}

	ballots := make(map[string]string, len(members))
	ayes, nays := 0, 0
	for i, name := range members {
		choice := memberChoice(rng, cfg.Cohesion, positions[i%2])
		ballots[name] = choice
		switch choice {
		case model.ChoiceAye:
			ayes++
		case model.ChoiceNay:
			nays++
		}
	}

	outcome := "Failed"
	if ayes > nays {
		outcome = "Passed"
	}

	number := strconv.Itoa(meeting+1) + "." + strconv.Itoa(item)
	return model.VoteRecord{
		MeetingDate:      date.Format(time.DateOnly),
		MeetingType:      meetingType,
		AgendaItemNumber: number,
		AgendaItemTitle:  "Synthetic item " + number,
		Outcome:          outcome,
		MeetingSection:   section,
		ExampleID:        uuid.NewSHA1(exampleNS, []byte(fmt.Sprintf("%d/%d", cfg.Seed, index))).String(),
		MemberVotes:      ballots,
	}
}

func memberChoice(rng *rand.Rand, cohesion float64, position string) string {
	r := rng.Float64()
	switch {
	case r < absentRate:
		return model.ChoiceAbsent
	case r < absentRate+abstainRate:
		return model.ChoiceAbstain
	}
	if rng.Float64() < cohesion {
		return position
	}
	return flip(position)
}

func flip(choice string) string {
	if choice == model.ChoiceAye {
		return model.ChoiceNay
	}
	return model.ChoiceAye
}
