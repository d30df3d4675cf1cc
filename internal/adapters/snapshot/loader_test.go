package snapshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/okian/rollcall/internal/adapters/snapshot"
	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const fullDoc = `{
  "vote_summary": {"total_votes": 2},
  "member_analysis": {
    "Nguyen": {"total_votes": 2, "vote_breakdown": {"AYE": 2}},
    "Adams":  {"total_votes": 2, "vote_breakdown": {"AYE": 1, "NAY": 1}}
  },
  "votes": [
    {"meeting_date": "2024-01-16", "meeting_type": "Regular", "agenda_item_number": "4.1",
     "agenda_item_title": "Budget", "outcome": "Passed", "meeting_section": "Consent",
     "example_id": "ex-1", "member_votes": {"Nguyen": "AYE", "Adams": "AYE"}},
    {"meeting_date": "2024-01-16", "example_id": "ex-2", "member_votes": {"Nguyen": "aye", "Adams": " Nay "}}
  ]
}`

const sparseDoc = `{
  "votes": [
    {"meeting_date": "2024-02-06", "member_votes": {"Ortiz": "AYE", "Kim": "", " ": "NAY"}},
    {"meeting_date": "2024-02-06", "agenda_item_number": "9", "member_votes": {"Kim": "NAY"}}
  ]
}`

func TestDecode(t *testing.T) {
	ctx := context.Background()

	Convey("Given a complete snapshot document", t, func() {
		snap, err := snapshot.Decode(ctx, strings.NewReader(fullDoc))

		Convey("Then it decodes without error", func() {
			So(err, ShouldBeNil)
			So(snap.Votes, ShouldHaveLength, 2)
		})

		Convey("Then provided member analysis and summary are kept", func() {
			So(snap.MemberAnalysis.Names(), ShouldResemble, []string{"Nguyen", "Adams"})
			So(snap.VoteSummary["total_votes"], ShouldEqual, 2.0)
		})

		Convey("Then choices are normalized", func() {
			So(snap.Votes[1].MemberVotes["Nguyen"], ShouldEqual, model.ChoiceAye)
			So(snap.Votes[1].MemberVotes["Adams"], ShouldEqual, model.ChoiceNay)
		})

		Convey("Then missing fields get sentinel defaults", func() {
			rec := snap.Votes[1]
			So(rec.MeetingType, ShouldEqual, model.DefaultMeetingType)
			So(rec.AgendaItemNumber, ShouldEqual, model.NotAvailable)
			So(rec.AgendaItemTitle, ShouldEqual, model.Unknown)
			So(rec.Outcome, ShouldEqual, model.Unknown)
			So(rec.MeetingSection, ShouldEqual, model.Unknown)
			So(rec.ExampleID, ShouldEqual, "ex-2")
		})
	})

	Convey("Given a sparse snapshot document", t, func() {
		snap, err := snapshot.Decode(ctx, strings.NewReader(sparseDoc))
		So(err, ShouldBeNil)

		Convey("Then member analysis is derived from the votes", func() {
			So(snap.MemberAnalysis.Names(), ShouldResemble, []string{"Kim", "Ortiz"})
			kim, _ := snap.MemberAnalysis.Get("Kim")
			So(kim.TotalVotes, ShouldEqual, 2)
			So(kim.VoteBreakdown[model.ChoiceAbsent], ShouldEqual, 1)
			So(kim.VoteBreakdown[model.ChoiceNay], ShouldEqual, 1)
		})

		Convey("Then a vote summary is derived", func() {
			So(snap.VoteSummary["total_votes"], ShouldEqual, 2)
			So(snap.VoteSummary["total_meetings"], ShouldEqual, 1)
		})

		Convey("Then blank member names are dropped", func() {
			So(snap.Votes[0].MemberVotes, ShouldHaveLength, 2)
		})

		Convey("Then example ids are generated, unique and stable across loads", func() {
			So(snap.Votes[0].ExampleID, ShouldNotBeEmpty)
			So(snap.Votes[0].ExampleID, ShouldNotEqual, snap.Votes[1].ExampleID)
			_, err := uuid.Parse(snap.Votes[0].ExampleID)
			So(err, ShouldBeNil)

			again, err := snapshot.Decode(ctx, strings.NewReader(sparseDoc))
			So(err, ShouldBeNil)
			So(again.Votes[0].ExampleID, ShouldEqual, snap.Votes[0].ExampleID)
		})

		Convey("Then a custom namespace changes generated ids", func() {
			other, err := snapshot.Decode(ctx, strings.NewReader(sparseDoc), snapshot.WithIDNamespace(uuid.NameSpaceDNS))
			So(err, ShouldBeNil)
			So(other.Votes[0].ExampleID, ShouldNotEqual, snap.Votes[0].ExampleID)
		})
	})

	Convey("Given malformed JSON", t, func() {
		_, err := snapshot.Decode(ctx, strings.NewReader(`{"votes": [`))

		Convey("Then a decode error is returned", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, snapshot.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a document without votes", t, func() {
		Convey("When votes are required", func() {
			_, err := snapshot.Decode(ctx, strings.NewReader(`{}`), snapshot.WithRequireVotes(true))

			Convey("Then ErrEmptySnapshot is returned", func() {
				So(errors.Is(err, snapshot.ErrEmptySnapshot), ShouldBeTrue)
			})
		})

		Convey("When votes are optional", func() {
			snap, err := snapshot.Decode(ctx, strings.NewReader(`{}`))

			Convey("Then an empty snapshot is returned", func() {
				So(err, ShouldBeNil)
				So(snap.Votes, ShouldBeEmpty)
				So(snap.MemberAnalysis.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := snapshot.Decode(cctx, strings.NewReader(fullDoc))

		Convey("Then the context error is returned", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestDecodeCollidingNames(t *testing.T) {
	ctx := context.Background()

	Convey("Given ballot keys that trim to the same member", t, func() {
		doc := `{"votes": [{"meeting_date": "2024-02-06", "example_id": "c1",
		  "member_votes": {"Kim": "AYE", " Kim": "NAY", "Lee ": "nay", " Lee": "aye"}}]}`

		Convey("Then every decode keeps the same ballot", func() {
			for i := 0; i < 50; i++ {
				snap, err := snapshot.Decode(ctx, strings.NewReader(doc))
				So(err, ShouldBeNil)
				So(snap.Votes[0].MemberVotes, ShouldResemble, map[string]string{
					"Kim": model.ChoiceAye,
					"Lee": model.ChoiceAye,
				})

				kim, _ := snap.MemberAnalysis.Get("Kim")
				So(kim.TotalVotes, ShouldEqual, 1)
				So(kim.VoteBreakdown, ShouldResemble, map[string]int{model.ChoiceAye: 1})
			}
		})
	})
}

func TestDecodeSuppliedAnalysisLabels(t *testing.T) {
	ctx := context.Background()

	Convey("Given a member analysis keyed on raw choice labels", t, func() {
		doc := `{
		  "member_analysis": {
		    "Ruiz":  {"total_votes": 3, "vote_breakdown": {"aye": 2, " AYE": 1}},
		    " Ruiz": {"total_votes": 1, "vote_breakdown": {"nay": 1}},
		    "Park":  {"total_votes": 1, "vote_breakdown": {"": 1}}
		  },
		  "votes": [{"meeting_date": "2024-02-06", "member_votes": {"Ruiz": "aye", "Park": ""}}]
		}`
		snap, err := snapshot.Decode(ctx, strings.NewReader(doc))
		So(err, ShouldBeNil)

		Convey("Then labels match the normalized ballots", func() {
			ruiz, ok := snap.MemberAnalysis.Get("Ruiz")
			So(ok, ShouldBeTrue)
			So(ruiz.TotalVotes, ShouldEqual, 4)
			So(ruiz.VoteBreakdown, ShouldResemble, map[string]int{model.ChoiceAye: 3, model.ChoiceNay: 1})

			park, _ := snap.MemberAnalysis.Get("Park")
			So(park.VoteBreakdown, ShouldResemble, map[string]int{model.ChoiceAbsent: 1})
		})

		Convey("Then member order is kept and trimmed duplicates merge", func() {
			So(snap.MemberAnalysis.Names(), ShouldResemble, []string{"Ruiz", "Park"})
		})

		Convey("Then normalizing again changes nothing", func() {
			again := snapshot.Normalize(snap)
			So(cmp.Diff(again, snap, cmp.AllowUnexported(model.MemberAnalysis{})), ShouldBeEmpty)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given an already decoded snapshot", t, func() {
		in := model.Snapshot{Votes: []model.VoteRecord{
			{MeetingDate: " 2024-01-16 ", MemberVotes: map[string]string{"Lee": "nay"}},
		}}
		before := model.Snapshot{Votes: []model.VoteRecord{
			{MeetingDate: " 2024-01-16 ", MemberVotes: map[string]string{"Lee": "nay"}},
		}}

		Convey("When normalizing", func() {
			out := snapshot.Normalize(in)

			Convey("Then the output is normalized", func() {
				So(out.Votes[0].MeetingDate, ShouldEqual, "2024-01-16")
				So(out.Votes[0].MemberVotes["Lee"], ShouldEqual, model.ChoiceNay)
			})

			Convey("Then the input is left untouched", func() {
				So(cmp.Diff(in, before, cmp.AllowUnexported(model.MemberAnalysis{})), ShouldBeEmpty)
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a snapshot file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "snapshot.json")
		So(os.WriteFile(path, []byte(fullDoc), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			snap, err := snapshot.LoadFile(ctx, path)

			Convey("Then the snapshot is returned", func() {
				So(err, ShouldBeNil)
				So(snap.Votes, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := snapshot.LoadFile(ctx, "/non/existent/snapshot.json")

		Convey("Then ErrOpen is returned", func() {
			So(errors.Is(err, snapshot.ErrOpen), ShouldBeTrue)
		})
	})
}
