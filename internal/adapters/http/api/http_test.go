package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/rollcall/internal/adapters/http/api"
	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/domain/alignment"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/participation"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockDependencies struct {
	ingested  []string
	ingestErr error
	removeErr error
	lookupErr error
}

func (m *mockDependencies) Ingest(ctx context.Context, id string, snap model.Snapshot) (types.SnapshotInfo, error) {
	if m.ingestErr != nil {
		return types.SnapshotInfo{}, m.ingestErr
	}
	m.ingested = append(m.ingested, id)
	return types.SnapshotInfo{ID: id, Version: 1, Votes: len(snap.Votes), Members: snap.MemberAnalysis.Len()}, nil
}

func (m *mockDependencies) Remove(ctx context.Context, id string) error { return m.removeErr }

func (m *mockDependencies) Snapshots(ctx context.Context) []types.SnapshotInfo {
	return []types.SnapshotInfo{{ID: "council", Version: 1}}
}

func (m *mockDependencies) VoteSummary(ctx context.Context, id string) (participation.Summary, error) {
	return participation.Summary{TotalMembers: 2}, m.lookupErr
}

func (m *mockDependencies) Alignment(ctx context.Context, id string) (types.Alignment, error) {
	return types.Alignment{Members: []string{"A", "B"}}, m.lookupErr
}

func (m *mockDependencies) MemberProfile(ctx context.Context, id, name string) (alignment.Profile, error) {
	return alignment.Profile{MemberName: name}, m.lookupErr
}

func (m *mockDependencies) AgendaItems(ctx context.Context, id string) ([]participation.Meeting, error) {
	return []participation.Meeting{}, m.lookupErr
}

func (m *mockDependencies) AgendaItem(ctx context.Context, id, itemID string) (participation.AgendaItemDetail, error) {
	return participation.AgendaItemDetail{}, m.lookupErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} { return m.stats }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).
		Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

const snapshotDoc = `{
  "member_analysis": {},
  "votes": [
    {"meeting_date": "2024-01-16", "agenda_item_number": "1", "example_id": "r1",
     "member_votes": {"A": "AYE", "B": "NAY"}}
  ]
}`

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When probing health", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When reading stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the provider output is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodPut, "/snapshots", "")

			Convey("Then the mux rejects it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestSnapshotsHandler(t *testing.T) {
	Convey("Given the snapshots routes", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, api.WithMaxUploadBytes(1024))

		Convey("When uploading a valid snapshot", func() {
			w := do(mux, http.MethodPost, "/snapshots?id=council", snapshotDoc)

			Convey("Then it is ingested under the requested id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.ingested, ShouldResemble, []string{"council"})
				So(w.Header().Get("Location"), ShouldEqual, "/snapshots/council/summary")
				var info types.SnapshotInfo
				So(json.Unmarshal(w.Body.Bytes(), &info), ShouldBeNil)
				So(info.Votes, ShouldEqual, 1)
				So(info.Members, ShouldEqual, 2)
			})
		})

		Convey("When uploading malformed JSON", func() {
			w := do(mux, http.MethodPost, "/snapshots", "{not json")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When uploading more than the limit", func() {
			big := `{"votes":[` + strings.Repeat(`{"meeting_date":"2024-01-01"},`, 100) + `{}]}`
			w := do(mux, http.MethodPost, "/snapshots", big)

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(w)["code"], ShouldEqual, "payload_too_large")
			})
		})

		Convey("When the id is rejected by the service", func() {
			deps.ingestErr = fmt.Errorf("%w: %q", service.ErrInvalidSnapshotID, "a b")
			w := do(mux, http.MethodPost, "/snapshots?id=a+b", snapshotDoc)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing snapshots", func() {
			w := do(mux, http.MethodGet, "/snapshots", "")

			Convey("Then the stored snapshots are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"id":"council"`)
			})
		})

		Convey("When deleting", func() {
			Convey("Then a known snapshot yields 204", func() {
				So(do(mux, http.MethodDelete, "/snapshots/council", "").Code, ShouldEqual, http.StatusNoContent)
			})

			Convey("Then an unknown snapshot yields 404", func() {
				deps.removeErr = service.ErrSnapshotNotFound
				So(do(mux, http.MethodDelete, "/snapshots/nope", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAnalyticsHandler(t *testing.T) {
	Convey("Given the analytics routes", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		routes := []string{
			"/snapshots/council/summary",
			"/snapshots/council/alignment",
			"/snapshots/council/members/A",
			"/snapshots/council/agenda",
			"/snapshots/council/agenda/r1",
		}

		Convey("When every lookup succeeds", func() {
			Convey("Then each route answers 200 with JSON", func() {
				for _, route := range routes {
					w := do(mux, http.MethodGet, route, "")
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				}
			})

			Convey("Then the member name reaches the service", func() {
				w := do(mux, http.MethodGet, "/snapshots/council/members/Jane%20Doe", "")
				So(w.Body.String(), ShouldContainSubstring, `"member_name":"Jane Doe"`)
			})
		})

		Convey("When the snapshot is unknown", func() {
			deps.lookupErr = fmt.Errorf("%w: council", service.ErrSnapshotNotFound)

			Convey("Then each route answers 404", func() {
				for _, route := range routes {
					w := do(mux, http.MethodGet, route, "")
					So(w.Code, ShouldEqual, http.StatusNotFound)
					So(decodeError(w)["code"], ShouldEqual, "not_found")
				}
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.lookupErr = errors.New("boom")

			Convey("Then the route answers 500", func() {
				w := do(mux, http.MethodGet, "/snapshots/council/summary", "")
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldContainSubstring, "boom")
			})
		})
	})
}

func TestServerWithService(t *testing.T) {
	Convey("Given the API backed by a real service", t, func() {
		svc := service.New()
		mux := newMux(svc)

		Convey("When a snapshot is uploaded and analysed", func() {
			So(do(mux, http.MethodPost, "/snapshots?id=council", snapshotDoc).Code, ShouldEqual, http.StatusCreated)
			w := do(mux, http.MethodGet, "/snapshots/council/alignment", "")

			Convey("Then the matrix is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Members []string                      `json:"members"`
					Matrix  map[string]map[string]float64 `json:"alignment_matrix"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Members, ShouldResemble, []string{"A", "B"})
				So(body.Matrix["A"]["B"], ShouldEqual, 0.0)
				So(body.Matrix["A"]["A"], ShouldEqual, 100.0)
			})

			Convey("Then an unknown member is 404", func() {
				So(do(mux, http.MethodGet, "/snapshots/council/members/Z", "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then an unknown agenda item is 404", func() {
				So(do(mux, http.MethodGet, "/snapshots/council/agenda/missing", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := errors.New("cause")

		Convey("Then WrapKind keeps both kind and cause reachable", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})

		Convey("Then Wrap of nil is nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("Then NewKind carries the op", func() {
			So(api.NewKind("op", api.ErrNotFound).Error(), ShouldEqual, "op: not found")
		})
	})
}
