package testsnapshot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rollcall/internal/adapters/http/api"
	"github.com/okian/rollcall/internal/adapters/snapshot"
	"github.com/okian/rollcall/internal/domain/model"
	service "github.com/okian/rollcall/internal/app"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given a running rollcall service", t, func() {
		srv, svc := newTestServer(t)
		ctx := context.Background()
		out := filepath.Join(t.TempDir(), "out", "snapshot.json")

		cfg := &Config{
			BaseURL:    srv.URL,
			SnapshotID: "synthetic",
			Members:    7,
			Votes:      60,
			Meetings:   5,
			Cohesion:   0.8,
			Seed:       99,
			Workers:    3,
			Timeout:    5 * time.Second,
			OutputFile: out,
		}

		Convey("A full run verifies and cleans up after itself", func() {
			So(Run(ctx, cfg), ShouldBeNil)
			So(svc.Snapshots(ctx), ShouldBeEmpty)

			Convey("And the saved snapshot loads back", func() {
				snap, err := snapshot.LoadFile(ctx, out)
				So(err, ShouldBeNil)
				So(snap.Votes, ShouldHaveLength, 60)
			})
		})

		Convey("With keep set the snapshot stays on the server", func() {
			cfg.Keep = true
			cfg.OutputFile = ""
			So(Run(ctx, cfg), ShouldBeNil)
			So(svc.Snapshots(ctx), ShouldHaveLength, 1)
		})

		Convey("A council of two still verifies", func() {
			cfg.Members = 2
			cfg.OutputFile = ""
			So(Run(ctx, cfg), ShouldBeNil)
		})
	})
}

func TestRunUnhealthyService(t *testing.T) {
	Convey("Given a service that fails its health check", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := Run(context.Background(), &Config{BaseURL: srv.URL, Timeout: time.Second})
		So(errors.Is(err, ErrUnexpected), ShouldBeTrue)
	})
}

func TestFetchAll(t *testing.T) {
	Convey("Given keys to fetch", t, func() {
		keys := []string{"a", "b", "c", "d", "e"}

		Convey("All results are collected", func() {
			got, err := fetchAll(context.Background(), 2, keys, func(_ context.Context, k string) (string, error) {
				return k + k, nil
			})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 5)
			So(got["c"], ShouldEqual, "cc")
		})

		Convey("The first error stops the run", func() {
			boom := errors.New("boom")
			var after atomic.Int32
			_, err := fetchAll(context.Background(), 1, keys, func(ctx context.Context, k string) (string, error) {
				if ctx.Err() != nil {
					after.Add(1)
					return "", ctx.Err()
				}
				if k == "b" {
					return "", boom
				}
				return k, nil
			})
			So(errors.Is(err, boom), ShouldBeTrue)
			So(after.Load(), ShouldBeLessThan, 4)
		})
	})
}

func TestSaveSnapshotBadPath(t *testing.T) {
	Convey("Saving under a file instead of a directory fails", t, func() {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)

		err := SaveSnapshot(filepath.Join(blocker, "snap.json"), model.Snapshot{})
		So(err, ShouldNotBeNil)
	})
}
