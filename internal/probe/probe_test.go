package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/scoreboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithOptions(logger.FormatText, io.Discard); err != nil {
		panic(err)
	}
}

// fakeService answers like a scoreboard; fields tweak its behaviour.
type fakeService struct {
	ready      bool
	config     string
	listing    []Standing
	failEvery  int64
	driftAfter int64

	calls      atomic.Int64
	mu         sync.Mutex
	requestIDs []string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-ID"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/readyz":
		if !f.ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case "/api/config":
		_, _ = w.Write([]byte(f.config))
	case "/api/scores":
		n := f.calls.Add(1)
		if f.failEvery > 0 && n%f.failEvery == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
			return
		}
		listing := f.listing
		if f.driftAfter > 0 && n > f.driftAfter {
			listing = append([]Standing(nil), listing...)
			listing[0].Score++
		}
		_ = json.NewEncoder(w).Encode(listing)
	default:
		http.NotFound(w, r)
	}
}

func newFakeService() *fakeService {
	return &fakeService{
		ready:  true,
		config: `{"liffId":null}`,
		listing: []Standing{
			{ID: 1, Name: "A", Area: "X", District: 4, Score: 10},
			{ID: 2, Name: "B", Area: "Y", District: 2, Score: 0},
		},
	}
}

func testConfig(url string) *Config {
	return &Config{BaseURL: url + "/", Requests: 20, Workers: 4, Timeout: 2 * time.Second}
}

func TestRun(t *testing.T) {
	Convey("Given a healthy service", t, func() {
		svc := newFakeService()
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("When probing it", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))

			Convey("Then the probe should pass", func() {
				So(err, ShouldBeNil)
				So(stats.Successful, ShouldEqual, 20)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Participants, ShouldEqual, 2)
				So(stats.TotalScore, ShouldEqual, int64(10))
				So(stats.LiffConfigured, ShouldBeFalse)
				So(stats.RunID, ShouldHaveLength, 36)
			})

			Convey("And every request should carry the run id", func() {
				svc.mu.Lock()
				defer svc.mu.Unlock()
				for _, id := range svc.requestIDs {
					So(strings.HasPrefix(id, stats.RunID+"-"), ShouldBeTrue)
				}
			})
		})

		Convey("When the LIFF id is configured", func() {
			svc.config = `{"liffId":"1657-abc"}`
			stats, err := Run(context.Background(), testConfig(srv.URL))

			Convey("Then it should be reported", func() {
				So(err, ShouldBeNil)
				So(stats.LiffConfigured, ShouldBeTrue)
			})
		})

		Convey("When an output file is requested", func() {
			out := filepath.Join(t.TempDir(), "nested", "listing.json")
			cfg := testConfig(srv.URL)
			cfg.OutputFile = out
			_, err := Run(context.Background(), cfg)

			Convey("Then the listing should be written", func() {
				So(err, ShouldBeNil)
				b, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				var listing []Standing
				So(json.Unmarshal(b, &listing), ShouldBeNil)
				So(listing, ShouldResemble, svc.listing)
			})
		})
	})

	Convey("Given a service that is not ready", t, func() {
		svc := newFakeService()
		svc.ready = false
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("Then the probe should stop early", func() {
			_, err := Run(context.Background(), testConfig(srv.URL))
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
			So(svc.calls.Load(), ShouldEqual, int64(0))
		})
	})

	Convey("Given a service without a liffId key", t, func() {
		svc := newFakeService()
		svc.config = `{}`
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("Then the probe should fail verification", func() {
			_, err := Run(context.Background(), testConfig(srv.URL))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})

	Convey("Given a service whose listing is out of order", t, func() {
		svc := newFakeService()
		svc.listing[0].ID, svc.listing[1].ID = 2, 1
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("Then the probe should fail verification", func() {
			_, err := Run(context.Background(), testConfig(srv.URL))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})

	Convey("Given a service that fails some requests", t, func() {
		svc := newFakeService()
		svc.failEvery = 5
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("Then the failures should be counted and reported", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))
			So(errors.Is(err, ErrStatus), ShouldBeTrue)
			So(stats.Failed, ShouldEqual, 4)
			So(stats.Successful, ShouldEqual, 16)
		})
	})

	Convey("Given a service whose listing changes between calls", t, func() {
		svc := newFakeService()
		svc.driftAfter = 1
		srv := httptest.NewServer(svc)
		defer srv.Close()

		Convey("Then the probe should report the mismatch", func() {
			cfg := testConfig(srv.URL)
			cfg.Workers = 1
			stats, err := Run(context.Background(), cfg)
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
			So(stats.Mismatched, ShouldEqual, 19)
		})
	})

	Convey("Given an invalid config", t, func() {
		Convey("Then Run should refuse to start", func() {
			_, err := Run(context.Background(), &Config{BaseURL: "", Requests: 1, Timeout: time.Second})
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

			_, err = Run(context.Background(), &Config{BaseURL: "http://x", Requests: 0, Timeout: time.Second})
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

			_, err = Run(context.Background(), &Config{BaseURL: "http://x", Requests: 1})
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestVerification(t *testing.T) {
	Convey("Given listings", t, func() {
		a := []Standing{{ID: 1, Score: 3}, {ID: 2}}

		Convey("When ids repeat", func() {
			err := VerifyListing([]Standing{{ID: 1}, {ID: 1}})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("When the listing is empty", func() {
			So(VerifyListing(nil), ShouldBeNil)
		})

		Convey("When comparing with failed slots", func() {
			ref, mismatched := CompareListings([][]Standing{nil, a, {{ID: 1, Score: 3}, {ID: 2}}, {{ID: 1}}})
			So(ref, ShouldResemble, a)
			So(mismatched, ShouldEqual, 1)
		})

		Convey("When the config value has the wrong type", func() {
			_, err := VerifyClientConfig(map[string]json.RawMessage{"liffId": json.RawMessage(`42`)})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Given the help text", t, func() {
		var buf bytes.Buffer
		ShowHelp(&buf)
		So(buf.String(), ShouldContainSubstring, "-requests")
	})
}
