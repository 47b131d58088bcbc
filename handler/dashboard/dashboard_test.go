package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/logger"
)

type fakeRenderer struct {
	got dashboard.Request
	err error
}

func (f *fakeRenderer) Render(_ context.Context, req dashboard.Request) (*dashboard.Dashboard, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &dashboard.Dashboard{ID: "r1", Request: req, Warnings: []dashboard.Warning{}}, nil
}

func TestDashboardHandlerParsesQuery(t *testing.T) {
	log, _ := logger.NewTestLogger()
	svc := &fakeRenderer{}
	h := &DashboardHandler{log: log, svc: svc}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?source=recent&time_range=short_term&limit=20&artist_limit=5&playlists=true", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	want := dashboard.Request{Source: "recent", TimeRange: "short_term", Limit: 20, ArtistLimit: 5, IncludePlaylists: true}
	if svc.got != want {
		t.Errorf("expected %+v, got %+v", want, svc.got)
	}

	var d dashboard.Dashboard
	if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.ID != "r1" {
		t.Errorf("unexpected dashboard %+v", d)
	}
}

func TestDashboardHandlerBadQuery(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &DashboardHandler{log: log, svc: &fakeRenderer{}}

	for _, q := range []string{"limit=ten", "artist_limit=x", "playlists=maybe"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?"+q, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestDashboardHandlerInvalidRequest(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &DashboardHandler{log: log, svc: &fakeRenderer{err: fmt.Errorf("%w: bad source", dashboard.ErrInvalidRequest)}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?source=weekly", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
