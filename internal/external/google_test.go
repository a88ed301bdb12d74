package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func googleTestServer(t *testing.T, wantToken string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantToken != "" && r.Header.Get("Authorization") != "Bearer "+wantToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("singleEvents") != "true" {
			t.Errorf("expected singleEvents=true, got %q", r.URL.RawQuery)
		}

		var resp map[string]any
		switch r.URL.Query().Get("pageToken") {
		case "":
			resp = map[string]any{
				"timeZone":      "UTC",
				"nextPageToken": "page-2",
				"items": []map[string]any{
					{"id": "timed", "status": "confirmed",
						"start": map[string]string{"dateTime": "2026-01-26T11:00:00Z"},
						"end":   map[string]string{"dateTime": "2026-01-26T12:00:00Z"}},
					{"id": "open-ended", "status": "confirmed",
						"start": map[string]string{"dateTime": "2026-01-26T13:00:00Z"}},
				},
			}
		case "page-2":
			resp = map[string]any{
				"timeZone": "UTC",
				"items": []map[string]any{
					{"id": "all-day", "status": "confirmed",
						"start": map[string]string{"date": "2026-01-27"},
						"end":   map[string]string{"date": "2026-01-28"}},
					{"id": "free", "status": "confirmed", "transparency": "transparent",
						"start": map[string]string{"dateTime": "2026-01-26T15:00:00Z"},
						"end":   map[string]string{"dateTime": "2026-01-26T16:00:00Z"}},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGoogleSource_ListBusy(t *testing.T) {
	srv := googleTestServer(t, "")
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("calendar.NewService: %v", err)
	}

	src := NewGoogleSource(svc, "")
	if src.Provider() != "google:primary" {
		t.Fatalf("unexpected provider %q", src.Provider())
	}

	events, err := src.ListBusy(ctx, day, day.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("ListBusy: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events across both pages, got %d", len(events))
	}

	busy, dropped := Adapt(src.Provider(), events)
	if dropped != 2 {
		t.Fatalf("expected open-ended and transparent events dropped, got %d", dropped)
	}
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy intervals, got %d", len(busy))
	}
	if busy[0].SourceID != "google:primary:timed" || !busy[0].Start.Equal(day.Add(11*time.Hour)) {
		t.Fatalf("unexpected timed interval %+v", busy[0])
	}
	if !busy[1].Start.Equal(day.Add(24*time.Hour)) || !busy[1].End.Equal(day.Add(48*time.Hour)) {
		t.Fatalf("unexpected all-day interval %+v", busy[1])
	}
}

func TestGoogleSource_ErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"invalid credentials"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("calendar.NewService: %v", err)
	}
	res := Collect(ctx, []Source{NewGoogleSource(svc, "primary")}, day, day.Add(24*time.Hour))
	if res.Status() != StatusDegraded {
		t.Fatalf("expected degraded result, got %s", res.Status())
	}
}

type stubConnections struct {
	conns []Connection
	err   error
}

func (s stubConnections) ListCalendarConnections(_ context.Context, _ string) ([]Connection, error) {
	return s.conns, s.err
}

func TestGoogleConnector_Sources(t *testing.T) {
	srv := googleTestServer(t, "access-1")
	defer srv.Close()

	token := &oauth2.Token{AccessToken: "access-1", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	connector := &GoogleConnector{
		OAuth: NewGoogleOAuthConfig("client", "secret", "http://localhost/cb"),
		Store: stubConnections{conns: []Connection{
			{ResourceID: "expert-1", Provider: ProviderGoogle, CalendarID: "primary", Token: token},
			{ResourceID: "expert-1", Provider: "outlook", CalendarID: "x", Token: token},
			{ResourceID: "expert-1", Provider: ProviderGoogle, CalendarID: "no-token"},
		}},
		Options: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	}

	ctx := context.Background()
	sources, err := connector.Sources(ctx, "expert-1")
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 google source, got %d", len(sources))
	}

	res := Collect(ctx, sources, day, day.Add(48*time.Hour))
	if res.Status() != StatusOK {
		t.Fatalf("expected ok, got failures %v", res.Warnings())
	}
	if len(res.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(res.Intervals))
	}
}

func TestGoogleConnector_StoreError(t *testing.T) {
	connector := &GoogleConnector{
		OAuth: NewGoogleOAuthConfig("client", "secret", ""),
		Store: stubConnections{err: errors.New("db down")},
	}
	if _, err := connector.Sources(context.Background(), "expert-1"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestGoogleConnector_Unconfigured(t *testing.T) {
	if NewGoogleOAuthConfig("", "", "") != nil {
		t.Fatal("expected nil config without credentials")
	}
	var connector *GoogleConnector
	sources, err := connector.Sources(context.Background(), "expert-1")
	if err != nil || sources != nil {
		t.Fatalf("expected no sources, got %v, %v", sources, err)
	}
}
