package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hray3182/ClassSync/internal/models"
)

func newTestGoogle(t *testing.T, h http.Handler) *Google {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGoogle(context.Background(), srv.Client(), GoogleOptions{
		CalendarEndpoint: srv.URL + "/",
		UserinfoEndpoint: srv.URL + "/",
		Timeout:          time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}
	return g
}

func TestGoogleCreateSendsRuleText(t *testing.T) {
	var got map[string]any
	g := newTestGoogle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"id":"g-1"}`)
	}))

	id, err := g.Create(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "g-1" {
		t.Errorf("id = %q", id)
	}

	rec, _ := got["recurrence"].([]any)
	if len(rec) != 1 || rec[0] != "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20251231T235959Z" {
		t.Errorf("recurrence = %v", got["recurrence"])
	}
	reminders := got["reminders"].(map[string]any)
	if reminders["useDefault"] != false {
		t.Errorf("useDefault = %v", reminders["useDefault"])
	}
	if overrides := reminders["overrides"].([]any); len(overrides) != 2 {
		t.Errorf("overrides = %v", overrides)
	}
}

func TestGoogleErrors(t *testing.T) {
	g := newTestGoogle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/expired"):
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
		case strings.HasSuffix(r.URL.Path, "/broken"):
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"code":500,"message":"Backend Error"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
		}
	}))
	ctx := context.Background()

	if _, err := g.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v", err)
	}
	if err := g.Delete(ctx, "expired"); !errors.Is(err, ErrAuthExpired) {
		t.Errorf("Delete expired = %v", err)
	}
	err := g.Delete(ctx, "broken")
	var rce *RemoteCallError
	if !errors.As(err, &rce) || rce.Attempts[0].StatusCode != 500 {
		t.Errorf("Delete broken = %v", err)
	}
}

func TestGoogleGetAndDeleteInstance(t *testing.T) {
	var deleted string
	g := newTestGoogle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/events/g-1_20250903"):
			io.WriteString(w, `{"id":"g-1_20250903","summary":"Math","recurringEventId":"g-1",
				"start":{"dateTime":"2025-09-03T09:00:00Z"},"end":{"dateTime":"2025-09-03T10:00:00Z"}}`)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/events/g-1/instances"):
			io.WriteString(w, `{"items":[
				{"id":"g-1_20250901","start":{"dateTime":"2025-09-01T09:00:00Z"}},
				{"id":"g-1_20250903","start":{"dateTime":"2025-09-03T09:00:00Z"}}]}`)
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	ctx := context.Background()

	spec, err := g.Get(ctx, "g-1_20250903")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if spec.RecurringEventID != "g-1" || spec.Summary != "Math" {
		t.Errorf("spec = %+v", spec)
	}

	if err := g.DeleteInstance(ctx, "g-1", models.NewDate(2025, time.September, 3), time.UTC); err != nil {
		t.Fatalf("DeleteInstance: %v", err)
	}
	if deleted != "g-1_20250903" {
		t.Errorf("deleted %q", deleted)
	}
}
