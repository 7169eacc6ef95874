package calendar

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestTryEachFallsBackInOrder(t *testing.T) {
	var called []string
	got, err := tryEach(context.Background(), "create", time.Second, []string{"/a", "/b", "/c"},
		func(_ context.Context, endpoint string) (string, error) {
			called = append(called, endpoint)
			if endpoint == "/b" {
				return "ok", nil
			}
			return "", &StatusError{Code: http.StatusInternalServerError, Message: "boom"}
		})
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if len(called) != 2 {
		t.Errorf("called %v, want stop after /b", called)
	}
}

func TestTryEachCollectsEveryAttempt(t *testing.T) {
	_, err := tryEach(context.Background(), "create", time.Second, []string{"/a", "/b"},
		func(_ context.Context, endpoint string) (int, error) {
			if endpoint == "/a" {
				return 0, &StatusError{Code: http.StatusBadRequest, Message: "bad"}
			}
			return 0, errors.New("connection refused")
		})

	if !errors.Is(err, ErrRemoteCallFailed) {
		t.Fatalf("error = %v, want ErrRemoteCallFailed", err)
	}
	var rce *RemoteCallError
	if !errors.As(err, &rce) {
		t.Fatalf("error is %T", err)
	}
	want := []Attempt{
		{Endpoint: "/a", StatusCode: 400, Message: "bad"},
		{Endpoint: "/b", StatusCode: 0, Message: "connection refused"},
	}
	if len(rce.Attempts) != len(want) {
		t.Fatalf("attempts = %+v", rce.Attempts)
	}
	for i := range want {
		if rce.Attempts[i] != want[i] {
			t.Errorf("attempt %d = %+v, want %+v", i, rce.Attempts[i], want[i])
		}
	}
}

func TestTryEachStopsOnAuthFailure(t *testing.T) {
	calls := 0
	_, err := tryEach(context.Background(), "create", time.Second, []string{"/a", "/b"},
		func(context.Context, string) (int, error) {
			calls++
			return 0, &StatusError{Code: http.StatusUnauthorized, Message: "expired"}
		})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("error = %v, want ErrAuthExpired", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTryEachRecordsTimeoutAs408(t *testing.T) {
	_, err := tryEach(context.Background(), "create", 10*time.Millisecond, []string{"/slow"},
		func(ctx context.Context, _ string) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
	var rce *RemoteCallError
	if !errors.As(err, &rce) || len(rce.Attempts) != 1 {
		t.Fatalf("error = %v", err)
	}
	if rce.Attempts[0].StatusCode != http.StatusRequestTimeout {
		t.Errorf("status = %d, want 408", rce.Attempts[0].StatusCode)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &StatusError{Code: 401}, ErrAuthExpired},
		{"not found", &StatusError{Code: 404}, ErrNotFound},
		{"gone", &StatusError{Code: 410}, ErrNotFound},
		{"server", &StatusError{Code: 503, Message: "down"}, ErrRemoteCallFailed},
		{"token", ErrAuthExpired, ErrAuthExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", "/x", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify = %v, want %v", got, tt.want)
			}
		})
	}
	if classify("op", "/x", nil) != nil {
		t.Error("nil error classified")
	}
}
