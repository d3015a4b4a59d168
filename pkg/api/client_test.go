package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// flakyTransport fails the first n round trips, then delegates.
type flakyTransport struct {
	fails int32
	calls atomic.Int32
	next  http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := f.calls.Add(1)
	if n <= f.fails {
		return nil, errors.New("connection refused")
	}
	return f.next.RoundTrip(req)
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

func TestFetchJSONRetriesTransportFailures(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"dates":["2021-01-02","2021-01-01"]}`))
	defer srv.Close()

	tr := &flakyTransport{fails: 2, next: http.DefaultTransport}
	rec := &noticeRecorder{}
	c := NewClient(srv.URL,
		WithHTTPClient(&http.Client{Transport: tr}),
		WithRetries(2),
		WithBackoffStep(time.Millisecond),
		WithNotifier(rec),
	)

	dates, err := c.Timeseries(context.Background())
	if err != nil {
		t.Fatalf("Timeseries: %v", err)
	}
	if got := tr.calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if dates.First() != "2021-01-01" || dates.Last() != "2021-01-02" {
		t.Errorf("dates = %v, want sorted pair", dates.Days())
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("notices = %d, want 0 on success", n)
	}
}

func TestFetchJSONGivesUpAfterRetries(t *testing.T) {
	tr := &flakyTransport{fails: 100, next: http.DefaultTransport}
	rec := &noticeRecorder{}
	c := NewClient("http://backend.invalid",
		WithHTTPClient(&http.Client{Transport: tr}),
		WithRetries(2),
		WithBackoffStep(time.Millisecond),
		WithNotifier(rec),
	)

	var out map[string]any
	err := c.FetchJSON(context.Background(), "/api/timeseries", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := tr.calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.Status != 0 || reqErr.Timeout {
		t.Errorf("unexpected classification: %+v", reqErr)
	}
	notices := rec.all()
	if len(notices) != 1 {
		t.Fatalf("notices = %d, want exactly 1", len(notices))
	}
	if !strings.HasPrefix(notices[0].Message, "Failed to load data: ") || notices[0].Persistent {
		t.Errorf("notice = %+v", notices[0])
	}
}

func TestFetchJSONTimeoutMessage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(20*time.Millisecond), WithRetries(1), WithBackoffStep(time.Millisecond))

	var out map[string]any
	err := c.FetchJSON(context.Background(), "/slow", &out)
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("message %q does not mention the timeout", err.Error())
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestFetchJSONHTTPErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail body", http.StatusNotFound, `{"detail":"Country Atlantis not found"}`, "Country Atlantis not found"},
		{"plain body", http.StatusInternalServerError, "boom", "500 Internal Server Error"},
		{"empty detail", http.StatusBadGateway, `{"detail":""}`, "502 Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, WithRetries(3), WithBackoffStep(time.Millisecond))
			var out map[string]any
			err := c.FetchJSON(context.Background(), "/x", &out)

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v, want *RequestError", err)
			}
			if reqErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", reqErr.Status, tt.status)
			}
			if reqErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", reqErr.Message, tt.wantMsg)
			}
			if got := hits.Load(); got != 1 {
				t.Errorf("hits = %d, want 1", got)
			}
		})
	}
}

func TestFetchJSONSilentSkipsNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &noticeRecorder{}
	c := NewClient(srv.URL, WithNotifier(rec))
	var out map[string]any
	if err := c.FetchJSON(context.Background(), "/x", &out, Silent()); err == nil {
		t.Fatal("expected error")
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("notices = %d, want 0", n)
	}
}

func TestFetchJSONInvalidBody(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`not json`))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(2), WithBackoffStep(time.Millisecond))
	var out map[string]any
	err := c.FetchJSON(context.Background(), "/x", &out)
	if err == nil || !strings.Contains(err.Error(), "invalid response") {
		t.Fatalf("err = %v, want invalid response", err)
	}
}

func TestFetchJSONCancelledContext(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{}`))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, WithBackoffStep(time.Millisecond))
	var out map[string]any
	err := c.FetchJSON(ctx, "/x", &out)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want *RequestError", err)
	}
	if reqErr.Timeout {
		t.Error("cancellation must not be reported as a timeout")
	}
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: time.Second}
	for i, want := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		if got := b.NextBackOff(); got != want {
			t.Errorf("wait %d = %v, want %v", i, got, want)
		}
	}
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("after Reset = %v, want 1s", got)
	}
}

func TestResolvePath(t *testing.T) {
	c := NewClient("http://localhost:3000/")
	tests := map[string]string{
		"/api/test":             "http://localhost:3000/api/test",
		"api/test":              "http://localhost:3000/api/test",
		"https://cdn.example/x": "https://cdn.example/x",
	}
	for in, want := range tests {
		if got := c.resolve(in); got != want {
			t.Errorf("resolve(%q) = %q, want %q", in, got, want)
		}
	}
}
