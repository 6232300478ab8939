package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// ---------- helpers ----------
var shortlist = []domain.ShortlistItem{
	{ExerciseID: "e1", Key: "heel_slides", Name: "Heel slides", Sets: 2, Reps: 10, Difficulty: 1},
	{ExerciseID: "e2", Key: "quad_sets", Name: "Quad sets", Sets: 2, Reps: 10, Difficulty: 1},
}

func goodContent() Content {
	return Content{
		Title:   "Gentle knee session",
		Summary: "Two easy mobility drills.",
		Sessions: []Session{
			{ExerciseID: "e1", Name: "Heel slides", Sets: 2, Reps: 10, Notes: "slow"},
			{ExerciseID: "e2", Name: "Quad sets", Sets: 3, Reps: 8, HoldSeconds: 5},
		},
		Coaching: Coaching{Message: "Nice consistency this week.", Cautions: []string{"stop if sharp pain"}},
	}
}

func responseWith(t *testing.T, text string) []byte {
	t.Helper()
	body := map[string]any{
		"output": []any{
			map[string]any{
				"type": "message", "role": "assistant",
				"content": []any{map[string]any{"type": "output_text", "text": text}},
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func contentJSON(t *testing.T, c Content) string {
	t.Helper()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func enabled(url string) Config {
	return Config{Enabled: true, APIKey: "sk-test", BaseURL: url, Model: "test-model", Timeout: time.Second, MaxTokens: 500}
}

// ---------- tests ----------
func TestAugment_Success(t *testing.T) {
	var got responsesRequest
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" || r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = w.Write(responseWith(t, contentJSON(t, goodContent())))
	})

	res := New(enabled(srv.URL)).Augment(context.Background(), shortlist, UserContext{Area: "knee", Pain: 3})
	if res.Status != domain.AIStatusSuccess || res.Content == nil || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Outcome() != "success" || res.Content.Plan().Title != "Gentle knee session" {
		t.Fatalf("content: %+v", res.Content)
	}
	if got.Model != "test-model" || got.Text.Format["type"] != "json_schema" || got.MaxOutputTokens != 500 {
		t.Fatalf("request not structured: %+v", got)
	}
}

func TestAugment_SkippedWithoutNetwork(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	cfg := enabled(srv.URL)
	cfg.Enabled = false
	if res := New(cfg).Augment(context.Background(), shortlist, UserContext{}); res.Status != domain.AIStatusSkipped || !errors.Is(res.Err, ErrDisabled) {
		t.Fatalf("flag off: %+v", res)
	}
	cfg = enabled(srv.URL)
	cfg.APIKey = "  "
	if res := New(cfg).Augment(context.Background(), shortlist, UserContext{}); res.Status != domain.AIStatusSkipped {
		t.Fatalf("no key: %+v", res)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Fatalf("skipped augmentation reached the network")
	}
}

func TestAugment_Timeout(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	cfg := enabled(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	res := New(cfg).Augment(context.Background(), shortlist, UserContext{})
	elapsed := time.Since(start)

	if res.Status != domain.AIStatusFailed || !errors.Is(res.Err, ErrTimeout) || res.Outcome() != "timeout" {
		t.Fatalf("want timeout failure, got %+v", res)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("timeout not enforced: %s", elapsed)
	}
}

func TestAugment_Failures(t *testing.T) {
	bad := goodContent()
	bad.Sessions[0].ExerciseID = "not-shortlisted"

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		outcome string
	}{
		{"http 429", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
		}, ErrFailure, "failure"},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}, ErrFailure, "failure"},
		{"refusal", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output":[],"refusal":"no"}`))
		}, ErrFailure, "failure"},
		{"empty output", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output":[]}`))
		}, ErrSchemaMismatch, "schema_mismatch"},
		{"free text", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(responseWith(t, "Do some squats."))
		}, ErrSchemaMismatch, "schema_mismatch"},
		{"unknown field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(responseWith(t, `{"title":"x","extra":1}`))
		}, ErrSchemaMismatch, "schema_mismatch"},
		{"unknown exercise", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(responseWith(t, contentJSON(t, bad)))
		}, ErrSchemaMismatch, "schema_mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.handler)
			res := New(enabled(srv.URL)).Augment(context.Background(), shortlist, UserContext{})
			if res.Status != domain.AIStatusFailed || res.Content != nil {
				t.Fatalf("want failed, got %+v", res)
			}
			if !errors.Is(res.Err, tt.want) || res.Outcome() != tt.outcome {
				t.Fatalf("err %v outcome %s, want %v/%s", res.Err, res.Outcome(), tt.want, tt.outcome)
			}
		})
	}
}

func TestAugment_HTTPErrorIsInspectable(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	res := New(enabled(srv.URL)).Augment(context.Background(), shortlist, UserContext{})
	var he *HTTPError
	if !errors.As(res.Err, &he) || he.StatusCode != http.StatusBadGateway {
		t.Fatalf("want *HTTPError 502, got %v", res.Err)
	}
}

func TestAugment_EmptyShortlist(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	res := New(enabled(srv.URL)).Augment(context.Background(), nil, UserContext{})
	if res.Status != domain.AIStatusFailed || atomic.LoadInt32(hits) != 0 {
		t.Fatalf("empty shortlist: %+v hits=%d", res, *hits)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://x/"})
	if c.Model() != "gpt-4o-mini" || c.Timeout() != 10*time.Second || c.cfg.BaseURL != "http://x" {
		t.Fatalf("defaults: %+v", c.cfg)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must not be enabled")
	}
}
