package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestGetIdempotencyKey_IsReplay(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected no key")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	if IsReplay(c) {
		t.Fatalf("replay default must be false")
	}
	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatalf("expected replay")
	}
}

func TestIdempotencyValidator_SkipsWithoutHeaderOrOnGET(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.Any("/programs/:id/logs", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key must not be stashed")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/programs/p1/logs", nil))

	req := httptest.NewRequest(http.MethodGet, "/programs/p1/logs", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if called {
		t.Fatalf("lookup must not run without header or on GET")
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_LookupScopesByProgram(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotUser, gotScope, gotKey string
	lookup := func(_ context.Context, userID, scopeID, key string, now time.Time) (bool, error) {
		if now.IsZero() {
			t.Fatalf("now not populated")
		}
		gotUser, gotScope, gotKey = userID, scopeID, key
		switch key {
		case "seen":
			return true, nil
		case "boom":
			return false, errors.New("db down")
		}
		return false, nil
	}

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyUserID, "u9"); c.Next() })
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/programs/:id/logs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"replay": IsReplay(c), "bypass": IsRateBypass(c)})
	})

	for _, tc := range []struct {
		key    string
		replay bool
	}{
		{"fresh", false},
		{"seen", true},
		{"boom", false},
	} {
		req := httptest.NewRequest(http.MethodPost, "/programs/prog-7/logs", nil)
		req.Header.Set(HeaderIdempotencyKey, tc.key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tc.key, w.Code)
		}
		var body map[string]bool
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["replay"] != tc.replay || body["bypass"] != tc.replay {
			t.Fatalf("%s: body %v", tc.key, body)
		}
		if gotUser != "u9" || gotScope != "prog-7" || gotKey != tc.key {
			t.Fatalf("%s: lookup args %q %q %q", tc.key, gotUser, gotScope, gotKey)
		}
	}
}
