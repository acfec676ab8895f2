package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "/fallback"},
		{raw: "/create/", want: "/create/"},
		{raw: "/posts/1/?page=2", want: "/posts/1/?page=2"},
		{raw: "https://example.com/", want: "/fallback"},
		{raw: "//example.com/", want: "/fallback"},
		{raw: "/\\example.com", want: "/fallback"},
		{raw: "relative/path", want: "/fallback"},
	}

	for _, tt := range tests {
		if got := safeNext(tt.raw, "/fallback"); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseOptionalID(t *testing.T) {
	if id, ok := parseOptionalID(""); !ok || id != nil {
		t.Fatalf("blank value should mean no selection")
	}
	if id, ok := parseOptionalID(" 7 "); !ok || id == nil || *id != 7 {
		t.Fatalf("expected id 7")
	}
	for _, raw := range []string{"0", "-1", "abc"} {
		if _, ok := parseOptionalID(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestPubDateSince(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		key  string
		want *time.Time
	}{
		{key: "", want: nil},
		{key: "unknown", want: nil},
		{key: "today", want: ptrTime(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))},
		{key: "week", want: ptrTime(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))},
		{key: "month", want: ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		{key: "year", want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		got := pubDateSince(tt.key, now)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%q: expected no bound, got %v", tt.key, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("%q: expected %v, got %v", tt.key, tt.want, got)
		}
	}
}

func TestAdminPostQuery(t *testing.T) {
	if got := adminPostQuery("", ""); got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}
	if got := adminPostQuery("кот", "week"); got != "&pub_date=week&q=%D0%BA%D0%BE%D1%82" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if id := w.Header().Get(requestIDHeader); id == "" || id != w.Body.String() {
		t.Fatalf("expected generated id in header and context, got %q / %q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", maxRequestIDBytes+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Header().Get(requestIDHeader)) > maxRequestIDBytes {
		t.Fatalf("oversized request ids must be replaced")
	}
}

func TestLoginRequiredRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/create/", LoginRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/create/?x=1", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/auth/login/?next=%2Fcreate%2F%3Fx%3D1" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
