package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freelanceflow/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"empty", "", time.Time{}, false},
		{"day", "2025-06-20", time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2025-06-20T08:30:00Z", time.Date(2025, 6, 20, 8, 30, 0, 0, time.UTC), false},
		{"garbage", "20/06/2025", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Fatalf("err = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDayParam(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	got, err := dayParam(r, now)
	if err != nil || !got.Equal(now) {
		t.Errorf("default = %v, %v", got, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/dashboard?date=2025-05-01", nil)
	got, err = dayParam(r, now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("date param = %v, want %v", got, want)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/dashboard?date=yesterday", nil)
	if _, err := dayParam(r, now); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("bad date = %v", err)
	}
}

func TestFlexNumber(t *testing.T) {
	var body struct {
		A flexNumber `json:"a"`
		B flexNumber `json:"b"`
		C flexNumber `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "12,50", "c": null}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.A != "12.5" || body.B != "12,50" || body.C != "" {
		t.Errorf("decoded = %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"x"}`))
	if err := decodeJSON(httptest.NewRecorder(), r, &v); err != nil || v.Name != "x" {
		t.Errorf("valid body = %+v, %v", v, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := decodeJSON(httptest.NewRecorder(), r, &v); err != nil {
		t.Errorf("empty body = %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":`))
	if err := decodeJSON(httptest.NewRecorder(), r, &v); !errors.Is(err, errBadJSON) {
		t.Errorf("truncated body = %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := bearerToken(r, "ff_session"); got != "" {
		t.Errorf("no credentials = %q", got)
	}

	r.AddCookie(&http.Cookie{Name: "ff_session", Value: "from-cookie"})
	if got := bearerToken(r, "ff_session"); got != "from-cookie" {
		t.Errorf("cookie = %q", got)
	}

	r.Header.Set("Authorization", "Bearer from-header")
	if got := bearerToken(r, "ff_session"); got != "from-header" {
		t.Errorf("header should win, got %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
