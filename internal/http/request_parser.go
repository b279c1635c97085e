package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"freelanceflow/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

var errBadJSON = errors.New("malformed request body")

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero
// time, which validation rejects where a date is required.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// dayParam reads ?date=YYYY-MM-DD, defaulting to now.
func dayParam(r *http.Request, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return now, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	// Keep the wall-clock time so "today" comparisons use the requested day.
	return time.Date(t.Year(), t.Month(), t.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// bearerToken returns the session token from the Authorization header or,
// failing that, the session cookie.
func bearerToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// flexNumber accepts a JSON number or a string such as "12,50" so amounts
// keep their exact decimal text until parsed.
type flexNumber string

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexNumber(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexNumber(b)
	return nil
}
