package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

// writeJSON writes data as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error message in the standard envelope
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFromError maps domain errors onto HTTP status codes. Anything
// outside the known families is a 500; its details stay in the log.
func statusFromError(err error) int {
	switch {
	case core.ValidationFailed(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoOwner):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps the error to a status, hiding server fault details
func respondError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// pathID parses the {id} path segment
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s", core.ErrInvalidDate, dateStr)
	}
	return core.Date{Time: parsedTime}, nil
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

// queryInt parses an optional integer query parameter; absent means zero
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errForParam(name), name)
	}
	return v, nil
}

func errForParam(name string) error {
	if name == "year" {
		return core.ErrInvalidYear
	}
	return core.ErrInvalidMonth
}

// parseMonthYear reads the optional month and year query parameters.
// Values are range-checked when present; zero means not given.
func parseMonthYear(r *http.Request) (month, year int, err error) {
	month, err = queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	year, err = queryInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	if month != 0 && (month < 1 || month > 12) {
		return 0, 0, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	if year != 0 && year < 1 {
		return 0, 0, fmt.Errorf("%w: %d", core.ErrInvalidYear, year)
	}
	return month, year, nil
}

// parseMonthYearDefaults is parseMonthYear with the current month filled in
// for whichever side is missing. The summary endpoint always has a scope.
func parseMonthYearDefaults(r *http.Request, now time.Time) (month, year int, err error) {
	month, year, err = parseMonthYear(r)
	if err != nil {
		return 0, 0, err
	}
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	return month, year, nil
}
