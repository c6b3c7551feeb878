package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const DateLayout = "2006-01-02"

type RespondJSONFunc func(w http.ResponseWriter, status int, payload interface{})
type RespondErrorFunc func(w http.ResponseWriter, status int, message string, errors ...[]string)

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("JSON encoding error")
	}
}

func RespondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	RespondJSON(w, status, payload)
}

func Success(message string, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	}
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	RespondError(w, http.StatusNotFound, "Path not found")
}

// DateRange reads start_date/end_date query params. Missing values fall back
// to the first day of the current year and now.
func DateRange(r *http.Request, now time.Time) (time.Time, time.Time, string) {
	startDate := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := now

	if s := r.URL.Query().Get("start_date"); s != "" {
		parsed, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, "Invalid start date format"
		}
		startDate = parsed
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		parsed, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, "Invalid end date format"
		}
		endDate = parsed
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, "End date must not be before start date"
	}
	return startDate, endDate, ""
}
