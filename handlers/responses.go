package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"task-manager-web/database"
	"task-manager-web/utilities"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utilities.LogError(err, "writing JSON response")
	}
}

// writeError logs err and sends it as {"error": "..."}.
func writeError(w http.ResponseWriter, r *http.Request, err error, context string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		utilities.LogError(err, context)
	} else {
		utilities.LogDebug("%s: %v", context, err)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

// taskID reads the {id} route variable.
func taskID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid task id %q", errBadRequest, raw)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
