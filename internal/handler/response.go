package handler

// Response helpers shared by every handler in this package.
//
// Error responses all have the shape {"message": "..."}: the frontend shows
// that string directly, so the service layer phrases messages for humans
// ("Post already liked", "Invalid credentials") and this file only picks the
// status code. The mapping lives here and nowhere else — services return
// apperror sentinels and never see HTTP.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/socialnet-app/socialnet/internal/apperror"
)

// MessageResponse is the body of simple acknowledgements and of every error.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before the first write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto an HTTP status and a {"message"} body.
//
// Conflicts map to 400 rather than 409: duplicate email, repeated like,
// repeated follow and so on are all surfaced to the client as plain bad
// requests with an explanatory message, matching what the frontend expects.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}
		writeJSON(w, status, MessageResponse{Message: appErr.Message})
		return
	}

	// Unknown error: log the detail server-side, return a generic 500. The
	// raw message may leak SQL or file paths.
	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: "An internal error occurred"})
}

// decodeJSON reads the request body into dst, rejecting malformed JSON with
// a 400. Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
		return false
	}
	return true
}

// pageParams parses ?page= and ?limit= from the query string. Zero values
// mean "not supplied"; the service applies its own defaults and caps.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
