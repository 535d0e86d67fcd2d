package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// StatusFor maps an apperror category to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text that is safe to show for err.
// Internal failures never leak their cause.
func PublicMessage(err error) string {
	if StatusFor(err) == http.StatusInternalServerError {
		return "Something went wrong. Please try again."
	}
	return apperror.Message(err, "Request failed")
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Error writes err as a JSON body when the client asked for JSON and as
// plain text otherwise.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	if WantsJSON(r) {
		WriteJSON(w, status, ErrorResponse{Error: PublicMessage(err)})
		return
	}
	http.Error(w, PublicMessage(err), status)
}
