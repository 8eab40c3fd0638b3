package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotVoter):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrElectionNotFound),
		errors.Is(err, domain.ErrCandidateNotFound),
		errors.Is(err, domain.ErrVoterNotFound),
		errors.Is(err, domain.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoCandidateSelected),
		errors.Is(err, domain.ErrInvalidCandidate),
		errors.Is(err, domain.ErrElectionNotActive),
		errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrMissingColumns),
		errors.Is(err, domain.ErrUnreadableFile),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error, message string) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
