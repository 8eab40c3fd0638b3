package http

import "net/http"

type BallotHandler struct{}

func NewBallotHandler() *BallotHandler {
	return &BallotHandler{}
}

func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tabFrom(r).Booth.State(r.Context()))
}

type selectElectionRequest struct {
	ElectionID string `json:"election_id"`
}

func (h *BallotHandler) SelectElection(w http.ResponseWriter, r *http.Request) {
	var req selectElectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booth := tabFrom(r).Booth
	if err := booth.SelectElection(r.Context(), req.ElectionID); err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, booth.State(r.Context()))
}

type selectCandidateRequest struct {
	Choice string `json:"choice"`
}

func (h *BallotHandler) SelectCandidate(w http.ResponseWriter, r *http.Request) {
	var req selectCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booth := tabFrom(r).Booth
	booth.SelectCandidate(r.Context(), req.Choice)
	writeJSON(w, http.StatusOK, booth.State(r.Context()))
}

func (h *BallotHandler) Submit(w http.ResponseWriter, r *http.Request) {
	booth := tabFrom(r).Booth
	if err := booth.Submit(r.Context()); err != nil {
		writeDomainError(w, err, booth.State(r.Context()).Message)
		return
	}
	writeJSON(w, http.StatusCreated, booth.State(r.Context()))
}
