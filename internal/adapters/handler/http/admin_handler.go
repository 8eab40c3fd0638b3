package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

func (h *AdminHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListElections(r.Context()))
}

type addElectionRequest struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Status domain.ElectionStatus `json:"status"`
	Date   string                `json:"date"`
}

func (h *AdminHandler) AddElection(w http.ResponseWriter, r *http.Request) {
	var req addElectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	election, err := h.service.AddElection(r.Context(), ports.AddElectionInput{
		ID:     req.ID,
		Name:   req.Name,
		Status: req.Status,
		Date:   req.Date,
	})
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, election)
}

func (h *AdminHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteElection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CandidateRows(r.Context()))
}

type addCandidateRequest struct {
	ElectionID  string `json:"electionID"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

func (h *AdminHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	var req addCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	candidate, err := h.service.AddCandidate(r.Context(), ports.AddCandidateInput{
		ElectionID:  req.ElectionID,
		Name:        req.Name,
		Designation: req.Designation,
	})
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate index")
		return
	}
	if err := h.service.DeleteCandidate(r.Context(), index); err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListVoters(r.Context()))
}

type addVoterRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Color string `json:"color"`
}

func (h *AdminHandler) AddVoter(w http.ResponseWriter, r *http.Request) {
	var req addVoterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	voter, err := h.service.AddVoter(r.Context(), ports.AddVoterInput{
		Name:  req.Name,
		Class: req.Class,
		Color: req.Color,
	})
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, voter)
}

func (h *AdminHandler) DeleteVoter(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVoter(r.Context(), chi.URLParam(r, "uid")); err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
