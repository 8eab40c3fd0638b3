package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

type adminService struct {
	records *Records
	uids    ports.UIDGenerator
	logger  *slog.Logger
}

func NewAdminService(records *Records, uids ports.UIDGenerator, logger *slog.Logger) ports.AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &adminService{
		records: records,
		uids:    uids,
		logger:  logger.With("component", "admin"),
	}
}

func missing(fields ...string) error {
	return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(fields, ", "))
}

func blankFields(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

func (s *adminService) ListElections(ctx context.Context) []domain.Election {
	return s.records.Elections(ctx)
}

func (s *adminService) AddElection(ctx context.Context, input ports.AddElectionInput) (*domain.Election, error) {
	if blank := blankFields("id", input.ID, "name", input.Name, "date", input.Date); len(blank) > 0 {
		return nil, missing(blank...)
	}
	status := input.Status
	if status == "" {
		status = domain.StatusUpcoming
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	election := domain.Election{ID: input.ID, Name: input.Name, Status: status, Date: input.Date}
	s.records.UpdateElections(ctx, func(list []domain.Election) []domain.Election {
		return append(list, election)
	})
	s.logger.Info("election added", "id", election.ID, "status", election.Status)
	return &election, nil
}

func (s *adminService) DeleteElection(ctx context.Context, id string) error {
	if !s.records.DeleteElection(ctx, id) {
		return domain.ErrElectionNotFound
	}
	s.logger.Info("election deleted", "id", id)
	return nil
}

func (s *adminService) ListCandidates(ctx context.Context) []domain.Candidate {
	return s.records.Candidates(ctx)
}

func (s *adminService) CandidateRows(ctx context.Context) []ports.CandidateRow {
	names := make(map[string]string)
	for _, e := range s.records.Elections(ctx) {
		if _, seen := names[e.ID]; !seen {
			names[e.ID] = e.Name
		}
	}

	candidates := s.records.Candidates(ctx)
	rows := make([]ports.CandidateRow, 0, len(candidates))
	for i, c := range candidates {
		name, ok := names[c.ElectionID]
		if !ok {
			name = c.ElectionID
		}
		rows = append(rows, ports.CandidateRow{Index: i, ElectionName: name, Candidate: c})
	}
	return rows
}

func (s *adminService) AddCandidate(ctx context.Context, input ports.AddCandidateInput) (*domain.Candidate, error) {
	electionID := input.ElectionID
	if electionID == "" {
		if elections := s.records.Elections(ctx); len(elections) > 0 {
			electionID = elections[0].ID
		}
	}
	if blank := blankFields("electionID", electionID, "name", input.Name, "designation", input.Designation); len(blank) > 0 {
		return nil, missing(blank...)
	}

	candidate := domain.Candidate{ElectionID: electionID, Name: input.Name, Designation: input.Designation}
	s.records.UpdateCandidates(ctx, func(list []domain.Candidate) []domain.Candidate {
		return append(list, candidate)
	})
	s.logger.Info("candidate added", "election", electionID, "name", candidate.Name)
	return &candidate, nil
}

func (s *adminService) DeleteCandidate(ctx context.Context, index int) error {
	var removed bool
	s.records.UpdateCandidates(ctx, func(list []domain.Candidate) []domain.Candidate {
		if index < 0 || index >= len(list) {
			return list
		}
		removed = true
		out := make([]domain.Candidate, 0, len(list)-1)
		out = append(out, list[:index]...)
		return append(out, list[index+1:]...)
	})
	if !removed {
		return domain.ErrCandidateNotFound
	}
	return nil
}

func (s *adminService) ListVoters(ctx context.Context) []domain.Voter {
	return s.records.Voters(ctx)
}

func (s *adminService) AddVoter(ctx context.Context, input ports.AddVoterInput) (*domain.Voter, error) {
	if blank := blankFields("name", input.Name, "class", input.Class, "color", input.Color); len(blank) > 0 {
		return nil, missing(blank...)
	}

	uid, err := s.uids.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate voter uid: %w", err)
	}

	voter := domain.Voter{UID: uid, Name: input.Name, Class: input.Class, Color: input.Color}
	s.records.UpdateVoters(ctx, func(list []domain.Voter) []domain.Voter {
		return append(list, voter)
	})
	s.logger.Info("voter added", "uid", uid)
	return &voter, nil
}

func (s *adminService) DeleteVoter(ctx context.Context, uid string) error {
	var removed bool
	s.records.UpdateVoters(ctx, func(list []domain.Voter) []domain.Voter {
		out := make([]domain.Voter, 0, len(list))
		for _, v := range list {
			if v.UID == uid {
				removed = true
				continue
			}
			out = append(out, v)
		}
		return out
	})
	if !removed {
		return domain.ErrVoterNotFound
	}
	return nil
}
