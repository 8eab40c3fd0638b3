package domain

import (
	"errors"
	"strings"
)

var (
	ErrElectionNotFound    = errors.New("election not found")
	ErrElectionNotActive   = errors.New("election is not active")
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrInvalidCandidate    = errors.New("invalid candidate for this election")
	ErrNoCandidateSelected = errors.New("no candidate selected")
	ErrAlreadyVoted        = errors.New("voter has already voted in this election")
	ErrNotVoter            = errors.New("current identity is not a voter")
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidStatus       = errors.New("invalid election status")
	ErrEmptyFile           = errors.New("file is empty or has no data rows")
	ErrMissingColumns      = errors.New("missing required columns")
	ErrUnreadableFile      = errors.New("failed to process file")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrTabNotFound         = errors.New("tab not found")
)

var ErrVoterNotFound = errors.New("voter not found")

// ColumnError reports header columns an uploaded sheet is missing.
type ColumnError struct {
	Columns []string
}

func (e *ColumnError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumns
}
