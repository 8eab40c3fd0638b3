package ports

import (
	"context"
	"io"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
)

// Table is a parsed spreadsheet: rows of cells, the first row being the header.
type Table [][]string

type TableCodec interface {
	// Read returns the first sheet of the file.
	Read(r io.Reader) (Table, error)
	Write(w io.Writer, sheet string, table Table) error
	Extension() string
	ContentType() string
}

type ImportResult struct {
	Imported int
	Skipped  int
}

type RosterService interface {
	ImportVoters(ctx context.Context, codec TableCodec, r io.Reader) (ImportResult, error)
	ExportVoters(ctx context.Context, codec TableCodec, w io.Writer) error
	GenerateUsers(ctx context.Context, codec TableCodec, r io.Reader) ([]domain.GeneratedUser, error)
	ExportUsers(ctx context.Context, codec TableCodec, w io.Writer, users []domain.GeneratedUser) error
}
