package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const utf8BOM = "\ufeff"

type csvCodec struct{}

func NewCSV() ports.TableCodec {
	return csvCodec{}
}

func (csvCodec) Extension() string   { return ".csv" }
func (csvCodec) ContentType() string { return "text/csv" }

func (csvCodec) Read(r io.Reader) (ports.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// Write ignores the sheet name; csv has a single table.
func (csvCodec) Write(w io.Writer, _ string, table ports.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(table); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
