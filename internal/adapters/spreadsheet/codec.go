package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

// ForFilename picks a codec from the file extension.
func ForFilename(name string) (ports.TableCodec, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return NewXLSX(), nil
	case ".csv":
		return NewCSV(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(name))
}

// ForFormat picks a codec from a short format name such as "xlsx" or "csv".
func ForFormat(format string) (ports.TableCodec, error) {
	return ForFilename("file." + strings.TrimPrefix(format, "."))
}
