package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const (
	VotersSheet    = "Voters"
	VotersFilename = "voter_list"
	UsersSheet     = "Users"
	UsersFilename  = "users_export"
)

var (
	voterExportHeader = []string{"UID", "Name", "Class", "House Color"}
	userExportHeader  = []string{"User ID", "Name", "House Color", "Password"}
)

const (
	MsgImportSuccess   = "Import successful!"
	MsgImportEmpty     = "File is empty or has no data rows."
	MsgMissingNameCol  = "Missing 'name' or 'house color' column!"
	MsgMissingClassCol = "Missing 'class' column!"
	MsgImportFailed    = "Failed to process file."
)

const (
	colName  = "name"
	colClass = "class"
	colColor = "house color"
)

// ImportStatusMessage turns the outcome of an import into the status line
// shown to the admin.
func ImportStatusMessage(err error) string {
	if err == nil {
		return MsgImportSuccess
	}
	var colErr *domain.ColumnError
	switch {
	case errors.Is(err, domain.ErrEmptyFile):
		return MsgImportEmpty
	case errors.As(err, &colErr):
		for _, c := range colErr.Columns {
			if c != colClass {
				return MsgMissingNameCol
			}
		}
		return MsgMissingClassCol
	}
	return MsgImportFailed
}

// columns maps recognised header names to their index.
type columns map[string]int

// resolveHeader lowercases and trims header cells. "house color" wins over
// a plain "color" column.
func resolveHeader(header []string) columns {
	cols := make(columns)
	plainColor := -1
	for i, cell := range header {
		switch name := strings.ToLower(strings.TrimSpace(cell)); name {
		case colName, colClass, colColor:
			if _, seen := cols[name]; !seen {
				cols[name] = i
			}
		case "color":
			if plainColor < 0 {
				plainColor = i
			}
		}
	}
	if _, ok := cols[colColor]; !ok && plainColor >= 0 {
		cols[colColor] = plainColor
	}
	return cols
}

func (c columns) require(names ...string) error {
	var absent []string
	for _, n := range names {
		if _, ok := c[n]; !ok {
			absent = append(absent, n)
		}
	}
	if len(absent) > 0 {
		return &domain.ColumnError{Columns: absent}
	}
	return nil
}

func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type rosterService struct {
	records *Records
	uids    ports.UIDGenerator
	logger  *slog.Logger
}

func NewRosterService(records *Records, uids ports.UIDGenerator, logger *slog.Logger) ports.RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &rosterService{
		records: records,
		uids:    uids,
		logger:  logger.With("component", "roster"),
	}
}

func readTable(codec ports.TableCodec, r io.Reader) (ports.Table, error) {
	table, err := codec.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreadableFile, err)
	}
	if len(table) < 2 {
		return nil, domain.ErrEmptyFile
	}
	return table, nil
}

// ImportVoters replaces the roster with the rows of the uploaded sheet.
func (s *rosterService) ImportVoters(ctx context.Context, codec ports.TableCodec, r io.Reader) (ports.ImportResult, error) {
	table, err := readTable(codec, r)
	if err != nil {
		return ports.ImportResult{}, err
	}

	cols := resolveHeader(table[0])
	if err := cols.require(colName, colColor); err != nil {
		return ports.ImportResult{}, err
	}
	if err := cols.require(colClass); err != nil {
		return ports.ImportResult{}, err
	}

	var result ports.ImportResult
	voters := make([]domain.Voter, 0, len(table)-1)
	for _, row := range table[1:] {
		name, class, color := cols.cell(row, colName), cols.cell(row, colClass), cols.cell(row, colColor)
		if name == "" || class == "" || color == "" {
			result.Skipped++
			continue
		}
		uid, err := s.uids.Next(ctx)
		if err != nil {
			return ports.ImportResult{}, fmt.Errorf("failed to allocate voter uid: %w", err)
		}
		voters = append(voters, domain.Voter{UID: uid, Name: name, Class: class, Color: color})
	}
	result.Imported = len(voters)

	s.records.SetVoters(ctx, voters)
	s.logger.Info("voter roster imported", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func (s *rosterService) ExportVoters(ctx context.Context, codec ports.TableCodec, w io.Writer) error {
	voters := s.records.Voters(ctx)
	table := make(ports.Table, 0, len(voters)+1)
	table = append(table, voterExportHeader)
	for _, v := range voters {
		table = append(table, []string{v.UID, v.Name, v.Class, v.Color})
	}
	if err := codec.Write(w, VotersSheet, table); err != nil {
		return fmt.Errorf("failed to write voter roster: %w", err)
	}
	return nil
}

// GenerateUsers joins the uploaded sheet against the roster by uppercased
// name and derives a login for every usable row. Nothing is persisted.
func (s *rosterService) GenerateUsers(ctx context.Context, codec ports.TableCodec, r io.Reader) ([]domain.GeneratedUser, error) {
	table, err := readTable(codec, r)
	if err != nil {
		return nil, err
	}

	cols := resolveHeader(table[0])
	if err := cols.require(colName, colColor); err != nil {
		return nil, err
	}

	byName := make(map[string]string)
	for _, v := range s.records.Voters(ctx) {
		key := strings.ToUpper(v.Name)
		if _, seen := byName[key]; !seen {
			byName[key] = v.UID
		}
	}

	users := make([]domain.GeneratedUser, 0, len(table)-1)
	for i, row := range table[1:] {
		name := strings.ToUpper(cols.cell(row, colName))
		color := strings.ToUpper(cols.cell(row, colColor))
		if name == "" || color == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			id = domain.FormatUserID(i + 1)
		}
		users = append(users, domain.GeneratedUser{
			ID:       id,
			Name:     name,
			Color:    color,
			Password: domain.GeneratePassword(name, color),
		})
	}

	s.logger.Info("users generated", "count", len(users))
	return users, nil
}

func (s *rosterService) ExportUsers(ctx context.Context, codec ports.TableCodec, w io.Writer, users []domain.GeneratedUser) error {
	table := make(ports.Table, 0, len(users)+1)
	table = append(table, userExportHeader)
	for _, u := range users {
		table = append(table, []string{u.ID, u.Name, u.Color, u.Password})
	}
	if err := codec.Write(w, UsersSheet, table); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}
