package http

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/vncsmyrnk/voteportal/internal/adapters/spreadsheet"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

const maxUploadSize = 10 << 20

type RosterHandler struct {
	portal *services.Portal
	logger *slog.Logger
}

func NewRosterHandler(portal *services.Portal, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{
		portal: portal,
		logger: logger,
	}
}

type importResponse struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// upload opens the "file" form field and picks a codec from its name. A file
// of an unknown format is reported on status like any other failed import.
func upload(w http.ResponseWriter, r *http.Request, status *services.StatusLine) (ports.TableCodec, multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return nil, nil, false
	}
	codec, err := spreadsheet.ForFilename(header.Filename)
	if err != nil {
		file.Close()
		status.Post(services.ImportStatusMessage(err))
		writeDomainError(w, err, status.Message())
		return nil, nil, false
	}
	return codec, file, true
}

func (h *RosterHandler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	codec, file, ok := upload(w, r, tab.VoterStatus)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.portal.ImportVoters(r.Context(), tab, codec, file)
	if err != nil {
		writeDomainError(w, err, tab.VoterStatus.Message())
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Message:  tab.VoterStatus.Message(),
	})
}

func exportCodec(w http.ResponseWriter, r *http.Request) (ports.TableCodec, bool) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	codec, err := spreadsheet.ForFormat(format)
	if err != nil {
		writeDomainError(w, err, "")
		return nil, false
	}
	return codec, true
}

func attachment(w http.ResponseWriter, codec ports.TableCodec, name string) {
	w.Header().Set("Content-Type", codec.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+codec.Extension()))
}

func (h *RosterHandler) ExportVoters(w http.ResponseWriter, r *http.Request) {
	codec, ok := exportCodec(w, r)
	if !ok {
		return
	}
	attachment(w, codec, services.VotersFilename)
	if err := h.portal.Roster.ExportVoters(r.Context(), codec, w); err != nil {
		h.logger.Error("failed to export voters", "error", err)
	}
}

type usersResponse struct {
	Users   any    `json:"users"`
	Filter  string `json:"filter"`
	Message string `json:"message"`
}

func (h *RosterHandler) ImportUsers(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	codec, file, ok := upload(w, r, tab.UserStatus)
	if !ok {
		return
	}
	defer file.Close()

	if _, err := h.portal.GenerateUsers(r.Context(), tab, codec, file); err != nil {
		writeDomainError(w, err, tab.UserStatus.Message())
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{
		Users:   tab.Users.Filtered(),
		Filter:  tab.Users.Filter(),
		Message: tab.UserStatus.Message(),
	})
}

// ListUsers applies the "filter" query parameter when present.
func (h *RosterHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	if r.URL.Query().Has("filter") {
		tab.Users.SetFilter(r.URL.Query().Get("filter"))
	}
	writeJSON(w, http.StatusOK, usersResponse{
		Users:   tab.Users.Filtered(),
		Filter:  tab.Users.Filter(),
		Message: tab.UserStatus.Message(),
	})
}

// ExportUsers exports the filtered list.
func (h *RosterHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	codec, ok := exportCodec(w, r)
	if !ok {
		return
	}
	tab := tabFrom(r)
	attachment(w, codec, services.UsersFilename)
	if err := h.portal.Roster.ExportUsers(r.Context(), codec, w, tab.Users.Filtered()); err != nil {
		h.logger.Error("failed to export users", "error", err)
	}
}

type statusResponse struct {
	VoterImport string `json:"voter_import"`
	UserImport  string `json:"user_import"`
}

func (h *RosterHandler) Status(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	writeJSON(w, http.StatusOK, statusResponse{
		VoterImport: tab.VoterStatus.Message(),
		UserImport:  tab.UserStatus.Message(),
	})
}
