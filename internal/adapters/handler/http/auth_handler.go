package http

import (
	"net/http"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type viewResponse struct {
	Tab      string        `json:"tab"`
	View     domain.View   `json:"view"`
	Screen   domain.Screen `json:"screen"`
	Identity string        `json:"identity,omitempty"`
}

func newViewResponse(tab *services.Tab) viewResponse {
	return viewResponse{
		Tab:      tab.ID,
		View:     tab.Auth.View(),
		Screen:   tab.Auth.Screen(),
		Identity: string(tab.Auth.Identity()),
	}
}

// GetView reports which screen the tab shows. A voter uid remembered by a
// session storage that survives the tab's controllers is restored first.
func (h *AuthHandler) GetView(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	tab.Auth.Restore(r.Context())
	writeJSON(w, http.StatusOK, newViewResponse(tab))
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	tab.Auth.ShowLogin()
	writeJSON(w, http.StatusOK, newViewResponse(tab))
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tab := tabFrom(r)
	creds := domain.Credentials{Username: req.Username, Password: req.Password}
	if !tab.Auth.Login(r.Context(), domain.LoginAdmin, creds) {
		writeError(w, http.StatusUnauthorized, services.MsgInvalidAdmin)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(tab))
}

type voterLoginRequest struct {
	UID string `json:"uid"`
}

func (h *AuthHandler) VoterLogin(w http.ResponseWriter, r *http.Request) {
	var req voterLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tab := tabFrom(r)
	if !tab.Auth.Login(r.Context(), domain.LoginVoter, domain.Credentials{UID: req.UID}) {
		writeError(w, http.StatusUnauthorized, services.MsgInvalidVoter)
		return
	}
	tab.Booth.Mount(r.Context())
	writeJSON(w, http.StatusOK, newViewResponse(tab))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r)
	tab.Auth.Logout()
	writeJSON(w, http.StatusOK, newViewResponse(tab))
}
