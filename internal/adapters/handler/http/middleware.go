package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

type contextKey string

const TabKey contextKey = "tab"

// TabMiddleware attaches the caller's tab to the request context. Requests
// without a valid token for a live tab get a fresh tab and a new cookie.
func TabMiddleware(portal *services.Portal, tokens *TabTokens, secureCookie bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tab := existingTab(portal, tokens, r); tab != nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), TabKey, tab)))
				return
			}

			tab := portal.OpenTab(clientAddr(r))
			token, err := tokens.Issue(tab.ID)
			if err != nil {
				logger.Error("failed to issue tab token", "error", err)
				http.Error(w, "failed to open tab", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     TabCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), TabKey, tab)))
		})
	}
}

func existingTab(portal *services.Portal, tokens *TabTokens, r *http.Request) *services.Tab {
	cookie, err := r.Cookie(TabCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	id, err := tokens.Parse(cookie.Value)
	if err != nil {
		return nil
	}
	tab, err := portal.Tab(id)
	if err != nil {
		return nil
	}
	return tab
}

// clientAddr is the host part of the peer address. Forwarded headers are not
// trusted here since they would let a client pick its own tab quota.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func tabFrom(r *http.Request) *services.Tab {
	tab, _ := r.Context().Value(TabKey).(*services.Tab)
	return tab
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tab := tabFrom(r)
		if tab == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized: missing tab context")
			return
		}
		if !tab.Auth.Identity().IsAdmin() {
			writeError(w, http.StatusForbidden, "admin login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireVoter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tab := tabFrom(r)
		if tab == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized: missing tab context")
			return
		}
		if !tab.Auth.Identity().IsVoter() {
			writeError(w, http.StatusForbidden, "voter login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
