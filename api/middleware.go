package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/leave-manager/leave"
)

type ctxKey int

const userCtxKey ctxKey = iota

// Authenticate verifies the bearer token and loads the caller. The user is
// available to handlers through CurrentUser.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			writeError(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		userID, err := h.Tokens.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		user, err := h.Service.User(r.Context(), userID)
		if err != nil {
			if leave.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, msgUserNotFound)
				return
			}
			h.fail(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers without role. Must run after Authenticate.
func RequireRole(role leave.Role) func(http.Handler) http.Handler {
	msg := msgAdminResource
	if role == leave.RoleEmployee {
		msg = msgEmployeeOnly
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, msgNotAuthed)
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(ctx context.Context) *leave.User {
	u, _ := ctx.Value(userCtxKey).(*leave.User)
	return u
}

// bearerToken extracts the credential from "Bearer <token>".
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
