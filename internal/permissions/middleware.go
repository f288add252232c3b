package permissions

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/fleetgrid/fleetgrid/internal/shared"
	"github.com/fleetgrid/fleetgrid/internal/users"
)

// PrincipalSource resolves the acting user from a session user id.
type PrincipalSource interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
}

// Middleware wires navigation guards for HTTP handlers. A route behind
// RequireCapability is only reachable for users whose effective
// permission set (or elevated role) answers true.
type Middleware struct {
	Service *Service
	Users   PrincipalSource
	Logger  *slog.Logger
}

// RequireAuthenticated ensures a logged-in session.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.CurrentUserID(r); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnyAccess gates a route on holding the access switch for at
// least one asset.
func (m Middleware) RequireAnyAccess() func(http.Handler) http.Handler {
	return m.require(func(u users.User, set UserSet) bool {
		return HasAnyAccess(u.Member(), set)
	})
}

// RequireAnyCapability gates a route on holding the capability bit on
// at least one asset.
func (m Middleware) RequireAnyCapability(c Capability) func(http.Handler) http.Handler {
	return m.require(func(u users.User, set UserSet) bool {
		return HasAnyCapability(u.Member(), set, c)
	})
}

func (m Middleware) require(check func(users.User, UserSet) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.CurrentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			user, err := m.Users.GetByID(r.Context(), userID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve principal", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			set, err := m.Service.EffectiveSet(r.Context(), user)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("effective set", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !check(user, set) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUserID extracts the numeric user id from the session.
func (m Middleware) CurrentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
