package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-commerce/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Middleware wires identity extraction and role guards for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Identity copies the gateway supplied caller identity into the request context.
// Requests without identity headers pass through anonymously; RequireRole
// rejects them where needed.
func (m Middleware) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !ValidRole(role) {
			if m.Logger != nil {
				m.Logger.Warn("rbac unknown role", slog.String("role", role), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, shared.ErrForbidden)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the current caller holds at least one of the roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := shared.PrincipalFromContext(r.Context())
			if err := RequireAnyRole(p, roles...); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Principal returns the caller identity attached by Identity.
func Principal(r *http.Request) shared.Principal {
	p, _ := shared.PrincipalFromContext(r.Context())
	return p
}
