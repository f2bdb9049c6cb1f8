package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/common/security"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type contextKey string

const principalCtxKey contextKey = "principal"

// Authenticator requires a verified bearer token and stores the caller in
// the request context. It must run after jwtauth.Verifier.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		principal, err := security.PrincipalFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StaffOnly lets faculty and admins through.
func StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || !model.IsStaff(p.Role) {
			common.RespondWithError(w, http.StatusForbidden, "Faculty or admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(model.Principal)
	return p, ok
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.UserID, ok
}
