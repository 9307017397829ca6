package auth

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "lockerd/pkg/errors"
	httputil "lockerd/pkg/http"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

// Authenticate wraps a route, rejecting requests without a valid Bearer token
// and stashing the caller's Identity in the request context.
func Authenticate(secret string, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeAuthError(w, log, apperrors.Unauthorized("Authentication required"))
				return
			}

			claims, err := ParseToken(secret, tokenString)
			if err != nil {
				log.Warn("Token verification failed", "error", err, "path", r.URL.Path)
				writeAuthError(w, log, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.Subject,
				Role:   claims.Role,
			})
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// RequireAdmin gates operator-only routes. It must run after Authenticate.
func RequireAdmin(log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || id.Role != model.RoleAdmin {
				writeAuthError(w, log, apperrors.Forbidden("Admin privileges required"))
				return
			}
			next(w, r, ps)
		}
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, log *logger.Logger, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write auth error response", "error", writeErr)
	}
}
