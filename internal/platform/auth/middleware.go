package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/session"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
	CtxTokenKey  = "session_token"
)

const msgUnauthorized = "No autorizado. Inicia sesión nuevamente."

// BearerToken reads "Authorization: Bearer <token>". It returns "" when the
// header is missing or malformed.
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession resolves the caller's session from the bearer token, puts
// it on the request context for the backend client and sets the operator's
// id and role on the gin context.
func RequireSession(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			apierr.Abort(c, apierr.Unauthorized(msgUnauthorized))
			return
		}
		sess, ok := store.Lookup(token)
		if !ok {
			apierr.Abort(c, apierr.Unauthorized(msgUnauthorized))
			return
		}
		if sess.Expired() {
			// exp claim passed or the backend already refused the token
			sess.Expire()
			store.Close(token)
			apierr.Abort(c, apierr.Unauthorized(session.ExpiredMessage))
			return
		}
		user, ok := sess.User()
		if !ok {
			store.Close(token)
			apierr.Abort(c, apierr.Unauthorized(msgUnauthorized))
			return
		}

		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxRoleKey, user.Role)
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = r != ""
	}

	return func(c *gin.Context) {
		role, _ := c.Value(CtxRoleKey).(domain.Role)
		if !allowed[role] {
			apierr.Abort(c, apierr.Forbidden("No tienes permisos para esta acción."))
			return
		}
		c.Next()
	}
}

// UserID returns the operator id set by RequireSession.
func UserID(c *gin.Context) domain.ID {
	id, _ := c.Value(CtxUserIDKey).(domain.ID)
	return id
}
