package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/apperror"
)

// SessionGate is the view of the session the route guards need
type SessionGate interface {
	State() entity.SessionState
	HasRole(roles ...enum.Role) bool
	Snapshot() entity.Session
}

// RequireSession lets a request through only when the process is signed in,
// and, when roles are given, only for those roles
func RequireSession(session SessionGate, roles ...enum.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.State() != entity.SessionAuthenticated {
			response.AbortWithError(c, apperror.ErrUnauthorized)
			return
		}
		if !session.HasRole(roles...) {
			response.AbortWithError(c, apperror.ErrForbidden)
			return
		}

		snap := session.Snapshot()
		if snap.CurrentUser != nil {
			c.Set("username", snap.CurrentUser.Username)
			c.Set("user_role", string(snap.Role()))
		}
		c.Next()
	}
}
