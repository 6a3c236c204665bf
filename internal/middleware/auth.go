package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// RequireAuth checks if the request carries an identity, either a bearer
// access token or a login session. A present but invalid token is rejected
// even when a session exists.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokens == nil {
				apierrors.Unauthorized(c, "Unsupported authorization scheme")
				c.Abort()
				return
			}

			actor, err := tokens.Validate(strings.TrimSpace(raw))
			if err != nil {
				apierrors.Unauthorized(c, err.Error())
				c.Abort()
				return
			}

			setActor(c, actor)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, _ := session.Get(constants.ContextKeyUserID).(string)
		if userID == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		email, _ := session.Get(constants.ContextKeyUserEmail).(string)
		role, _ := session.Get(constants.ContextKeyUserRole).(string)
		setActor(c, models.Actor{UID: userID, Email: email, Role: models.Role(role)})
		c.Next()
	}
}

// RequireAdmin rejects authenticated actors that are not administrators.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			apierrors.Forbidden(c, "Administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AccountChecker looks up whether an account still exists.
type AccountChecker interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// RequireActiveUser rejects actors whose account was deleted after their
// session or token was issued. It must run after RequireAuth.
func RequireActiveUser(accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		exists, err := accounts.UserExists(c.Request.Context(), actor.UID)
		if err != nil {
			apierrors.RespondWithDomainError(c, err)
			c.Abort()
			return
		}
		if !exists {
			slog.Info("rejected deleted account", "user_id", actor.UID)
			session := sessions.Default(c)
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Account no longer exists")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SaveSession stores actor in the login session.
func SaveSession(c *gin.Context, actor models.Actor) error {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, actor.UID)
	session.Set(constants.ContextKeyUserEmail, actor.Email)
	session.Set(constants.ContextKeyUserRole, string(actor.Role))
	return session.Save()
}

func setActor(c *gin.Context, actor models.Actor) {
	c.Set(constants.ContextKeyUserID, actor.UID)
	c.Set(constants.ContextKeyUserEmail, actor.Email)
	c.Set(constants.ContextKeyUserRole, actor.Role)
}

// GetActor retrieves the current actor from context
func GetActor(c *gin.Context) (models.Actor, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		return models.Actor{}, false
	}

	role, _ := c.Get(constants.ContextKeyUserRole)
	actorRole, _ := role.(models.Role)
	return models.Actor{
		UID:   userID,
		Email: c.GetString(constants.ContextKeyUserEmail),
		Role:  actorRole,
	}, true
}
