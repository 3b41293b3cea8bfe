package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/kawasumi/task-tracker-api/internal/constants"
	"github.com/kawasumi/task-tracker-api/internal/database"
	apierrors "github.com/kawasumi/task-tracker-api/internal/errors"
	"github.com/kawasumi/task-tracker-api/internal/models"
)

// RequireAdminAccess restricts a route to admin-flagged identities.
// Unauthenticated requests are pointed back at login with the original
// target preserved; authenticated non-admins get a hard rejection.
func RequireAdminAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		sessionUserID := session.Get(constants.ContextKeyUserID)
		if sessionUserID == nil {
			target := constants.LoginPath + "?next=" + c.Request.URL.Path
			apierrors.UnauthorizedWithRedirect(c, "Please log in to access this page", target)
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyUserID, sessionUserID)

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.IsAdmin {
			apierrors.ForbiddenWithCode(c, apierrors.ErrCodeAdminOnly, "You do not have permission to access this page")
			c.Abort()
			return
		}

		c.Next()
	}
}
