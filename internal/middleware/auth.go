package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
)

// RequireAuth rejects requests without a logged-in session and exposes the
// session user to later handlers via GetUserID.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := sessionUserID(sessions.Default(c))
		if userID == "" {
			apierrors.Unauthorized(c, "")
			return
		}
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

func sessionUserID(s sessions.Session) string {
	id, _ := s.Get(constants.SessionKeyUserID).(string)
	return id
}

// StartSession replaces whatever the session held with userID.
func StartSession(c *gin.Context, userID string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(constants.SessionKeyUserID, userID)
	return s.Save()
}

// EndSession clears the session and expires its cookie.
func EndSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// GetUserID returns the user set by RequireAuth.
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(constants.ContextKeyUserID)
	return id, id != ""
}
