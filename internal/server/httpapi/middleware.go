package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

const userContextKey = "currentUser"

// requireUser resolves the session cookie to a user and aborts with 401 when
// it cannot. Missing, invalid, expired and revoked sessions all look the same
// to the client: sign in again.
func (s *Server) requireUser(c *gin.Context) {

	secret, _ := c.Cookie(common.SessionCookieName)

	user, err := s.users.ResolveCurrentUser(c.Request.Context(), secret)
	if err != nil {
		s.logger.Error(c.Request.Context(), "session resolution failed", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "unauthenticated",
			"redirect": "/auth/sign-in",
		})
		return
	}

	c.Set(userContextKey, user)
	c.Next()
}

func sessionUser(c *gin.Context) *users.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*users.User)
	return user
}

func (s *Server) setSessionCookie(c *gin.Context, secret string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.SessionCookieName, secret, int(s.sessionValidity.Seconds()), "/", "", s.cookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", s.cookieSecure, true)
}
