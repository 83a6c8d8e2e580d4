package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"tailorshop/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// sessionMiddleware attaches the bearer session when one is presented.
// Missing tokens pass through; invalid ones are rejected.
func sessionMiddleware(parser sessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		s, err := parser.Parse(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				abortError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
				return
			}
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, s)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// EventSource cannot set headers.
	if c.Request.Method == http.MethodGet && strings.HasSuffix(c.Request.URL.Path, "/events") {
		return c.Query("token")
	}
	return ""
}

func currentSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c); !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "session required")
			return
		}
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := currentSession(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "session required")
			return
		}
		if !s.IsCustomer() {
			abortError(c, http.StatusForbidden, "forbidden", "sign in to continue")
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := currentSession(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "session required")
			return
		}
		if !s.IsAdmin() {
			abortError(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}
