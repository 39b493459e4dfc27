package middleware

import "github.com/gin-gonic/gin"

// SessionMiddleware captures the admin session cookie so the platform client
// can replay it upstream. The gateway never validates or mints sessions; it
// only propagates ambient credentials.
func SessionMiddleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, err := c.Cookie(cookieName); err == nil && session != "" {
			c.Set("session_token", session)
		}
		c.Next()
	}
}

// GetSession retrieves the captured session token from gin context.
// Returns empty string when the request carried no session cookie.
func GetSession(c *gin.Context) string {
	return c.GetString("session_token")
}
