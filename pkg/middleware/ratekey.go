package middleware

import "github.com/gin-gonic/gin"

// rateKey prefers the authenticated user id, so callers behind one NAT are
// limited separately, and falls back to the client IP.
func rateKey(c *gin.Context) string {
	if id := IdentityFrom(c); id != nil && id.ID != "" {
		return "user:" + id.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
