// Package middleware holds the gin handlers that run ahead of the
// controllers: request tagging, identity loading and access checks.
package middleware

import (
	"net/http"

	"github.com/askboard/askboard/web/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// LoadIdentity copies the session identity, if any, into the request context.
func LoadIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := session.GetLoginUser(c); id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by LoadIdentity, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *session.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*session.Identity)
	return id
}

// LoginRequired sends anonymous requests back to the login page.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			toLogin(c)
			return
		}
		c.Next()
	}
}

func toLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, c.GetString("base_path"))
	c.Abort()
}
