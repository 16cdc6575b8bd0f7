package middleware

import (
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"

	"github.com/gin-gonic/gin"
)

// RoleRequired lets through only sessions holding one of roles. Anyone
// else, logged in or not, lands on the login page.
func RoleRequired(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool)
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			toLogin(c)
			return
		}
		if !allowed[id.Role] {
			logger.Debugf("user %q with role %q denied %s", id.Username, id.Role, c.Request.URL.Path)
			toLogin(c)
			return
		}
		c.Next()
	}
}
