// Package controller holds the askboard HTTP handlers: login, the admin
// dashboard, classrooms with their question boards, and the JSON API.
package controller

import (
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/web/locale"

	"github.com/gin-gonic/gin"
)

// I18nWeb localizes name for the request's language.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(locale.GetLocalizer(c), name, params...)
}

// homePath is where a role lands after login.
func homePath(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "admin"
	case model.RoleTeacher:
		return "teacher"
	default:
		return "dashboard"
	}
}
