// Package session stores the logged-in identity in the signed cookie session.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/askboard/askboard/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CookieName = "askboard"
	loginUser  = "LOGIN_USER"
)

// Identity is what a session carries about its user.
type Identity struct {
	UserId   int
	Role     model.Role
	Username string
}

func init() {
	gob.Register(Identity{})
}

func NewIdentity(user *model.User) Identity {
	return Identity{UserId: user.Id, Role: user.Role, Username: user.Username}
}

func SetLoginUser(c *gin.Context, id Identity) error {
	s := sessions.Default(c)
	s.Set(loginUser, id)
	return s.Save()
}

// SetMaxAge sets the cookie lifetime in seconds; zero keeps a browser-session cookie.
func SetMaxAge(c *gin.Context, maxAge int) {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     c.GetString("base_path"),
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func GetLoginUser(c *gin.Context) *Identity {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if id, ok := obj.(Identity); ok {
			return &id
		}
	}
	return nil
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   c.GetString("base_path"),
		MaxAge: -1,
	})
	return s.Save()
}
