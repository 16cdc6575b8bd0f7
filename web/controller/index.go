package controller

import (
	"net/http"

	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"
	"github.com/askboard/askboard/web/session"

	"github.com/gin-gonic/gin"
)

type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// IndexController serves the login page, credential checks and logout.
type IndexController struct {
	settingService *service.SettingService
	userService    *service.UserService
}

func NewIndexController(g *gin.RouterGroup, settingService *service.SettingService, userService *service.UserService) *IndexController {
	a := &IndexController{
		settingService: settingService,
		userService:    userService,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.POST("/", a.login)
	g.GET("/logout", a.logout)
}

func (a *IndexController) index(c *gin.Context) {
	if id := middleware.CurrentIdentity(c); id != nil {
		redirect(c, homePath(id.Role))
		return
	}
	html(c, "login.html", "pages.login.title", nil)
}

func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	// a malformed body is treated like wrong credentials
	_ = c.ShouldBind(&form)

	user := a.userService.CheckUser(c.Request.Context(), form.Username, form.Password)
	if user == nil {
		logger.Warningf("wrong login for user %q from %s", form.Username, c.ClientIP())
		plainText(c, http.StatusOK, "pages.login.wrongPassword")
		return
	}

	sessionMaxAge, err := a.settingService.GetSessionMaxAge()
	if err != nil {
		logger.Warning("Unable to get session's max age from DB")
	}
	session.SetMaxAge(c, sessionMaxAge*60)

	if err := session.SetLoginUser(c, session.NewIdentity(user)); err != nil {
		internalError(c, "save session", err)
		return
	}
	logger.Infof("%s logged in successfully as %s, IP: %s", user.Username, user.Role, c.ClientIP())
	redirect(c, homePath(user.Role))
}

func (a *IndexController) logout(c *gin.Context) {
	if id := middleware.CurrentIdentity(c); id != nil {
		logger.Infof("%s logged out successfully", id.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to clear session on logout:", err)
	}
	redirect(c, "/")
}
