package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/askboard/askboard/config"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/entity"
	"github.com/askboard/askboard/web/locale"
	"github.com/askboard/askboard/web/middleware"

	"github.com/gin-gonic/gin"
)

func jsonObj(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, entity.Msg{Success: true, Obj: obj})
}

func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders the template with the title key and the values every page uses.
func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["base_path"] = c.GetString("base_path")
	data["loc"] = locale.GetLocalizer(c)
	data["user"] = middleware.CurrentIdentity(c)
	data["cur_ver"] = config.GetVersion()
	c.HTML(http.StatusOK, name, data)
}

// redirect sends a 302 to path relative to the base path.
func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusFound, c.GetString("base_path")+strings.TrimPrefix(path, "/"))
}

func plainText(c *gin.Context, statusCode int, key string) {
	c.String(statusCode, I18nWeb(c, key))
}

// internalError logs err and answers 500 without leaking it.
func internalError(c *gin.Context, msg string, err error) {
	logger.Errorf("[%s] %s: %v", c.GetString("request_id"), msg, err)
	plainText(c, http.StatusInternalServerError, "internalError")
	c.Abort()
}

// paramId parses a numeric path parameter. Anything else answers 404.
func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return 0, false
	}
	return id, true
}
