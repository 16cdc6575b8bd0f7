package controller

import (
	"net/http"

	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"

	"github.com/gin-gonic/gin"
)

// APIController serves the JSON endpoints under /api. Replies use the
// entity.Msg envelope.
type APIController struct {
	classroomService *service.ClassroomService
	questionService  *service.QuestionService
}

func NewAPIController(g *gin.RouterGroup, classroomService *service.ClassroomService, questionService *service.QuestionService) *APIController {
	a := &APIController{
		classroomService: classroomService,
		questionService:  questionService,
	}
	a.initRouter(g)
	return a
}

// checkAPIAuth answers 401 in the envelope instead of redirecting.
func (a *APIController) checkAPIAuth(c *gin.Context) {
	if middleware.CurrentIdentity(c) == nil {
		pureJsonMsg(c, http.StatusUnauthorized, false, http.StatusText(http.StatusUnauthorized))
		c.Abort()
		return
	}
	c.Next()
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/api")
	api.Use(a.checkAPIAuth)

	api.GET("/class/:id/questions", a.questions)
}

func (a *APIController) questions(c *gin.Context) {
	classId, ok := paramId(c, "id")
	if !ok {
		return
	}
	id := middleware.CurrentIdentity(c)
	_, status, err := openClassroom(c.Request.Context(), a.classroomService, classId, id)
	if err != nil {
		internalError(c, "load classroom", err)
		return
	}
	switch status {
	case http.StatusNotFound:
		pureJsonMsg(c, status, false, I18nWeb(c, "pages.classroom.notFound"))
		return
	case http.StatusForbidden:
		pureJsonMsg(c, status, false, I18nWeb(c, "pages.classroom.forbidden"))
		return
	}
	questions, err := a.questionService.GetRankedQuestions(c.Request.Context(), classId, id.UserId)
	if err != nil {
		internalError(c, "list questions", err)
		return
	}
	jsonObj(c, questions)
}
