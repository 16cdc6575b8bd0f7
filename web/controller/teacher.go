package controller

import (
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"

	"github.com/gin-gonic/gin"
)

// TeacherController is the read-only view of a teacher's own classrooms.
type TeacherController struct {
	classroomService *service.ClassroomService
	questionService  *service.QuestionService
}

func NewTeacherController(g *gin.RouterGroup, classroomService *service.ClassroomService, questionService *service.QuestionService) *TeacherController {
	a := &TeacherController{
		classroomService: classroomService,
		questionService:  questionService,
	}
	a.initRouter(g)
	return a
}

func (a *TeacherController) initRouter(g *gin.RouterGroup) {
	g.GET("/teacher", middleware.RoleRequired(model.RoleTeacher), a.dashboard)
}

func (a *TeacherController) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	username := middleware.CurrentIdentity(c).Username
	classes, err := a.classroomService.GetClassroomsByTeacher(ctx, username)
	if err != nil {
		internalError(c, "list teacher classrooms", err)
		return
	}
	questions, err := a.questionService.GetQuestionsByTeacher(ctx, username)
	if err != nil {
		internalError(c, "list teacher questions", err)
		return
	}
	html(c, "teacher.html", "pages.teacher.title", gin.H{
		"classes":   classes,
		"questions": questions,
	})
}
