package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"
	"github.com/askboard/askboard/web/session"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

type AskForm struct {
	QuestionText string `form:"question_text"`
}

// ClassroomController serves the student side: enrolled classrooms, the
// question board, asking and upvoting.
type ClassroomController struct {
	classroomService  *service.ClassroomService
	enrollmentService *service.EnrollmentService
	questionService   *service.QuestionService
}

func NewClassroomController(
	g *gin.RouterGroup,
	classroomService *service.ClassroomService,
	enrollmentService *service.EnrollmentService,
	questionService *service.QuestionService,
) *ClassroomController {
	a := &ClassroomController{
		classroomService:  classroomService,
		enrollmentService: enrollmentService,
		questionService:   questionService,
	}
	a.initRouter(g)
	return a
}

func (a *ClassroomController) initRouter(g *gin.RouterGroup) {
	shared := g.Group("", middleware.LoginRequired())
	shared.GET("/dashboard", a.dashboard)
	shared.GET("/class/:id", a.classroom)
	shared.GET("/class/:id/qr", a.qr)

	g.POST("/ask/:id", a.ask)
	g.GET("/upvote/:classId/:qId", a.upvote)
}

func (a *ClassroomController) dashboard(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	classes, err := a.enrollmentService.GetEnrolledClassrooms(c.Request.Context(), id.UserId)
	if err != nil {
		internalError(c, "list enrolled classrooms", err)
		return
	}
	html(c, "dashboard.html", "pages.dashboard.title", gin.H{"classes": classes})
}

func (a *ClassroomController) classroom(c *gin.Context) {
	classId, ok := paramId(c, "id")
	if !ok {
		return
	}
	id := middleware.CurrentIdentity(c)
	classroom, status, err := openClassroom(c.Request.Context(), a.classroomService, classId, id)
	if err != nil {
		internalError(c, "load classroom", err)
		return
	}
	if status != http.StatusOK {
		denyClassroom(c, status)
		return
	}
	questions, err := a.questionService.GetRankedQuestions(c.Request.Context(), classId, id.UserId)
	if err != nil {
		internalError(c, "list questions", err)
		return
	}
	html(c, "classroom.html", "pages.classroom.title", gin.H{
		"classroom": classroom,
		"questions": questions,
	})
}

// qr answers a PNG pointing at the absolute classroom URL, for projecting
// in the lecture hall.
func (a *ClassroomController) qr(c *gin.Context) {
	classId, ok := paramId(c, "id")
	if !ok {
		return
	}
	_, status, err := openClassroom(c.Request.Context(), a.classroomService, classId, middleware.CurrentIdentity(c))
	if err != nil {
		internalError(c, "load classroom", err)
		return
	}
	if status != http.StatusOK {
		denyClassroom(c, status)
		return
	}
	png, err := qrcode.Encode(classroomURL(c, classId), qrcode.Medium, 256)
	if err != nil {
		internalError(c, "encode qr code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (a *ClassroomController) ask(c *gin.Context) {
	classId, ok := paramId(c, "id")
	if !ok {
		return
	}
	var form AskForm
	_ = c.ShouldBind(&form)
	if _, err := a.questionService.Ask(c.Request.Context(), classId, form.QuestionText); err != nil {
		internalError(c, "ask question", err)
		return
	}
	redirect(c, fmt.Sprintf("class/%d", classId))
}

func (a *ClassroomController) upvote(c *gin.Context) {
	classId, ok := paramId(c, "classId")
	if !ok {
		return
	}
	questionId, ok := paramId(c, "qId")
	if !ok {
		return
	}
	id := middleware.CurrentIdentity(c)
	if id == nil {
		redirect(c, "/")
		return
	}
	voted, err := a.questionService.Upvote(c.Request.Context(), id.UserId, questionId)
	if err != nil {
		internalError(c, "upvote", err)
		return
	}
	if !voted {
		logger.Debugf("user %d vote on question %d not counted", id.UserId, questionId)
	}
	redirect(c, fmt.Sprintf("class/%d", classId))
}

// openClassroom loads classId for the session and reports 404 when it is
// gone or 403 when a teacher asks for someone else's classroom.
func openClassroom(ctx context.Context, svc *service.ClassroomService, classId int, id *session.Identity) (*model.Classroom, int, error) {
	classroom, err := svc.GetClassroom(ctx, classId)
	if errors.Is(err, service.ErrClassroomNotFound) {
		return nil, http.StatusNotFound, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if id.Role == model.RoleTeacher && classroom.Teacher != id.Username {
		return nil, http.StatusForbidden, nil
	}
	return classroom, http.StatusOK, nil
}

func denyClassroom(c *gin.Context, status int) {
	if status == http.StatusNotFound {
		plainText(c, status, "pages.classroom.notFound")
	} else {
		plainText(c, status, "pages.classroom.forbidden")
	}
}

// classroomURL builds the absolute classroom link. Forwarded scheme and
// host are only taken from a trusted proxy.
func classroomURL(c *gin.Context, classId int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	host := c.Request.Host
	if middleware.FromTrustedProxy(c) {
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
			host = fwd
		}
	}
	return fmt.Sprintf("%s://%s%sclass/%d", scheme, host, c.GetString("base_path"), classId)
}
