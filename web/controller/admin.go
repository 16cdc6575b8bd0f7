package controller

import (
	"net/http"

	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"

	"github.com/gin-gonic/gin"
)

// Admin forms use pointer fields so "required" means the field was sent;
// an empty value is stored as is.

type AddUserForm struct {
	Username *string `form:"username" binding:"required"`
	Password *string `form:"password" binding:"required"`
}

type AddCourseForm struct {
	Subject         *string `form:"subject" binding:"required"`
	TeacherUsername string  `form:"teacher_username"`
}

type EnrollForm struct {
	StudentId *int `form:"student_id" binding:"required"`
	ClassId   *int `form:"class_id" binding:"required"`
}

// AdminController manages accounts, classrooms and enrollments. Every
// route requires the admin role.
type AdminController struct {
	userService       *service.UserService
	classroomService  *service.ClassroomService
	enrollmentService *service.EnrollmentService
	questionService   *service.QuestionService
}

func NewAdminController(
	g *gin.RouterGroup,
	userService *service.UserService,
	classroomService *service.ClassroomService,
	enrollmentService *service.EnrollmentService,
	questionService *service.QuestionService,
) *AdminController {
	a := &AdminController{
		userService:       userService,
		classroomService:  classroomService,
		enrollmentService: enrollmentService,
		questionService:   questionService,
	}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g = g.Group("", middleware.RoleRequired(model.RoleAdmin))

	g.GET("/admin", a.dashboard)
	g.POST("/add_student", a.addUser(model.RoleStudent))
	g.POST("/add_teacher", a.addUser(model.RoleTeacher))
	g.POST("/add_course", a.addCourse)
	g.POST("/enroll_student", a.enrollStudent)
	g.GET("/delete_student/:id", a.deleteStudent)
	g.GET("/delete_course/:id", a.deleteCourse)
}

func (a *AdminController) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	classes, err := a.classroomService.GetClassrooms(ctx)
	if err != nil {
		internalError(c, "list classrooms", err)
		return
	}
	students, err := a.userService.GetUsersByRole(ctx, model.RoleStudent)
	if err != nil {
		internalError(c, "list students", err)
		return
	}
	teachers, err := a.userService.GetUsersByRole(ctx, model.RoleTeacher)
	if err != nil {
		internalError(c, "list teachers", err)
		return
	}
	questions, err := a.questionService.GetQuestions(ctx)
	if err != nil {
		internalError(c, "list questions", err)
		return
	}
	html(c, "admin.html", "pages.admin.title", gin.H{
		"classes":   classes,
		"students":  students,
		"teachers":  teachers,
		"questions": questions,
	})
}

func (a *AdminController) addUser(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form AddUserForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Warningf("add %s ignored: %v", role, err)
			redirect(c, "admin")
			return
		}
		if _, err := a.userService.AddUser(c.Request.Context(), *form.Username, *form.Password, role); err != nil {
			internalError(c, "add user", err)
			return
		}
		redirect(c, "admin")
	}
}

func (a *AdminController) addCourse(c *gin.Context) {
	var form AddCourseForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("add course ignored:", err)
		redirect(c, "admin")
		return
	}
	if _, err := a.classroomService.AddClassroom(c.Request.Context(), *form.Subject, form.TeacherUsername); err != nil {
		internalError(c, "add classroom", err)
		return
	}
	redirect(c, "admin")
}

func (a *AdminController) enrollStudent(c *gin.Context) {
	var form EnrollForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("enrollment ignored:", err)
		redirect(c, "admin")
		return
	}
	if _, err := a.enrollmentService.Enroll(c.Request.Context(), *form.StudentId, *form.ClassId); err != nil {
		internalError(c, "enroll student", err)
		return
	}
	redirect(c, "admin")
}

func (a *AdminController) deleteStudent(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if err := a.userService.DeleteUser(c.Request.Context(), id); err != nil {
		internalError(c, "delete user", err)
		return
	}
	backOrAdmin(c)
}

func (a *AdminController) deleteCourse(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if err := a.classroomService.DeleteClassroom(c.Request.Context(), id); err != nil {
		internalError(c, "delete classroom", err)
		return
	}
	backOrAdmin(c)
}

func backOrAdmin(c *gin.Context) {
	if ref := c.GetHeader("Referer"); ref != "" {
		c.Redirect(http.StatusFound, ref)
		return
	}
	redirect(c, "admin")
}
