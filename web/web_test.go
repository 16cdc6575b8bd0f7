package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askboard/askboard/config"
	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/web/entity"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// client drives the engine in-process and carries cookies between requests
// the way a browser would.
type client struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
}

func (c *client) do(method, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	c.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, form, nil)
}

func (c *client) login(username, password string) *httptest.ResponseRecorder {
	return c.post("/", url.Values{"username": {username}, "password": {password}})
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestEnv(t *testing.T, configure ...func(db *gorm.DB)) *testEnv {
	t.Helper()
	db, err := database.Open(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "askboard.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	for _, f := range configure {
		f(db)
	}

	engine, err := NewServer(db).initRouter()
	require.NoError(t, err)
	return &testEnv{t: t, db: db, engine: engine}
}

// withSettings changes stored settings before the router reads them.
func withSettings(t *testing.T, change func(all *entity.AllSetting)) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		svc := service.NewSettingService(db)
		all, err := svc.GetAllSetting()
		require.NoError(t, err)
		change(all)
		require.NoError(t, svc.UpdateAllSetting(all))
	}
}

func (e *testEnv) client() *client {
	return &client{t: e.t, engine: e.engine, cookies: map[string]*http.Cookie{}}
}

func (e *testEnv) count(m any, query string, args ...any) int64 {
	var n int64
	q := e.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(e.t, q.Count(&n).Error)
	return n
}

func (e *testEnv) question(id int) model.Question {
	var q model.Question
	require.NoError(e.t, e.db.First(&q, id).Error)
	return q
}

func TestLoginRedirectsByRole(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		username, password, home string
	}{
		{"admin", "admin123", "/admin"},
		{"student", "1234", "/dashboard"},
		{"teacher", "teach123", "/teacher"},
	}
	for _, tc := range cases {
		t.Run(tc.username, func(t *testing.T) {
			c := env.client()
			rec := c.login(tc.username, tc.password)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.home, rec.Header().Get("Location"))
			assert.NotEmpty(t, c.cookies)

			rec = c.get("/")
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.home, rec.Header().Get("Location"))

			rec = c.get(tc.home)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.username)
		})
	}
}

func TestWrongPasswordSetsNoSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	rec := c.login("student", "wrong")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wrong password!", rec.Body.String())
	assert.Empty(t, c.cookies)

	rec = c.get("/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.client().get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student", "1234")

	rec := c.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, c.cookies)

	rec = c.get("/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student", "1234")

	for _, path := range []string{"/admin", "/delete_course/1", "/teacher"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
	rec := c.post("/add_course", url.Values{"subject": {"Chemistry"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int64(1), env.count(&model.Classroom{}, ""))
}

func TestAdminAddsCourseTeacherSeesIt(t *testing.T) {
	env := newTestEnv(t)
	admin := env.client()
	admin.login("admin", "admin123")

	rec := admin.post("/add_course", url.Values{"subject": {"Physics"}, "teacher_username": {"teacher"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = admin.get("/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Physics")

	teacher := env.client()
	teacher.login("teacher", "teach123")
	rec = teacher.get("/teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Physics")
	assert.Contains(t, rec.Body.String(), "Math 101")
}

func TestAdminAddsUsers(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("admin", "admin123")

	c.post("/add_student", url.Values{"username": {"bob"}, "password": {"pw"}})
	c.post("/add_teacher", url.Values{"username": {"ann"}, "password": {"pw"}})

	assert.Equal(t, int64(1), env.count(&model.User{}, "username = ? AND role = ?", "bob", model.RoleStudent))
	assert.Equal(t, int64(1), env.count(&model.User{}, "username = ? AND role = ?", "ann", model.RoleTeacher))

	bob := env.client()
	rec := bob.login("bob", "pw")
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestMissingFieldsAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("admin", "admin123")

	for path, form := range map[string]url.Values{
		"/add_student":    {"password": {"pw"}},
		"/add_teacher":    {"username": {"ann"}},
		"/add_course":     {"teacher_username": {"teacher"}},
		"/enroll_student": {"student_id": {"2"}},
	} {
		rec := c.post(path, form)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/admin", rec.Header().Get("Location"), path)
	}
	assert.Equal(t, int64(3), env.count(&model.User{}, ""))
	assert.Equal(t, int64(1), env.count(&model.Classroom{}, ""))
	assert.Zero(t, env.count(&model.Enrollment{}, ""))
}

func TestEmptyFieldsAreStored(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("admin", "admin123")

	rec := c.post("/add_student", url.Values{"username": {"quiet"}, "password": {""}})
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.Equal(t, int64(1), env.count(&model.User{}, "username = ? AND password = ? AND role = ?", "quiet", "", model.RoleStudent))

	c.post("/add_course", url.Values{"subject": {""}})
	assert.Equal(t, int64(1), env.count(&model.Classroom{}, "subject = ? AND teacher = ?", "", ""))
}

func TestEnrollmentShowsOnDashboard(t *testing.T) {
	env := newTestEnv(t)
	admin := env.client()
	admin.login("admin", "admin123")

	form := url.Values{"student_id": {"2"}, "class_id": {"1"}}
	admin.post("/enroll_student", form)
	admin.post("/enroll_student", form)
	assert.Equal(t, int64(1), env.count(&model.Enrollment{}, "user_id = ? AND classroom_id = ?", 2, 1))

	student := env.client()
	student.login("student", "1234")
	rec := student.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Math 101")
}

func TestDeleteRedirects(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("admin", "admin123")

	rec := c.do(http.MethodGet, "/delete_course/1", nil, http.Header{"Referer": {"/admin#classes"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin#classes", rec.Header().Get("Location"))
	assert.Zero(t, env.count(&model.Classroom{}, ""))

	rec = c.get("/delete_student/2")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.Zero(t, env.count(&model.User{}, "id = ?", 2))

	rec = c.get("/delete_student/2")
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = c.get("/delete_student/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskAndUpvote(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student", "1234")

	rec := c.post("/ask/1", url.Values{"question_text": {"What is gravity?"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/class/1", rec.Header().Get("Location"))

	rec = c.get("/class/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What is gravity?")
	assert.Contains(t, rec.Body.String(), "/upvote/1/1")
	assert.Zero(t, env.question(1).Votes)

	for i := 0; i < 2; i++ {
		rec = c.get("/upvote/1/1")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/class/1", rec.Header().Get("Location"))
	}
	assert.Equal(t, 1, env.question(1).Votes)
	assert.Equal(t, int64(1), env.count(&model.Vote{}, ""))

	rec = c.get("/class/1")
	assert.NotContains(t, rec.Body.String(), "/upvote/1/1")
}

func TestEmptyQuestionIsDropped(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student", "1234")

	rec := c.post("/ask/1", url.Values{"question_text": {""}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, env.count(&model.Question{}, ""))
}

func TestAnonymousAskAndUpvote(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	rec := c.post("/ask/1", url.Values{"question_text": {"Anyone?"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int64(1), env.count(&model.Question{}, "text = ?", "Anyone?"))

	rec = c.get("/upvote/1/1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Zero(t, env.count(&model.Vote{}, ""))
	assert.Zero(t, env.question(1).Votes)
}

func TestClassroomOrdering(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []model.Question{
		{ClassroomId: 1, Text: "three votes", Votes: 3},
		{ClassroomId: 1, Text: "one vote", Votes: 1},
		{ClassroomId: 1, Text: "two votes", Votes: 2},
	} {
		require.NoError(t, env.db.Create(&q).Error)
	}
	c := env.client()
	c.login("student", "1234")

	body := c.get("/class/1").Body.String()
	i3 := strings.Index(body, "three votes")
	i2 := strings.Index(body, "two votes")
	i1 := strings.Index(body, "one vote")
	require.True(t, i3 >= 0 && i2 >= 0 && i1 >= 0)
	assert.Less(t, i3, i2)
	assert.Less(t, i2, i1)
}

func TestTeacherClassroomAccess(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&model.Classroom{Subject: "Biology", Teacher: "someone"}).Error)
	c := env.client()
	c.login("teacher", "teach123")

	rec := c.get("/class/1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.get("/class/2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", rec.Body.String())

	rec = c.get("/class/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Class not found or deleted", rec.Body.String())

	rec = c.get("/class/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassroomQRCode(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	rec := c.get("/class/1/qr")
	assert.Equal(t, http.StatusFound, rec.Code)

	c.login("student", "1234")
	rec = c.get("/class/1/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = c.get("/class/99/qr")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuestionsAPI(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&model.Question{ClassroomId: 1, Text: "Is it on the exam?", Votes: 2}).Error)
	require.NoError(t, env.db.Create(&model.Classroom{Subject: "Biology", Teacher: "someone"}).Error)

	anon := env.client()
	rec := anon.get("/api/class/1/questions")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	student := env.client()
	student.login("student", "1234")
	student.get("/upvote/1/1")

	rec = student.get("/api/class/1/questions")
	require.Equal(t, http.StatusOK, rec.Code)
	var msg struct {
		Success bool                  `json:"success"`
		Obj     []entity.QuestionView `json:"obj"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.True(t, msg.Success)
	require.Len(t, msg.Obj, 1)
	assert.Equal(t, "Is it on the exam?", msg.Obj[0].Text)
	assert.Equal(t, 3, msg.Obj[0].Votes)
	assert.True(t, msg.Obj[0].HasVoted)

	rec = student.get("/api/class/99/questions")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	teacher := env.client()
	teacher.login("teacher", "teach123")
	rec = teacher.get("/api/class/2/questions")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var denied entity.Msg
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &denied))
	assert.False(t, denied.Success)
	assert.Equal(t, "Forbidden", denied.Msg)
}

func TestBasePath(t *testing.T) {
	env := newTestEnv(t, withSettings(t, func(all *entity.AllSetting) {
		all.WebBasePath = "board"
	}))
	c := env.client()

	rec := c.login("admin", "admin123")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.post("/board/", url.Values{"username": {"admin"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/board/admin", rec.Header().Get("Location"))

	rec = c.get("/board/admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/board/assets/css/style.css")

	rec = c.get("/board/assets/css/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRussianPages(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("teacher", "teach123")
	require.NoError(t, env.db.Create(&model.Classroom{Subject: "Biology", Teacher: "someone"}).Error)

	rec := c.do(http.MethodGet, "/class/2", nil, http.Header{"Accept-Language": {"ru-RU"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Доступ запрещён", rec.Body.String())
}
