package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/web/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(id *session.Identity, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(BasePath("/board/"), func(c *gin.Context) {
		if id != nil {
			c.Set(identityKey, id)
		}
	})
	handlers = append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/board/x", handlers...)
	return engine
}

func serve(engine *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/board/x", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestLoginRequired(t *testing.T) {
	rec := serve(newEngine(nil, LoginRequired()), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/board/", rec.Header().Get("Location"))

	id := &session.Identity{UserId: 2, Role: model.RoleStudent, Username: "student"}
	rec = serve(newEngine(id, LoginRequired()), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleRequired(t *testing.T) {
	teacher := &session.Identity{UserId: 3, Role: model.RoleTeacher, Username: "teacher"}
	admin := &session.Identity{UserId: 1, Role: model.RoleAdmin, Username: "admin"}

	rec := serve(newEngine(teacher, RoleRequired(model.RoleAdmin)), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/board/", rec.Header().Get("Location"))

	rec = serve(newEngine(nil, RoleRequired(model.RoleAdmin)), nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = serve(newEngine(admin, RoleRequired(model.RoleAdmin, model.RoleTeacher)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(newEngine(teacher, RoleRequired(model.RoleAdmin, model.RoleTeacher)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID(t *testing.T) {
	engine := newEngine(nil, RequestID())
	before := RequestCount()

	rec := serve(engine, nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	rec = serve(engine, http.Header{RequestIDHeader: {"abc"}})
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, before+2, RequestCount())
}

func TestCurrentIdentityAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentIdentity(c))
}

func TestTrustedProxies(t *testing.T) {
	trusted := func(proxies ...string) bool {
		mw, err := TrustedProxies(proxies)
		require.NoError(t, err)
		var got bool
		rec := serve(newEngine(nil, mw, func(c *gin.Context) { got = FromTrustedProxy(c) }), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return got
	}

	// httptest requests come from 192.0.2.1
	assert.False(t, trusted())
	assert.False(t, trusted("10.0.0.1", "198.51.100.0/24"))
	assert.True(t, trusted("192.0.2.1"))
	assert.True(t, trusted("10.0.0.1", "192.0.2.0/24"))

	_, err := TrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}
