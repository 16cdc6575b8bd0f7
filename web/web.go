// Package web assembles the askboard HTTP server: router, sessions,
// templates, static assets and the scheduled jobs.
package web

import (
	"context"
	"errors"
	"crypto/tls"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/askboard/askboard/config"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/controller"
	"github.com/askboard/askboard/web/job"
	"github.com/askboard/askboard/web/locale"
	"github.com/askboard/askboard/web/middleware"
	"github.com/askboard/askboard/web/network"
	"github.com/askboard/askboard/web/service"
	"github.com/askboard/askboard/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

// Server is the askboard web server together with its services and cron.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db *gorm.DB

	settingService    *service.SettingService
	userService       *service.UserService
	classroomService  *service.ClassroomService
	enrollmentService *service.EnrollmentService
	questionService   *service.QuestionService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(db *gorm.DB) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		db:                db,
		settingService:    service.NewSettingService(db),
		userService:       service.NewUserService(db),
		classroomService:  service.NewClassroomService(db),
		enrollmentService: service.NewEnrollmentService(db),
		questionService:   service.NewQuestionService(db),
		ctx:               ctx,
		cancel:            cancel,
	}
}

func (s *Server) sessionStore(basePath string) (sessions.Store, error) {
	secret, err := s.settingService.GetSecret()
	if err != nil {
		return nil, err
	}
	maxAge, err := s.settingService.GetSessionMaxAge()
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     basePath,
		MaxAge:   maxAge * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	basePath, err := s.settingService.GetBasePath()
	if err != nil {
		return nil, err
	}
	store, err := s.sessionStore(basePath)
	if err != nil {
		return nil, err
	}
	proxies, err := s.settingService.GetTrustedProxies()
	if err != nil {
		return nil, err
	}
	trustedProxies, err := middleware.TrustedProxies(proxies)
	if err != nil {
		return nil, err
	}
	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(proxies); err != nil {
		return nil, err
	}
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		trustedProxies,
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".png"})),
		sessions.Sessions(session.CookieName, store),
		middleware.BasePath(basePath),
		locale.LocalizerMiddleware(),
		middleware.LoadIdentity(),
	)

	if err := mountViews(engine, basePath, template.FuncMap{"i18n": locale.I18n}); err != nil {
		return nil, err
	}

	g := engine.Group(basePath)
	controller.NewIndexController(g, s.settingService, s.userService)
	controller.NewAdminController(g, s.userService, s.classroomService, s.enrollmentService, s.questionService)
	controller.NewClassroomController(g, s.classroomService, s.enrollmentService, s.questionService)
	controller.NewTeacherController(g, s.classroomService, s.questionService)
	controller.NewAPIController(g, s.classroomService, s.questionService)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

func (s *Server) startTask() {
	tasks := []struct {
		spec string
		job  cron.Job
	}{
		{"@hourly", job.NewCheckpointDBJob(s.db)},
		{"@daily", job.NewStatsJob(s.db)},
	}
	for _, t := range tasks {
		if _, err := s.cron.AddJob(t.spec, t.job); err != nil {
			logger.Warningf("add job %T failed: %v", t.job, err)
		}
	}
}

// listen opens the configured address. With a usable certificate pair the
// listener speaks TLS and bounces plain HTTP clients to https.
func (s *Server) listen() (net.Listener, error) {
	listenIP, err := s.settingService.GetListen()
	if err != nil {
		return nil, err
	}
	port, err := s.settingService.GetPort()
	if err != nil {
		return nil, err
	}
	certFile, err := s.settingService.GetCertFile()
	if err != nil {
		return nil, err
	}
	keyFile, err := s.settingService.GetKeyFile()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(listenIP, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	if certFile == "" && keyFile == "" {
		logger.Info("Web server running HTTP on", listener.Addr())
		return listener, nil
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		logger.Error("Error loading certificates:", err)
		logger.Info("Web server running HTTP on", listener.Addr())
		return listener, nil
	}
	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}}
	logger.Info("Web server running HTTPS on", listener.Addr())
	return tls.NewListener(network.NewRedirectListener(listener), tlsConfig), nil
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}
	s.listener, err = s.listen()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts down the HTTP server and the cron scheduler.
func (s *Server) Stop() error {
	defer s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	errs := make([]error, 0, 2)
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, shutdownTimeout)
		defer cancel()
		errs = append(errs, s.httpServer.Shutdown(ctx))
	} else if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	return errors.Join(errs...)
}
