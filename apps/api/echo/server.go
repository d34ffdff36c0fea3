package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/project"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
	metricsvc "github.com/likelion-sch/recruit/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    user.Service
		AppSvc     application.Service
		SessionSvc session.Service
		ProjectSvc project.Service
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *metricsvc.PrometheusRecorder // optional
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		auth     *Auth
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		auth:       NewAuth(deps.Conf),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.Conf
	s.app.HideBanner = true
	s.app.Debug = conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(requestIDMiddleware())
	if s.Metrics != nil {
		s.app.Use(s.Metrics.Middleware())
	}
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{conf.FrontendBaseURL},
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)

	s.app.GET("/api/health", health)
	if s.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	api := s.app.Group("/api")
	authed := []echo.MiddlewareFunc{s.auth.Middleware(), userMiddleware(s.UserSvc)}
	limiter := newIPRateLimiter(conf.Server.SendCodeRate, conf.Server.SendCodeBurst)

	registerUserAPI(api, authed, limiter, s.UserSvc, s.auth, s.Validate, conf.SchoolEmailDomain)
	registerApplicationAPI(api, authed, s.AppSvc, s.Validate)
	registerAdminAPI(api, authed, s.AppSvc, s.Validate)
	registerSessionAPI(api, authed, s.SessionSvc, s.Validate)
	registerProjectAPI(api, authed, s.ProjectSvc, s.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}
