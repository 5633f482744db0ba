package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hub/internal/logger"
	"hub/internal/models"
	"hub/internal/remote"
)

// Options tunes the HTTP layer. The zero value serves the API only, in
// release mode, without CORS and without a waitlist limit.
type Options struct {
	StaticDir string
	// Mode is a gin mode: debug, release or test.
	Mode        string
	CORSOrigins []string
	// WaitlistRPS limits signups per client IP; zero disables the limit.
	WaitlistRPS   float64
	WaitlistBurst int
}

// Server exposes the data service over a JSON HTTP API.
type Server struct {
	engine    *gin.Engine
	service   remote.Service
	logger    zerolog.Logger
	staticDir string
	waitlist  gin.HandlersChain
}

// New constructs the HTTP server with routes and middleware configured.
func New(service remote.Service, log zerolog.Logger, opts Options) *Server {
	mode := opts.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log = log.With().Str("component", "http").Logger()
	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))
	if len(opts.CORSOrigins) > 0 {
		router.Use(corsMiddleware(opts.CORSOrigins))
	}

	srv := &Server{
		engine:    router,
		service:   service,
		logger:    log,
		staticDir: opts.StaticDir,
	}
	if opts.WaitlistRPS > 0 {
		srv.waitlist = append(srv.waitlist, newIPLimiter(opts.WaitlistRPS, opts.WaitlistBurst).middleware())
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/users/first", s.handleFirstUser)
		api.POST("/waitlist", append(s.waitlist, s.handleJoinWaitlist)...)

		api.GET("/statuses", s.handleListStatuses)
		api.GET("/statuses/first", s.handleFirstStatus)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PATCH(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/columns", s.handleListColumns)
			projects.POST(":id/columns", s.handleCreateColumn)
			projects.PUT(":id/columns/order", s.handleReorderColumns)
			projects.GET(":id/tasks", s.handleListTasks)
		}

		columns := api.Group("/columns")
		{
			columns.PATCH(":id", s.handleUpdateColumn)
			columns.DELETE(":id", s.handleDeleteColumn)
			columns.PUT(":id/tasks/order", s.handleReorderTasks)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", s.handleCreateTask)
			tasks.PATCH(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.POST(":id/move", s.handleMoveTask)
		}
	}

	s.mountStatic()
}

// handleHealth reports whether the backing store answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.service.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID returns a non-empty path parameter.
func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return "", false
	}
	return id, true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status that matches err.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
