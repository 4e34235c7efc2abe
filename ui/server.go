package ui

import (
	"context"
	"log"
	"net/http"
	"time"

	"goattend/app"
	"goattend/internal"
	"goattend/internal/config"
	"goattend/ui/middleware"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API for uploads, attendance queries and exports
type Server struct {
	router  *gin.Engine
	http    *http.Server
	config  *config.Config
	uploads *app.UploadService
	reports *app.ReportService
	health  HealthChecker
	logger  *internal.Logger
}

// NewServer creates the server and registers its routes
func NewServer(cfg *config.Config, uploads *app.UploadService, reports *app.ReportService, health HealthChecker, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	s := &Server{
		router:  gin.New(),
		config:  cfg,
		uploads: uploads,
		reports: reports,
		health:  health,
		logger:  logger.With("Server"),
	}
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(middleware.RequestID(s.logger))
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.router.Use(middleware.BodyLimit(s.config.Upload.MaxContentLength))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	// The frontend is a separate SPA; page routes only redirect to it
	s.router.GET("/", s.handleRedirect(""))
	s.router.GET("/upload", s.handleRedirect("/upload"))
	s.router.POST("/upload", s.handleUpload)

	api := s.router.Group("/api")
	api.GET("/attendance", s.handleAttendance)
	api.GET("/stats", s.handleStats)
	api.GET("/filtered_stats", s.handleFilteredStats)
	api.GET("/courses", s.handleCourses)

	s.router.GET("/export/:format", s.handleExport)
	s.router.DELETE("/delete_record/:id", s.handleDeleteRecord)
	s.router.POST("/clear_all_data", s.handleClearAll)
	s.router.GET("/health", s.handleHealth)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Page not found"})
	})
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.http.Addr = addr
	log.Printf("Starting attendance API on http://%s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleRedirect(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, s.config.Server.FrontendURL+path)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status, database, code := "ok", "ok", http.StatusOK
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed: %v", err)
			status, database, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":      status,
		"database":    database,
		"server_time": time.Now().UTC().Format(time.RFC3339),
	})
}
