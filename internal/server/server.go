// Package server exposes the workflow engine, bay scheduler, and utilization
// projection as a JSON API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/notify"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB                *gorm.DB
	Port              int
	Out               io.Writer
	Log               zerolog.Logger
	Caps              db.Capabilities
	Notify            *notify.Fanout
	TargetMinutes     int // daily utilization target
	UtilizationWindow int // trailing days gathered for reports
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all routes registered. Split out from
// Start so tests can drive it through httptest.
func NewRouter(opts StartOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(opts.Log))
	router.Use(actorFromHeaders())

	s := &api{
		db:            opts.DB,
		caps:          opts.Caps,
		notify:        opts.Notify,
		log:           opts.Log,
		targetMinutes: opts.TargetMinutes,
		windowDays:    opts.UtilizationWindow,
	}
	s.registerRoutes(router)
	return router
}

// api bundles the handler dependencies.
type api struct {
	db            *gorm.DB
	caps          db.Capabilities
	notify        *notify.Fanout
	log           zerolog.Logger
	targetMinutes int
	windowDays    int
}

func (s *api) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)

	apiGroup := router.Group("/api")

	// Workflow mutations write the assignment ledger and cannot degrade the
	// way the utilization projection can; on a legacy schema they answer 503.
	items := apiGroup.Group("/items", s.requireLedger())
	items.POST("/:id/start", s.handleStartItem)
	items.POST("/:id/complete", s.handleCompleteItem)
	items.POST("/:id/priority", s.handleMarkPriority)
	items.POST("/:id/workers", s.handleAddWorker)
	items.DELETE("/:id/workers/:workerId", s.handleRemoveWorker)
	items.POST("/:id/transfer", s.handleTransferWorker)
	items.GET("/:id/transfers", s.handleTransferHistory)

	apiGroup.GET("/lifts/:id/floor", s.handleFloor)
	apiGroup.POST("/lifts/:id/assign", s.handleAssignLift)
	apiGroup.DELETE("/lift-assignments/:id", s.handleRemoveLiftAssignment)
	apiGroup.POST("/lift-assignments/:id/parts-wait", s.handlePartsWait)

	apiGroup.GET("/utilization", s.handleUtilization)
}

// requireLedger rejects workflow requests when the schema has no assignment
// ledger table.
func (s *api) requireLedger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.caps.RequireLedger(); err != nil {
			s.writeError(c, fault.Unavailablef("server: %v", err))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *api) handleHealth(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
