package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/config"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/db"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/ingest"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/presence"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg       config.Config
	store     db.Store
	ingestSvc *ingest.Service
	presence  *presence.Tracker
	clock     clockwork.Clock
	startedAt time.Time
	engine    *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, store db.Store, ingestSvc *ingest.Service, tracker *presence.Tracker, clock clockwork.Clock) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware(cfg.CORSOrigins))

	server := &Server{
		cfg:       cfg,
		store:     store,
		ingestSvc: ingestSvc,
		presence:  tracker,
		clock:     clock,
		startedAt: clock.Now(),
		engine:    engine,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/readings", s.handleSubmitReading)
		api.GET("/readings", s.handleListReadings)
		api.GET("/readings/latest", s.handleLatestReading)
		api.GET("/devices", s.handleListDevices)
		api.DELETE("/readings", s.handleDeleteReadings)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
