// Package api exposes the authenticated job trigger and operational
// endpoints. Alert management itself lives in the web app, not here.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/jcastillo/inmoalert/internal/config"
	"github.com/jcastillo/inmoalert/internal/entities"
)

type runner interface {
	RunAll(ctx context.Context, notify bool) entities.RunSummary
	RunOne(ctx context.Context, alertID int, notify bool) entities.RunSummary
}

type Server struct {
	cfg    config.APIConfig
	runner runner
	http   *http.Server
}

func NewServer(cfg config.APIConfig, runner runner) *Server {

	s := &Server{cfg: cfg, runner: runner}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authorized := engine.Group("/api/v1", s.authMiddleware())
	authorized.POST("/run", s.triggerRun)

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}
	return s
}

func (s *Server) Run() {
	log.Infof("api server listening on %v", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("api server stopped: %v", err)
	}
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+s.cfg.AuthToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type runRequest struct {
	AlertID *int `json:"alertId"`
	// Notify false is the dry-run mode: deliveries are still recorded, no
	// mail goes out.
	Notify *bool `json:"notify"`
}

func (s *Server) triggerRun(c *gin.Context) {

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notify := true
	if req.Notify != nil {
		notify = *req.Notify
	}

	var summary entities.RunSummary
	if req.AlertID != nil {
		summary = s.runner.RunOne(c.Request.Context(), *req.AlertID, notify)
	} else {
		summary = s.runner.RunAll(c.Request.Context(), notify)
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
