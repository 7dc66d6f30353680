// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the chatbot over HTTP: the chat endpoint itself plus
// session lookup, daily logs and aggregates, export, and the retention
// cleanup trigger.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/ddd047/linguistic-chatbot/internal/config"
	"github.com/ddd047/linguistic-chatbot/internal/engine"
	"github.com/ddd047/linguistic-chatbot/internal/language"
	"github.com/ddd047/linguistic-chatbot/internal/store"
)

// Server wires the language detector, matching engine and conversation
// store behind a Gin router.
type Server struct {
	cfg      *config.Config
	detector *language.Detector
	engine   *engine.Engine
	store    *store.Store
}

// NewServer creates a Server. All dependencies are required.
func NewServer(cfg *config.Config, detector *language.Detector, eng *engine.Engine, st *store.Store) *Server {
	return &Server{
		cfg:      cfg,
		detector: detector,
		engine:   eng,
		store:    st,
	}
}

// Router builds the Gin engine with middleware and all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.POST("/chat", s.handleChat)
	r.GET("/sessions/:id", s.handleSession)
	r.GET("/logs/daily", s.handleDailyLogs)
	r.GET("/stats/daily", s.handleDailyStats)
	r.GET("/logs/export", s.handleExport)
	r.POST("/admin/cleanup", s.handleCleanup)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// RunCleanupLoop removes expired conversations on a fixed cadence until ctx
// is cancelled. One pass runs immediately on startup so a long-stopped
// instance catches up without waiting a full interval.
func (s *Server) RunCleanupLoop(ctx context.Context) {
	interval := s.cfg.CleanupInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runCleanupPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCleanupPass(ctx)
		}
	}
}

func (s *Server) runCleanupPass(ctx context.Context) {
	if err := s.store.Cleanup(ctx, s.cfg.RetentionDays); err != nil && ctx.Err() == nil {
		log.Errorf("retention cleanup failed: %v", err)
	}
}
