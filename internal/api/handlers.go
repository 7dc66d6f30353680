// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ddd047/linguistic-chatbot/internal/buildinfo"
	"github.com/ddd047/linguistic-chatbot/internal/knowledge"
	"github.com/ddd047/linguistic-chatbot/internal/language"
	"github.com/ddd047/linguistic-chatbot/internal/store"
)

const dateLayout = "2006-01-02"

// ChatRequest is the inbound chat payload. SessionID and Language are
// optional; absent values are generated and detected respectively.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

// ChatResponse is the outbound chat payload.
type ChatResponse struct {
	Response         string             `json:"response"`
	SessionID        string             `json:"session_id"`
	DetectedLanguage string             `json:"detected_language"`
	Confidence       float64            `json:"confidence"`
	Category         string             `json:"category,omitempty"`
	NeedsHuman       bool               `json:"needs_human"`
	SuggestedContact *knowledge.Contact `json:"suggested_contact,omitempty"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":                "linguistic-chatbot",
		"version":             buildinfo.Version,
		"supported_languages": language.Supported(),
		"endpoints": []string{
			"POST /chat",
			"GET /health",
			"GET /sessions/:id",
			"GET /logs/daily",
			"GET /stats/daily",
			"GET /logs/export",
			"POST /admin/cleanup",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// A caller-supplied code is used as-is, even when unsupported: it is
	// stored opaquely and response selection falls back to English.
	lang := req.Language
	if lang == "" {
		lang = s.detector.Detect(req.Message)
	}

	result := s.engine.Process(req.Message, sessionID, lang)

	turn := &store.Turn{
		SessionID:   sessionID,
		Timestamp:   time.Now().UTC(),
		UserMessage: req.Message,
		BotResponse: result.Response,
		Language:    lang,
		Confidence:  result.Confidence,
		NeedsHuman:  result.NeedsHuman,
	}
	if result.Category != knowledge.CategoryUnknown {
		turn.Category = result.Category
	}
	// The classification result is returned even when durable logging
	// fails; the failure is only recorded.
	if err := s.store.LogTurn(c.Request.Context(), turn); err != nil {
		log.WithField("session_id", sessionID).Errorf("failed to log turn: %v", err)
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:         result.Response,
		SessionID:        sessionID,
		DetectedLanguage: lang,
		Confidence:       result.Confidence,
		Category:         result.Category,
		NeedsHuman:       result.NeedsHuman,
		SuggestedContact: result.Contact,
	})
}

func (s *Server) handleSession(c *gin.Context) {
	sessionID := c.Param("id")

	sess, err := s.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	turns, err := s.store.GetTurnsForSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"turns":   turns,
	})
}

func (s *Server) handleDailyLogs(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	turns, err := s.store.GetTurnsForDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	langs := map[string]bool{}
	for _, t := range turns {
		langs[t.Language] = true
	}
	distinct := make([]string, 0, len(langs))
	for l := range langs {
		distinct = append(distinct, l)
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      date,
		"total":     len(turns),
		"languages": distinct,
		"turns":     turns,
	})
}

func (s *Server) handleDailyStats(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	stat, err := s.store.GetDailyStats(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stat == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statistics for " + date})
		return
	}
	c.JSON(http.StatusOK, stat)
}

func (s *Server) handleExport(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end query parameters are required"})
		return
	}

	data, err := s.store.ExportRange(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=conversations_"+start+"_"+end+".json")
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleCleanup(c *gin.Context) {
	if err := s.store.Cleanup(c.Request.Context(), s.cfg.RetentionDays); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"retention_days": s.cfg.RetentionDays,
	})
}

// dateParam reads the date query parameter, defaulting to today (UTC). A
// malformed date writes a 400 and returns ok=false.
func (s *Server) dateParam(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return time.Now().UTC().Format(dateLayout), true
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return "", false
	}
	return date, true
}
