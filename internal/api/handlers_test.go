// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/ddd047/linguistic-chatbot/internal/config"
	"github.com/ddd047/linguistic-chatbot/internal/engine"
	"github.com/ddd047/linguistic-chatbot/internal/knowledge"
	"github.com/ddd047/linguistic-chatbot/internal/language"
	"github.com/ddd047/linguistic-chatbot/internal/store"
)

func testServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "api.db")

	kb, err := knowledge.Load("")
	require.NoError(t, err)

	st, err := store.Open(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := NewServer(cfg, language.NewDetector(), engine.New(kb), st)
	return srv, srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRoot(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if body["name"] != "linguistic-chatbot" {
		t.Errorf("name = %v", body["name"])
	}
	langs, ok := body["supported_languages"].(map[string]any)
	if !ok || len(langs) != 5 {
		t.Errorf("supported_languages = %v", body["supported_languages"])
	}
}

func TestHandleHealth(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleChat_GeneratesSessionID(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	if resp.SessionID == "" {
		t.Fatal("no session id generated")
	}
	if resp.Category != knowledge.CategoryGreeting {
		t.Errorf("category = %q, want greeting", resp.Category)
	}
	if resp.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", resp.Confidence)
	}
	if resp.Response == "" {
		t.Error("empty response text")
	}

	// The turn must have been logged durably under the generated id.
	w = doJSON(t, router, http.MethodGet, "/sessions/"+resp.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleChat_ReusesSessionID(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "hello", "session_id": "fixed"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.SessionID != "fixed" {
		t.Errorf("session id = %q, want fixed", resp.SessionID)
	}
}

func TestHandleChat_MissingMessage(t *testing.T) {
	_, router := testServer(t)

	for _, body := range []gin.H{{}, {"message": "   "}} {
		w := doJSON(t, router, http.MethodPost, "/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /chat %v: status %d, want 400", body, w.Code)
		}
	}
}

func TestHandleChat_DetectsLanguage(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "शुल्क कब जमा करना है?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.DetectedLanguage != language.Hindi {
		t.Errorf("detected language = %q, want hi", resp.DetectedLanguage)
	}
}

func TestHandleChat_ExplicitLanguageWins(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "what about fees", "language": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.DetectedLanguage != language.Hindi {
		t.Errorf("detected language = %q, want the requested hi", resp.DetectedLanguage)
	}
}

func TestHandleChat_UnsupportedLanguageIsOpaque(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "what about fees", "session_id": "opaque", "language": "fr"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// The code passes through untouched; the response text falls back to
	// English inside the engine.
	if resp.DetectedLanguage != "fr" {
		t.Errorf("detected language = %q, want the supplied fr", resp.DetectedLanguage)
	}

	w = doJSON(t, router, http.MethodGet, "/sessions/opaque", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"fr"`)
}

func TestHandleChat_Handoff(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "xyz123 qqq unintelligible"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if !resp.NeedsHuman {
		t.Error("needs_human = false, want true")
	}
	if resp.SuggestedContact == nil {
		t.Fatal("no suggested contact on handoff")
	}
	if resp.SuggestedContact.Email == "" {
		t.Error("suggested contact has no email")
	}
}

func TestHandleSession_NotFound(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/sessions/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "session not found")
}

func TestHandleDailyLogs(t *testing.T) {
	_, router := testServer(t)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "hello", "session_id": "s1"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "शुल्क कब जमा करना है?", "session_id": "s2"}).Code)

	w := doJSON(t, router, http.MethodGet, "/logs/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Date      string        `json:"date"`
		Total     int           `json:"total"`
		Languages []string      `json:"languages"`
		Turns     []*store.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	if len(body.Languages) != 2 {
		t.Errorf("languages = %v, want en and hi", body.Languages)
	}
	if len(body.Turns) != body.Total {
		t.Errorf("turn count %d does not match total %d", len(body.Turns), body.Total)
	}
}

func TestHandleDailyLogs_InvalidDate(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/logs/daily?date=not-a-date", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDailyStats(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/stats/daily?date=2000-01-01", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "hello"}).Code)

	w = doJSON(t, router, http.MethodGet, "/stats/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stat store.DailyStat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stat))
	if stat.TotalConversations != 1 {
		t.Errorf("total conversations = %d, want 1", stat.TotalConversations)
	}
}

func TestHandleExport(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodGet, "/logs/export", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/chat", gin.H{"message": "hello"}).Code)

	w = doJSON(t, router, http.MethodGet, "/logs/export?start=2000-01-01&end=2100-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	var turns []*store.Turn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turns))
	require.Len(t, turns, 1)
}

func TestHandleCleanup(t *testing.T) {
	_, router := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/admin/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}
