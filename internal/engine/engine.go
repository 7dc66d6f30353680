// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engine classifies user messages against the knowledge base and
// produces localized responses with a confidence score. Low-confidence
// matches are flagged for human handoff with the office contact attached.
package engine

import (
	"strings"

	"github.com/ddd047/linguistic-chatbot/internal/knowledge"
)

const (
	// greetingConfidence is the fixed score for the greeting short-circuit.
	greetingConfidence = 0.9
	// keywordConfidence is the score for a direct keyword substring match.
	keywordConfidence = 0.8
	// similarityThreshold is the minimum similarity ratio that counts as a
	// candidate match.
	similarityThreshold = 0.6
	// confidenceThreshold is the minimum winning score; anything below
	// routes to human handoff.
	confidenceThreshold = 0.6
)

// Result is the outcome of classifying one message.
type Result struct {
	Response   string             `json:"response"`
	Confidence float64            `json:"confidence"`
	Category   string             `json:"category"`
	NeedsHuman bool               `json:"needs_human"`
	Contact    *knowledge.Contact `json:"contact,omitempty"`
}

// Engine matches messages to knowledge-base categories. The knowledge base
// is read-only; per-session mutable state lives in the injected context
// store, keyed by session id.
type Engine struct {
	kb       *knowledge.Base
	contexts *contextStore
}

// New creates an engine over a validated knowledge base.
func New(kb *knowledge.Base) *Engine {
	return &Engine{
		kb:       kb,
		contexts: newContextStore(),
	}
}

// Process classifies a message and returns the localized response. It is
// total: every input produces a result, with low-confidence inputs
// resolving to the human-handoff fallback. The session's in-memory context
// is updated as a side effect; durable logging is the caller's job.
func (e *Engine) Process(text, sessionID, lang string) *Result {
	sc := e.contexts.getOrCreate(sessionID, lang)

	category, confidence := e.findBestMatch(text)

	var result *Result
	if confidence < confidenceThreshold {
		contact := e.kb.Contact
		result = &Result{
			Response:   e.kb.FallbackResponse(lang),
			Confidence: confidence,
			Category:   category,
			NeedsHuman: true,
			Contact:    &contact,
		}
	} else {
		result = &Result{
			Response:   e.kb.Response(category, lang),
			Confidence: confidence,
			Category:   category,
		}
	}

	sc.record(text, result.Response, category)
	return result
}

// findBestMatch scores the message against every category and returns the
// winning (category, confidence) pair.
//
// Greetings short-circuit at a fixed confidence before any scoring. For
// everything else the score of a (category, keyword) pair is the better of
// a substring match and a similarity ratio; ties keep the first-seen
// category in the knowledge base's declared order.
func (e *Engine) findBestMatch(text string) (string, float64) {
	lowered := strings.ToLower(text)

	for _, kw := range e.kb.Greetings.Keywords {
		if strings.Contains(lowered, kw) {
			return knowledge.CategoryGreeting, greetingConfidence
		}
	}

	bestCategory := ""
	bestScore := 0.0

	for _, category := range e.kb.Categories {
		for _, kw := range category.Keywords {
			if strings.Contains(lowered, kw) && keywordConfidence > bestScore {
				bestScore = keywordConfidence
				bestCategory = category.Name
			}

			if sim := similarityRatio(kw, lowered); sim > similarityThreshold && sim > bestScore {
				bestScore = sim
				bestCategory = category.Name
			}
		}
	}

	if bestCategory == "" {
		return knowledge.CategoryUnknown, bestScore
	}
	return bestCategory, bestScore
}

// Context returns the in-memory context for a session, or nil if the
// session has not been seen by this process.
func (e *Engine) Context(sessionID string) *SessionContext {
	return e.contexts.get(sessionID)
}

// ClearContext drops the in-memory context for a session.
func (e *Engine) ClearContext(sessionID string) {
	e.contexts.remove(sessionID)
}
