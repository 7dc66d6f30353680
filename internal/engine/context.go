// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"sync"
	"time"
)

// ContextTurn is one user/bot exchange held in a session's in-memory
// history.
type ContextTurn struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext holds the per-session conversation state. It is
// process-local and lost on restart; durable state lives in the
// conversation store.
type SessionContext struct {
	mu           sync.Mutex
	turns        []ContextTurn
	lastCategory string
	language     string
}

// record appends a turn and updates the last matched category under the
// session's own lock, so concurrent requests for the same session cannot
// lose history entries.
func (sc *SessionContext) record(user, bot, category string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.turns = append(sc.turns, ContextTurn{User: user, Bot: bot, Timestamp: time.Now()})
	sc.lastCategory = category
}

// Turns returns a copy of the session's turn history.
func (sc *SessionContext) Turns() []ContextTurn {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := make([]ContextTurn, len(sc.turns))
	copy(out, sc.turns)
	return out
}

// LastCategory returns the most recently matched category.
func (sc *SessionContext) LastCategory() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.lastCategory
}

// Language returns the language recorded when the session was created.
func (sc *SessionContext) Language() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.language
}

// contextStore is a keyed concurrent map of session contexts. The store
// lock guards only map membership; mutation of an individual session goes
// through that session's own mutex, so sessions never block each other.
type contextStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionContext
}

func newContextStore() *contextStore {
	return &contextStore{sessions: make(map[string]*SessionContext)}
}

// getOrCreate returns the context for sessionID, creating it on first use.
func (cs *contextStore) getOrCreate(sessionID, lang string) *SessionContext {
	cs.mu.RLock()
	sc, ok := cs.sessions[sessionID]
	cs.mu.RUnlock()
	if ok {
		return sc
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if sc, ok := cs.sessions[sessionID]; ok {
		return sc
	}
	sc = &SessionContext{language: lang}
	cs.sessions[sessionID] = sc
	return sc
}

// get returns the context for sessionID, or nil.
func (cs *contextStore) get(sessionID string) *SessionContext {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sessions[sessionID]
}

// remove drops the context for sessionID.
func (cs *contextStore) remove(sessionID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.sessions, sessionID)
}
