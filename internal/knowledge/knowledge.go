// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package knowledge holds the curated FAQ knowledge base: categories with
// keywords and localized answers, a greetings entry, and the office contact
// record used for human handoff. The base is loaded once at startup and is
// read-only afterwards, shared by all sessions.
package knowledge

import (
	"fmt"

	"github.com/ddd047/linguistic-chatbot/internal/language"
)

// Reserved category names.
const (
	CategoryGreeting = "greeting"
	CategoryUnknown  = "unknown"
)

// genericFallback is the last resort when neither the requested language
// nor English has a response for a category.
const genericFallback = "I'm sorry, I don't understand."

// Category is a single FAQ topic. Keywords are language-mixed; Responses
// map language codes to the localized answer.
type Category struct {
	Name      string            `json:"name"`
	Keywords  []string          `json:"keywords"`
	Responses map[string]string `json:"responses"`
}

// Greetings holds the greeting keywords and localized greeting responses.
type Greetings struct {
	Keywords  []string          `json:"keywords"`
	Responses map[string]string `json:"responses"`
}

// Contact is the static office contact record attached to human-handoff
// responses.
type Contact struct {
	OfficeHours string `json:"office_hours"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

// Base is the complete knowledge base. Categories is a slice, not a map:
// classification ties are broken by declared order, so iteration order is
// part of the contract.
type Base struct {
	Categories []Category        `json:"categories"`
	Greetings  Greetings         `json:"greetings"`
	Contact    Contact           `json:"contact"`
	Fallbacks  map[string]string `json:"fallbacks"`
}

// Validate rejects malformed bases early, at load time, so per-request code
// never has to deal with missing keywords or absent English responses.
func (b *Base) Validate() error {
	if len(b.Categories) == 0 {
		return fmt.Errorf("knowledge base has no categories")
	}
	seen := make(map[string]bool, len(b.Categories))
	for i, c := range b.Categories {
		if c.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", c.Name)
		}
		if c.Responses[language.English] == "" {
			return fmt.Errorf("category %q has no English response", c.Name)
		}
	}
	if len(b.Greetings.Keywords) == 0 {
		return fmt.Errorf("greetings entry has no keywords")
	}
	if b.Greetings.Responses[language.English] == "" {
		return fmt.Errorf("greetings entry has no English response")
	}
	if b.Fallbacks[language.English] == "" {
		return fmt.Errorf("no English fallback response")
	}
	return nil
}

// Response returns the localized answer for a category, falling back to
// English and then to a generic apology. The greeting category is resolved
// from the greetings entry.
func (b *Base) Response(category, lang string) string {
	var responses map[string]string
	switch {
	case category == CategoryGreeting:
		responses = b.Greetings.Responses
	default:
		c := b.Category(category)
		if c == nil {
			return b.FallbackResponse(lang)
		}
		responses = c.Responses
	}

	if r := responses[lang]; r != "" {
		return r
	}
	if r := responses[language.English]; r != "" {
		return r
	}
	return genericFallback
}

// FallbackResponse returns the localized "contact our office" message used
// when classification confidence is too low.
func (b *Base) FallbackResponse(lang string) string {
	if r := b.Fallbacks[lang]; r != "" {
		return r
	}
	return b.Fallbacks[language.English]
}

// Category returns the category with the given name, or nil.
func (b *Base) Category(name string) *Category {
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i]
		}
	}
	return nil
}
