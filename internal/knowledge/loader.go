// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package knowledge

import (
	_ "embed"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

//go:embed default_knowledge.json
var builtinJSON []byte

// Load reads the knowledge base from path. Any read, parse, or validation
// failure falls back to the built-in base so the service never starts
// without usable data. An empty path skips the file entirely.
func Load(path string) (*Base, error) {
	if path != "" {
		base, err := loadFile(path)
		if err == nil {
			log.Infof("Knowledge base loaded from %s (%d categories)", path, len(base.Categories))
			return base, nil
		}
		log.Warnf("Falling back to built-in knowledge base: %v", err)
	}

	base, err := parse(builtinJSON)
	if err != nil {
		// Unreachable unless the embedded data is corrupt; treated as a
		// fatal startup condition by the caller.
		return nil, fmt.Errorf("built-in knowledge base is invalid: %w", err)
	}
	log.Infof("Built-in knowledge base loaded (%d categories)", len(base.Categories))
	return base, nil
}

func loadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	base, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid knowledge base %s: %w", path, err)
	}
	return base, nil
}

func parse(data []byte) (*Base, error) {
	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base JSON: %w", err)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &base, nil
}
