// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the linguistic-chatbot server.
// The server answers campus FAQ questions in English, Hindi, Gujarati,
// Marathi and Rajasthani, and keeps a conversation log with daily
// aggregates in SQLite.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ddd047/linguistic-chatbot/internal/api"
	"github.com/ddd047/linguistic-chatbot/internal/buildinfo"
	"github.com/ddd047/linguistic-chatbot/internal/config"
	"github.com/ddd047/linguistic-chatbot/internal/engine"
	"github.com/ddd047/linguistic-chatbot/internal/knowledge"
	"github.com/ddd047/linguistic-chatbot/internal/language"
	"github.com/ddd047/linguistic-chatbot/internal/logging"
	"github.com/ddd047/linguistic-chatbot/internal/store"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// A .env file is optional; environment variables override YAML values.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	log.Infof("linguistic-chatbot %s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	kb, err := knowledge.Load(cfg.KnowledgeBasePath)
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open conversation store: %v", err)
	}
	defer func() {
		if errClose := st.Close(); errClose != nil {
			log.Errorf("failed to close conversation store: %v", errClose)
		}
	}()

	srv := api.NewServer(cfg, language.NewDetector(), engine.New(kb), st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.RunCleanupLoop(ctx)

	if err = srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Info("server stopped")
}
