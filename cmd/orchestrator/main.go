package main

import (
	"context"
	"log"
	"os"

	"github.com/absmach/supermq/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/absmach/baseliner/baselinerd"
)

const (
	defHTTPPort   = "7070"
	envPrefixHTTP = "ORCHESTRATOR_HTTP_"
	pathEnv       = ".env"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := baselinerd.OrchestratorConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		log.Fatalf("failed to load HTTP server configuration : %s", err.Error())
	}
	cfg.Server = httpServerConfig

	if err := baselinerd.StartOrchestrator(ctx, cancel, cfg); err != nil {
		log.Fatalf("failed to start orchestrator: %s", err.Error())
	}
}
