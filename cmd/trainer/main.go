package main

import (
	"context"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/absmach/baseliner/baselinerd"
	"github.com/absmach/baseliner/trainer"
)

const pathEnv = ".env"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := trainer.Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration : %s", err.Error())
	}

	if err := baselinerd.StartTrainer(ctx, cancel, cfg); err != nil {
		log.Fatalf("failed to start trainer: %s", err.Error())
	}
}
