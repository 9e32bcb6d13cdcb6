package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/cli"
	"github.com/ivankudzin/tgapp/matchengine/internal/config"
	"github.com/ivankudzin/tgapp/matchengine/internal/infra/logger"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cli.RunServer(ctx, cfg, log)
	stop()
	_ = log.Sync()
	if err != nil {
		log.Fatal("api server failed", zap.Error(err))
	}
}
