package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"contactform/internal/config"
	httpapi "contactform/internal/http"
	"contactform/internal/logger"
	"contactform/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Parse("contactform-api", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "contactform-api")
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	router := httpapi.NewRouter(log)
	router.RegisterContactRoutes(httpapi.NewContactHandler(log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("contactform-api exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("contactform-api stopped")
}
