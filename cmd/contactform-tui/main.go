package main

import (
	"context"
	"fmt"
	"os"

	"contactform/internal/client"
	"contactform/internal/config"
	"contactform/internal/form"
	"contactform/internal/logger"
	"contactform/internal/mqtt"
	"contactform/internal/notify"
	"contactform/internal/store"
	"contactform/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse("contactform-tui", os.Args[1:])
	if err != nil {
		return err
	}

	// the terminal belongs to the form, so logs go to a file
	log, err := logger.NewFileLogger(cfg.Log.Level, cfg.Log.File, "contactform-tui")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	var kv store.KV = store.NewMemoryKV()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		kv = store.NewRedisKV(redisClient)
	}
	mode := form.NewMode(ctx, store.NewForceErrorPreference(kv), log)

	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.MQTT.Enabled {
		mc, err := mqtt.NewClient(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			log.Warn("MQTT disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			defer mc.Disconnect()
			notifiers = append(notifiers, notify.NewMQTTNotifier(mc, cfg.MQTT.Topic, log))
		}
	}

	validationMode, err := form.ParseValidationMode(cfg.Form.ValidationMode)
	if err != nil {
		return err
	}

	exitURL, err := tui.Run(form.Options{
		Endpoint:       cfg.Form.Endpoint,
		ThankYouURL:    cfg.Form.ThankYouURL,
		Submitter:      client.NewContactClient(cfg.Form.BaseURL, log),
		RedirectDelay:  cfg.Form.RedirectDelay(),
		ValidationMode: validationMode,
		Mode:           mode,
		Logger:         log,
	}, notifiers, tea.WithAltScreen())
	if err != nil {
		return err
	}
	if exitURL != "" {
		fmt.Println("Continue at", exitURL)
	}
	return nil
}
