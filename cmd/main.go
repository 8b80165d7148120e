package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"inventory-alert-service/internal/api"
	"inventory-alert-service/internal/clock"
	"inventory-alert-service/internal/compose"
	"inventory-alert-service/internal/config"
	"inventory-alert-service/internal/delivery"
	"inventory-alert-service/internal/engine"
	"inventory-alert-service/internal/kafka"
	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/scheduler"
	"inventory-alert-service/internal/store"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed:", err)
	}
	defer logger.Close()

	// Fixed timezone for all civil-date math
	norm, err := clock.New(cfg.Alerts.Timezone)
	if err != nil {
		logger.Errorf("Timezone load failed: %v", err)
		log.Fatal("Timezone load failed:", err)
	}

	// Connect to DB
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Errorf("DB connect failed: %v", err)
		log.Fatal("DB connect failed:", err)
	}
	defer st.Close()

	// Push delivery: FCM primary, optional Telegram ops mirror
	var pusher delivery.Sender = delivery.NewFCMPusher(
		cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.RatePerSecond, logger)
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		mirror, err := delivery.NewTelegramMirror(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warnf("Telegram mirror disabled: %v", err)
		} else {
			pusher = &delivery.Fanout{Primary: pusher, Mirrors: []delivery.Sender{mirror}, Logger: logger}
		}
	}

	composer := compose.New(norm.Location(), cfg.Alerts.ExpiryTopic, cfg.Alerts.LowStockTopic, cfg.Alerts.RiskTopic)

	eng := engine.New(st, st, pusher, composer, norm, logger, engine.Options{
		SweepWorkers: cfg.Engine.SweepWorkers,
		SendTimeout:  time.Duration(cfg.Engine.SendTimeoutSec) * time.Second,
	})

	// Live alert feed
	hub := api.NewHub(logger)
	eng.OnCreated(hub.Broadcast)

	var wg sync.WaitGroup

	// Start Kafka consumer
	consumer := kafka.NewConsumer(kafka.Config{
		Broker:  cfg.Kafka.Broker,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}, eng, logger)
	consumer.Start(ctx, &wg)

	// Start daily sweep scheduler
	sched := scheduler.New(eng, logger, norm.Location(), cfg.Sweep.Hour, cfg.Sweep.Minute)
	sched.Start(ctx, &wg)

	// Start API server
	handler := api.NewHandler(st, eng, logger, hub)
	router := api.NewRouter(handler, logger, cfg)
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Errorf("Kafka close failed: %v", err)
	}
	wg.Wait()
	logger.Infof("Service stopped")
}
