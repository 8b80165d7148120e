package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Push struct {
		ServerKey     string
		Endpoint      string
		RatePerSecond int
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	Alerts struct {
		Timezone      string
		ExpiryTopic   string
		LowStockTopic string
		RiskTopic     string
	}
	Sweep struct {
		Hour   int // civil hour of day in Alerts.Timezone
		Minute int
	}
	Engine struct {
		SweepWorkers   int
		SendTimeoutSec int
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	cfg.Push.ServerKey = os.Getenv("FCM_SERVER_KEY")
	cfg.Push.Endpoint = os.Getenv("FCM_ENDPOINT")
	cfg.Push.RatePerSecond = envInt("PUSH_RATE_PER_SECOND", 20)

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = envInt64("TELEGRAM_CHAT_ID", 0)

	cfg.Alerts.Timezone = os.Getenv("ALERT_TIMEZONE")
	cfg.Alerts.ExpiryTopic = os.Getenv("EXPIRY_TOPIC")
	cfg.Alerts.LowStockTopic = os.Getenv("LOW_STOCK_TOPIC")
	cfg.Alerts.RiskTopic = os.Getenv("RISK_TOPIC")

	cfg.Sweep.Hour = envInt("SWEEP_HOUR", 9)
	cfg.Sweep.Minute = envInt("SWEEP_MINUTE", 0)

	cfg.Engine.SweepWorkers = envInt("SWEEP_WORKERS", 8)
	cfg.Engine.SendTimeoutSec = envInt("SEND_TIMEOUT_SEC", 10)

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Kafka.Broker == "" {
		missing = append(missing, "KAFKA_BROKER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "record_changes"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "inventory-alert-service"
	}
	if cfg.Push.Endpoint == "" {
		cfg.Push.Endpoint = "https://fcm.googleapis.com/fcm/send"
	}
	if cfg.Alerts.Timezone == "" {
		cfg.Alerts.Timezone = "Asia/Kuala_Lumpur"
	}
	if cfg.Alerts.ExpiryTopic == "" {
		cfg.Alerts.ExpiryTopic = "manager_alerts"
	}
	if cfg.Alerts.LowStockTopic == "" {
		cfg.Alerts.LowStockTopic = "manager_alerts"
	}
	if cfg.Alerts.RiskTopic == "" {
		cfg.Alerts.RiskTopic = "risk_alerts"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return def
}
