package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBase         = "http://localhost:8000"
	defaultHTTPTimeout     = 60 * time.Second
	defaultPredictDelayMin = time.Second
	defaultPredictDelayMax = 5 * time.Second
	defaultLogLevel        = "info"
)

type Config struct {
	TelegramToken   string
	APIBase         string
	HTTPTimeout     time.Duration
	PredictDelayMin time.Duration
	PredictDelayMax time.Duration
	LogLevel        string
	MetricsAddr     string // пусто: ops-сервер не поднимается
	LayoutFile      string // YAML с переопределениями раскладки PDF
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		APIBase:       getEnv("API_BASE", defaultAPIBase),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		LayoutFile:    os.Getenv("LAYOUT_FILE"),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.PredictDelayMin, err = getDuration("PREDICT_DELAY_MIN", defaultPredictDelayMin); err != nil {
		return nil, err
	}
	if cfg.PredictDelayMax, err = getDuration("PREDICT_DELAY_MAX", defaultPredictDelayMax); err != nil {
		return nil, err
	}
	if cfg.PredictDelayMin < 0 || cfg.PredictDelayMax < cfg.PredictDelayMin {
		return nil, fmt.Errorf("invalid predict delay range [%s, %s)", cfg.PredictDelayMin, cfg.PredictDelayMax)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
