package config

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
	"net/http"
	"os"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	S3Config       S3Config       `yaml:"s3Config"`
	JWT            JWTConfig      `yaml:"jwt"`
	Webhook        WebhookConfig  `yaml:"webhook"`
	Admin          AdminConfig    `yaml:"admin"`
	Purge          PurgeConfig    `yaml:"purge"`
	TTL            TTL            `yaml:"TTL"`
}

func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	// секрет подписи обязателен, запасного значения нет
	if cfg.JWT.SecretKey == "" {
		cfg.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("jwt.secret_key не задан: сервис не может быть запущен без секрета подписи")
	}

	if cfg.JWT.TokenTTL == "" {
		cfg.JWT.TokenTTL = "168h"
	}
	if cfg.JWT.RefreshThreshold == "" {
		cfg.JWT.RefreshThreshold = "24h"
	}
	if cfg.Purge.Interval == "" {
		cfg.Purge.Interval = "1h"
	}

	return &cfg, nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
