package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"algolab/internal/common/cache"
	"algolab/internal/common/db"
	"algolab/internal/common/storage"
	"algolab/internal/judge/evaluator"
	"algolab/internal/judge/language"
	"algolab/internal/judge/queue"
	"algolab/internal/judge/repository"
	"algolab/internal/judge/sandbox"
	"algolab/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultStatusTTL       = 24 * time.Hour
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// StatusConfig holds status snapshot settings.
type StatusConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// IntakeConfig holds submission intake settings.
type IntakeConfig struct {
	MaxSourceBytes int    `yaml:"maxSourceBytes"`
	SourceBucket   string `yaml:"sourceBucket"`
}

// AppConfig is the root configuration for the judge service.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logger    logger.Config          `yaml:"logger"`
	Database  db.MySQLConfig         `yaml:"database"`
	Redis     cache.RedisConfig      `yaml:"redis"`
	MinIO     storage.MinIOConfig    `yaml:"minio"`
	Kafka     repository.KafkaConfig `yaml:"kafka"`
	Queue     queue.Config           `yaml:"queue"`
	Sandbox   sandbox.Config         `yaml:"sandbox"`
	Evaluator evaluator.Config       `yaml:"evaluator"`
	Intake    IntakeConfig           `yaml:"intake"`
	Status    StatusConfig           `yaml:"status"`
	Languages []language.Spec        `yaml:"languages"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	applyServerDefaults(&cfg.Server)
	applyRedisDefaults(&cfg.Redis)
	if cfg.Status.TTL <= 0 {
		cfg.Status.TTL = defaultStatusTTL
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	// Source archives land in the configured MinIO bucket unless intake
	// points somewhere else.
	if cfg.Intake.SourceBucket == "" {
		cfg.Intake.SourceBucket = cfg.MinIO.Bucket
	}
	return cfg, nil
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = defaultHTTPAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns <= 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout <= 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime <= 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
}
