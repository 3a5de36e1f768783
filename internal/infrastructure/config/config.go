package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/EuricoCruz/api429/internal/domain/entity"
)

const (
	StatsBackendMemory = "memory"
	StatsBackendRedis  = "redis"
)

type Config struct {
	// Server
	ServerPort int
	LogLevel   string

	// Endpoints
	MaxEndpoints             int
	MaxRequests              int
	RetryAfterSeconds        int
	ResetCounterAfterSeconds int

	// Stats
	StatsBackend   string
	StatsTTL       time.Duration
	StatsKeyPrefix string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

// Policy converte os limites configurados para a política do domínio
func (c *Config) Policy() entity.Policy {
	return entity.Policy{
		MaxRequests:       c.MaxRequests,
		RetryAfter:        time.Duration(c.RetryAfterSeconds) * time.Second,
		ResetCounterAfter: time.Duration(c.ResetCounterAfterSeconds) * time.Second,
	}
}

// SetDefaults registra os valores padrão de cada chave
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_ENDPOINTS", 6)
	v.SetDefault("MAX_REQUESTS", entity.DefaultMaxRequests)
	v.SetDefault("RETRY_AFTER_SECONDS", int(entity.DefaultRetryAfter/time.Second))
	v.SetDefault("RESET_COUNTER_AFTER_SECONDS", int(entity.DefaultResetCounterAfter/time.Second))
	v.SetDefault("STATS_BACKEND", StatsBackendMemory)
	v.SetDefault("STATS_TTL", "0s")
	v.SetDefault("STATS_KEY_PREFIX", "api429")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
}

// Load lê .env (opcional), variáveis de ambiente e flags já vinculadas ao viper
func Load(v *viper.Viper, envFile string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	// Tenta ler .env (ignora erro se não existir, usa env vars)
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	statsTTL, err := time.ParseDuration(v.GetString("STATS_TTL"))
	if err != nil {
		return nil, fmt.Errorf("STATS_TTL must be a duration: %w", err)
	}

	cfg := &Config{
		ServerPort:               v.GetInt("SERVER_PORT"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		MaxEndpoints:             v.GetInt("MAX_ENDPOINTS"),
		MaxRequests:              v.GetInt("MAX_REQUESTS"),
		RetryAfterSeconds:        v.GetInt("RETRY_AFTER_SECONDS"),
		ResetCounterAfterSeconds: v.GetInt("RESET_COUNTER_AFTER_SECONDS"),
		StatsBackend:             strings.ToLower(v.GetString("STATS_BACKEND")),
		StatsTTL:                 statsTTL,
		StatsKeyPrefix:           v.GetString("STATS_KEY_PREFIX"),
		RedisHost:                v.GetString("REDIS_HOST"),
		RedisPort:                v.GetInt("REDIS_PORT"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RedisDB:                  v.GetInt("REDIS_DB"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate valida campos obrigatórios
func (c *Config) Validate() error {
	if c.ServerPort <= 0 {
		return fmt.Errorf("SERVER_PORT must be positive")
	}
	if c.MaxEndpoints <= 0 {
		return fmt.Errorf("MAX_ENDPOINTS must be positive")
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("MAX_REQUESTS must be positive")
	}
	if c.RetryAfterSeconds <= 0 {
		return fmt.Errorf("RETRY_AFTER_SECONDS must be positive")
	}
	if c.ResetCounterAfterSeconds <= 0 {
		return fmt.Errorf("RESET_COUNTER_AFTER_SECONDS must be positive")
	}
	if c.StatsTTL < 0 {
		return fmt.Errorf("STATS_TTL cannot be negative")
	}

	switch c.StatsBackend {
	case StatsBackendMemory:
	case StatsBackendRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required when STATS_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STATS_BACKEND must be %q or %q, got %q", StatsBackendMemory, StatsBackendRedis, c.StatsBackend)
	}
	return nil
}
