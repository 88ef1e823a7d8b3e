package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	JWTSecret   string
	GinMode     string
	LogLevel    string
	TLSCertFile string
	TLSKeyFile  string
	TokenExpiry time.Duration

	DatabaseURL            string
	NotificationsStateFile string

	NATSURL     string
	NATSSubject string

	WSSendBuffer  int
	EmitRateLimit int
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:          3000,
		GinMode:       "release",
		LogLevel:      "info",
		TokenExpiry:   7 * 24 * time.Hour,
		NATSSubject:   "notifications.emit",
		WSSendBuffer:  32,
		EmitRateLimit: 60,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.JWTSecret = env.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}
	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	cfg.DatabaseURL = env.Getenv("DATABASE_URL")
	cfg.NotificationsStateFile = env.Getenv("NOTIFICATIONS_STATE_FILE")

	cfg.NATSURL = env.Getenv("NATS_URL")
	if raw := env.Getenv("NATS_SUBJECT"); raw != "" {
		cfg.NATSSubject = raw
	}

	if raw := env.Getenv("WS_SEND_BUFFER"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > 4096 {
			return Config{}, fmt.Errorf("invalid WS_SEND_BUFFER")
		}
		cfg.WSSendBuffer = size
	}

	if raw := env.Getenv("EMIT_RATE_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid EMIT_RATE_LIMIT")
		}
		cfg.EmitRateLimit = limit
	}

	return cfg, nil
}

func (c Config) Development() bool { return c.GinMode == "debug" }
