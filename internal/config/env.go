package config

import (
	"os"
	"strings"
	"time"
)

type Env struct {
	AppAddr           string
	GinMode           string
	DBDSN             string
	RedisURL          string
	JWTSecret         string
	HoldTTL           time.Duration
	ReconcileInterval time.Duration
	SnapshotTTL       time.Duration
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = "root:@tcp(127.0.0.1:3306)/busline?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
	}

	return Env{
		AppAddr:           appAddr,
		GinMode:           strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBDSN:             dsn,
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		HoldTTL:           durationEnv("HOLD_TTL", 5*time.Minute),
		ReconcileInterval: durationEnv("RECONCILE_INTERVAL", time.Minute),
		SnapshotTTL:       durationEnv("SNAPSHOT_TTL", 10*time.Second),
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
