package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	HTTPAddr string

	SweepInterval time.Duration
	SettingsPath  string
}

func Load() Config {
	return Config{
		DatabaseDriver:  getenv("MEMO_DB_DRIVER", "sqlite3"),
		DatabaseURL:     getenv("DATABASE_URL", "memo.db"),
		MaxOpenConns:    getenvInt("DB_MAX_OPEN", 20),
		MaxIdleConns:    getenvInt("DB_MAX_IDLE", 10),
		ConnMaxLifetime: getenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime: getenvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		HTTPAddr:        getenv("HTTP_ADDR", "127.0.0.1:8080"),
		SweepInterval:   getenvDuration("SWEEP_INTERVAL", time.Minute),
		SettingsPath:    getenv("MEMO_SETTINGS", "settings.yaml"),
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getenvDuration also rejects non-positive values, a zero interval would spin the sweeper.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
