package config

import (
	"os"
	"time"
)

type Config struct {
	HTTPPort string

	// MongoURI and RedisAddr back the session summary archive. Either may be
	// empty, in which case that half of the archive is disabled.
	MongoURI  string
	RedisAddr string

	// RoomTeardownDelay is how long a completed room stays readable after its
	// summary has been broadcast, so slow clients still receive the final event.
	RoomTeardownDelay time.Duration

	// SummaryTTL bounds how long archived summaries stay in Redis.
	SummaryTTL time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MongoURI:          getEnv("MONGO_URI", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RoomTeardownDelay: getEnvDuration("ROOM_TEARDOWN_DELAY", 5*time.Second),
		SummaryTTL:        getEnvDuration("SUMMARY_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
