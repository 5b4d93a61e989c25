package config

import (
	"os"
	"strconv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Fleet
	FleetID string

	// TimescaleDB
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pipeline channels
	ArchiveChannelSize int
	MirrorChannelSize  int

	// Batch writer tuning
	ArchiveBatchSize       int
	ArchiveFlushIntervalMS int

	// Engine
	BatchMaxItems    int
	DefaultRadiusM   float64
	MaxRadiusM       float64
	SpeedLimitKmh    float64
	IdleLimitMinutes float64
	LowBatteryPct    float64

	// Retention sweeper
	SweepSchedule string
}

func Load() *Config {
	return &Config{
		HTTPPort:               getEnv("HTTP_PORT", "8001"),
		FleetID:                getEnv("FLEET_ID", "default"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "fleet_user"),
		DBPassword:             getEnv("DB_PASSWORD", "fleet_password"),
		DBName:                 getEnv("DB_NAME", "fleet_track"),
		DBMaxConns:             int32(getEnvInt("DB_MAX_CONNS", 15)),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		ArchiveChannelSize:     getEnvInt("ARCHIVE_CHANNEL_SIZE", 10000),
		MirrorChannelSize:      getEnvInt("MIRROR_CHANNEL_SIZE", 50000),
		ArchiveBatchSize:       getEnvInt("ARCHIVE_BATCH_SIZE", 500),
		ArchiveFlushIntervalMS: getEnvInt("ARCHIVE_FLUSH_INTERVAL_MS", 100),
		BatchMaxItems:          getEnvInt("BATCH_MAX_ITEMS", 100),
		DefaultRadiusM:         getEnvFloat("DEFAULT_RADIUS_M", 5000),
		MaxRadiusM:             getEnvFloat("MAX_RADIUS_M", 50000),
		SpeedLimitKmh:          getEnvFloat("SPEED_LIMIT_KMH", 80),
		IdleLimitMinutes:       getEnvFloat("IDLE_LIMIT_MINUTES", 30),
		LowBatteryPct:          getEnvFloat("LOW_BATTERY_PCT", 15),
		SweepSchedule:          getEnv("SWEEP_SCHEDULE", "@every 1h"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
