// ABOUTME: Runtime configuration for the lanes binaries
// ABOUTME: Loads an optional .env file and LANES_* environment variables
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration
type Config struct {
	TickInterval    time.Duration
	MinSession      float64 // seconds
	PixelsPerSecond float64
	SnapSeconds     float64
	SampleRate      int
	Port            int
	MDNS            bool
	LogFile         string
	LogLevel        string
	IngestDir       string
	RecordDir       string

	// EnvFileLoaded is true when a .env file was found
	EnvFileLoaded bool
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load reads .env from the working directory (existing variables win) and
// then the environment
func Load() *Config {
	loaded := godotenv.Load() == nil
	cfg := FromEnv()
	cfg.EnvFileLoaded = loaded
	return cfg
}

// FromEnv builds a Config from the environment only
func FromEnv() *Config {
	return &Config{
		TickInterval:    time.Duration(getEnvInt("LANES_TICK_MS", 20)) * time.Millisecond,
		MinSession:      getEnvFloat("LANES_MIN_SESSION_SECONDS", 60),
		PixelsPerSecond: getEnvFloat("LANES_PIXELS_PER_SECOND", 100),
		SnapSeconds:     getEnvFloat("LANES_SNAP_SECONDS", 0.5),
		SampleRate:      getEnvInt("LANES_SAMPLE_RATE", 44100),
		Port:            getEnvInt("LANES_PORT", 8937),
		MDNS:            getEnvBool("LANES_MDNS", true),
		LogFile:         getEnv("LANES_LOG_FILE", "lanes.log"),
		LogLevel:        getEnv("LANES_LOG_LEVEL", "info"),
		IngestDir:       getEnv("LANES_INGEST_DIR", ""),
		RecordDir:       getEnv("LANES_RECORD_DIR", "recordings"),
	}
}
