package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Profile store
	StoreDir      string
	StoreInMemory bool

	// Audio front end
	SampleRate int
	UseVAD     bool

	// Model training
	Components int
	MaxIter    int
	Seed       int64

	// Enrollment
	EnrollSamples int

	// Verification
	Threshold float64

	// Session protocol
	Checks    int
	PassRatio float64

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		// Profile store
		StoreDir:      getEnvOrDefault("STORE_DIR", "./data/profiles"),
		StoreInMemory: getBoolEnvOrDefault("STORE_IN_MEMORY", false),

		// Audio
		SampleRate: getIntEnvOrDefault("SAMPLE_RATE", 16000),
		UseVAD:     getBoolEnvOrDefault("USE_VAD", true),

		// Training
		Components: getIntEnvOrDefault("GMM_COMPONENTS", 16),
		MaxIter:    getIntEnvOrDefault("GMM_MAX_ITER", 200),
		Seed:       int64(getIntEnvOrDefault("GMM_SEED", 42)),

		// Enrollment
		EnrollSamples: getIntEnvOrDefault("ENROLL_SAMPLES", 3),

		// Verification
		Threshold: getFloatEnvOrDefault("VERIFY_THRESHOLD", -50.0),

		// Session
		Checks:    getIntEnvOrDefault("SESSION_CHECKS", 3),
		PassRatio: getFloatEnvOrDefault("SESSION_PASS_RATIO", 0.7),

		// Logging
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.StoreDir == "" && !c.StoreInMemory {
		return fmt.Errorf("STORE_DIR is required unless STORE_IN_MEMORY is set")
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive")
	}

	if c.Components <= 0 {
		return fmt.Errorf("GMM_COMPONENTS must be positive")
	}

	if c.EnrollSamples <= 0 {
		return fmt.Errorf("ENROLL_SAMPLES must be positive")
	}

	if c.Checks <= 0 {
		return fmt.Errorf("SESSION_CHECKS must be positive")
	}

	if c.PassRatio <= 0 || c.PassRatio > 1 {
		return fmt.Errorf("SESSION_PASS_RATIO must be in (0, 1]")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
