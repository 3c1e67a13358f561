package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	SessionSecret string
	// SecretGenerated is set when SESSION_SECRET was empty and a random
	// key was minted for this process.
	SecretGenerated  bool
	GateIdleTTL      time.Duration
	OfficialUser     string
	OfficialPassword string
	FarmsFile        string
	UploadDir        string
	OutputDir        string
	LogDir           string
	Proximity        ProximityConfig
}

type ProximityConfig struct {
	ExcellentMeters   float64
	ThresholdMeters   float64
	MaxAccuracyMeters float64
}

func New() (*Config, error) {
	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "9595"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		OfficialUser:     getEnvOrDefault("OFFICIAL_USER", "official"),
		OfficialPassword: getEnvOrDefault("OFFICIAL_PASSWORD", ""),
		FarmsFile:        getEnvOrDefault("FARMS_FILE", ""),
		UploadDir:        getEnvOrDefault("UPLOAD_DIR", "uploads"),
		OutputDir:        getEnvOrDefault("OUTPUT_DIR", "output"),
		LogDir:           getEnvOrDefault("LOG_DIR", ""),
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SecretGenerated = true
	}

	var err error
	if cfg.GateIdleTTL, err = getDurationOrDefault("GATE_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Proximity.ExcellentMeters, err = getFloatOrDefault("PROXIMITY_EXCELLENT_M", 50); err != nil {
		return nil, err
	}
	if cfg.Proximity.ThresholdMeters, err = getFloatOrDefault("PROXIMITY_THRESHOLD_M", 100); err != nil {
		return nil, err
	}
	if cfg.Proximity.MaxAccuracyMeters, err = getFloatOrDefault("MAX_ACCURACY_M", 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
	return f, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s=%q: want a positive duration", key, value)
	}
	return d, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
