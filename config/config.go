// Package config loads runtime configuration from the environment, with a
// .env file as an optional override source for local setups.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the application. All values have working
// defaults; the environment only needs to be touched when the model or alarm
// assets live somewhere else.
type Config struct {
	// Detection model artifacts (Darknet weights + network config + class names).
	ModelWeightsPath string
	ModelConfigPath  string
	ClassNamesPath   string

	// Minimum confidence for a box to count as a detection.
	ConfidenceThreshold float64
	// Square input size fed to the network.
	ModelInputSize int

	// WAV clip played when a frame alerts.
	AlarmSoundPath string

	// Device index used by webcam mode.
	WebcamDevice int

	// Initial display window size.
	WindowWidth  int
	WindowHeight int

	Debug bool
}

// Load reads the configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ModelWeightsPath:    getEnv("MODEL_WEIGHTS", "fire_and_smoke.weights"),
		ModelConfigPath:     getEnv("MODEL_CONFIG", "fire_and_smoke.cfg"),
		ClassNamesPath:      getEnv("MODEL_CLASSES", "fire_and_smoke.names"),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.3),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 416),
		AlarmSoundPath:      getEnv("ALARM_SOUND", "alarm.wav"),
		WebcamDevice:        getEnvAsInt("WEBCAM_DEVICE", 0),
		WindowWidth:         getEnvAsInt("WINDOW_WIDTH", 1280),
		WindowHeight:        getEnvAsInt("WINDOW_HEIGHT", 720),
		Debug:               getEnvAsBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue > 0 {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
