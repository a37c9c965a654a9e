package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"object-detection/internal/database"
	"object-detection/internal/logging"
	"object-detection/internal/vision"
)

// Detector backends.
const (
	BackendYOLO = "yolo"
	BackendHTTP = "http"
)

// Config holds all application configuration.
type Config struct {
	UploadDir      string
	ResultDir      string
	StaticDir      string
	DatabaseDir    string
	DatabaseURL    string
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	DetectorBackend     string
	ModelPath           string
	DetectorURL         string
	DetectorTimeout     time.Duration
	ConfidenceThreshold float64
	NMSThreshold        float64
	ClassFilter         vision.ClassFilter
	IntermediateCodec   string

	FFmpegPath       string
	TranscodeTimeout time.Duration
	KeepIntermediate bool

	MaxConcurrentRuns int
	RedisAddr         string
	RunLockTTL        time.Duration

	// Derived paths
	DatabasePath string
}

// Default returns the configuration used when no environment is set.
// Directories are left relative.
func Default() *Config {
	return &Config{
		UploadDir:           "static/uploads",
		ResultDir:           "static/results",
		StaticDir:           "static",
		DatabaseDir:         "data",
		Port:                "8000",
		MetricsPort:         "9090",
		MetricsEnabled:      true,
		DetectorBackend:     BackendYOLO,
		ModelPath:           "models/yolov5s.onnx",
		DetectorTimeout:     30 * time.Second,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
		ClassFilter:         vision.DefaultClassFilter(),
		IntermediateCodec:   "mp4v",
		FFmpegPath:          "ffmpeg",
		TranscodeTimeout:    30 * time.Minute,
		MaxConcurrentRuns:   2,
		RunLockTTL:          time.Hour,
		DatabasePath:        filepath.Join("data", "detections.db"),
	}
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}
	config.Log()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := config.Prepare(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    %s", config.DatabaseKind())
	logging.Info("    Job queue:   %s", enabledString(config.RedisAddr != ""))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// FromEnv reads the environment on top of Default without touching the
// filesystem.
func FromEnv() (*Config, error) {
	d := Default()
	c := &Config{
		UploadDir:         getEnv("UPLOAD_DIR", d.UploadDir),
		ResultDir:         getEnv("RESULT_DIR", d.ResultDir),
		StaticDir:         getEnv("STATIC_DIR", d.StaticDir),
		DatabaseDir:       getEnv("DATABASE_DIR", d.DatabaseDir),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		Port:              getEnv("PORT", d.Port),
		MetricsPort:       getEnv("METRICS_PORT", d.MetricsPort),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", d.MetricsEnabled),
		DetectorBackend:   strings.ToLower(getEnv("DETECTOR_BACKEND", d.DetectorBackend)),
		ModelPath:         getEnv("MODEL_PATH", d.ModelPath),
		DetectorURL:       getEnv("DETECTOR_URL", ""),
		DetectorTimeout:   getEnvDuration("DETECTOR_TIMEOUT", d.DetectorTimeout),
		IntermediateCodec: getEnv("INTERMEDIATE_CODEC", d.IntermediateCodec),
		FFmpegPath:        getEnv("FFMPEG_PATH", d.FFmpegPath),
		TranscodeTimeout:  getEnvDuration("TRANSCODE_TIMEOUT", d.TranscodeTimeout),
		KeepIntermediate:  getEnvBool("KEEP_INTERMEDIATE", false),
		MaxConcurrentRuns: getEnvInt("MAX_CONCURRENT_RUNS", d.MaxConcurrentRuns),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RunLockTTL:        getEnvDuration("RUN_LOCK_TTL", d.RunLockTTL),

		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", d.ConfidenceThreshold),
		NMSThreshold:        getEnvFloat("NMS_THRESHOLD", d.NMSThreshold),
	}

	filter, err := vision.ParseClassFilter(getEnv("CLASS_FILTER", "person"))
	if err != nil {
		return nil, fmt.Errorf("CLASS_FILTER: %w", err)
	}
	c.ClassFilter = filter
	c.DatabasePath = filepath.Join(c.DatabaseDir, "detections.db")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DetectorBackend {
	case BackendYOLO:
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required for the %s detector", BackendYOLO)
		}
	case BackendHTTP:
		if c.DetectorURL == "" {
			return fmt.Errorf("DETECTOR_URL is required for the %s detector", BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown DETECTOR_BACKEND %q (want %s or %s)", c.DetectorBackend, BackendYOLO, BackendHTTP)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("NMS_THRESHOLD must be within [0, 1], got %v", c.NMSThreshold)
	}
	if len(c.IntermediateCodec) != 4 {
		return fmt.Errorf("INTERMEDIATE_CODEC must be a fourcc, got %q", c.IntermediateCodec)
	}
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("MAX_CONCURRENT_RUNS must be at least 1, got %d", c.MaxConcurrentRuns)
	}
	return nil
}

// Log prints the configuration banner section.
func (c *Config) Log() {
	logging.Info("  UPLOAD_DIR:            %s", c.UploadDir)
	logging.Info("  RESULT_DIR:            %s", c.ResultDir)
	logging.Info("  STATIC_DIR:            %s", c.StaticDir)
	logging.Info("  DATABASE:              %s", c.DatabaseKind())
	logging.Info("  PORT:                  %s", c.Port)
	logging.Info("  METRICS_PORT:          %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:       %v", c.MetricsEnabled)
	logging.Info("  DETECTOR_BACKEND:      %s", c.DetectorBackend)
	if c.DetectorBackend == BackendHTTP {
		logging.Info("  DETECTOR_URL:          %s", c.DetectorURL)
		logging.Info("  DETECTOR_TIMEOUT:      %s", c.DetectorTimeout)
	} else {
		logging.Info("  MODEL_PATH:            %s", c.ModelPath)
		logging.Info("  CONFIDENCE_THRESHOLD:  %.2f", c.ConfidenceThreshold)
		logging.Info("  NMS_THRESHOLD:         %.2f", c.NMSThreshold)
	}
	logging.Info("  CLASS_FILTER:          %s", c.ClassFilter)
	logging.Info("  INTERMEDIATE_CODEC:    %s", c.IntermediateCodec)
	logging.Info("  FFMPEG_PATH:           %s", c.FFmpegPath)
	logging.Info("  TRANSCODE_TIMEOUT:     %s", c.TranscodeTimeout)
	logging.Info("  KEEP_INTERMEDIATE:     %v", c.KeepIntermediate)
	logging.Info("  MAX_CONCURRENT_RUNS:   %d", c.MaxConcurrentRuns)
	if c.RedisAddr != "" {
		logging.Info("  REDIS_ADDR:            %s", c.RedisAddr)
		logging.Info("  RUN_LOCK_TTL:          %s", c.RunLockTTL)
	}
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())
}

// DatabaseKind describes the configured store without credentials.
func (c *Config) DatabaseKind() string {
	if database.IsPostgresURL(c.DatabaseURL) {
		return "postgres"
	}
	return "sqlite (" + c.DatabasePath + ")"
}

// Prepare resolves directories to absolute paths and creates them.
func (c *Config) Prepare() error {
	dirs := []struct {
		name string
		path *string
	}{
		{"static", &c.StaticDir},
		{"upload", &c.UploadDir},
		{"result", &c.ResultDir},
		{"database", &c.DatabaseDir},
	}

	for _, d := range dirs {
		abs, err := filepath.Abs(*d.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.path = abs
		logging.Info("  %-9s directory: %s", d.name, abs)

		if d.name == "database" && database.IsPostgresURL(c.DatabaseURL) {
			continue
		}
		if err := ensureDirectory(abs, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		if err := testWriteAccess(abs); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Debug("    [OK] %s directory is writable", d.name)
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "detections.db")
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid %s %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
