package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Library    LibraryConfig
	Cache      CacheConfig
	Classifier ClassifierConfig
	Scan       ScanConfig
	Log        LogConfig
	Tuning     TuningConfig
}

type LibraryConfig struct {
	Path      string // Root directory of the photo library
	PeopleDir string // Optional directory holding the externally curated people album
}

type CacheConfig struct {
	Path         string // SQLite database file for the analysis cache (default ~/.photo-triage/cache.db)
	DatabaseURL  string // Optional PostgreSQL URL; when set, the postgres backend replaces SQLite
	MaxOpenConns int    // Maximum open connections for the postgres backend (default 25)
	MaxIdleConns int    // Maximum idle connections for the postgres backend (default 5)
}

type ClassifierConfig struct {
	URL   string // Optional local vision server URL; empty selects the built-in heuristic classifier
	Model string // Model name for reference only
}

type ScanConfig struct {
	NightlySchedule string  // Cron expression for the nightly background scan (default "0 3 * * *")
	NightlyBudget   int     // Wall-clock budget for one nightly scan, in minutes (default 15)
	MemoryFraction  float64 // Available-memory fraction below which the foreground scan is cancelled (default 0.10)
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

// TuningConfig holds static categorization tuning shipped with the binary.
type TuningConfig struct {
	Categories struct {
		BlurThreshold     float64 `yaml:"blur_threshold"`
		DarkThreshold     float64 `yaml:"dark_threshold"`
		BrightThreshold   float64 `yaml:"bright_threshold"`
		DuplicateDistance float64 `yaml:"duplicate_distance"`
	} `yaml:"categories"`
	SceneryKeywords []string `yaml:"scenery_keywords"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0,1).
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < 1 {
		return f
	}
	return defaultVal
}

// envOr reads an environment variable with a fallback default.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "photo-triage.db"
	}
	return home + "/.photo-triage/cache.db"
}

func Load() *Config {
	var tuning TuningConfig
	if err := yaml.Unmarshal(thresholdsYAML, &tuning); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	return &Config{
		Library: LibraryConfig{
			Path:      os.Getenv("PHOTO_LIBRARY_PATH"),
			PeopleDir: os.Getenv("PEOPLE_ALBUM_PATH"),
		},
		Cache: CacheConfig{
			Path:         envOr("CACHE_PATH", defaultCachePath()),
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Classifier: ClassifierConfig{
			URL:   os.Getenv("CLASSIFIER_URL"),
			Model: envOr("CLASSIFIER_MODEL", "scene-default"),
		},
		Scan: ScanConfig{
			NightlySchedule: envOr("NIGHTLY_SCHEDULE", "0 3 * * *"),
			NightlyBudget:   envInt("NIGHTLY_BUDGET_MINUTES", 15),
			MemoryFraction:  envFloat("MEMORY_PRESSURE_FRACTION", 0.10),
		},
		Log: LogConfig{
			Level: envOr("LOG_LEVEL", "info"),
		},
		Tuning: tuning,
	}
}
