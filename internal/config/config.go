package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	PortfolioPath  string `yaml:"portfolio_path"`
	ProfilePath    string `yaml:"profile_path"`
	TranscriptPath string `yaml:"transcript_path"`
	OutputPath     string `yaml:"output_path"`

	// TestStartDate is the fixed reference epoch (YYYYMMDD) that transcript
	// hour offsets count from.
	TestStartDate string `yaml:"test_start_date"`

	// PostgresDSN enables the optional warehouse sink when non-empty.
	PostgresDSN  string        `yaml:"postgres_dsn"`
	QueueMaxSize int           `yaml:"queue_max_size"`
	BatchMaxSize int           `yaml:"batch_max_size"`
	BatchMaxWait time.Duration `yaml:"batch_max_wait"`
}

// Load reads an optional YAML file, then applies environment overrides on
// top. A missing file is fine; everything has a default. Environment wins
// over file, file wins over defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		PortfolioPath:  "data/portfolio.json",
		ProfilePath:    "data/profile.json",
		TranscriptPath: "data/transcript.json",
		OutputPath:     "data/cleaned_offer_data.csv",
		TestStartDate:  "20180801",
		QueueMaxSize:   10_000,
		BatchMaxSize:   500,
		BatchMaxWait:   50 * time.Millisecond,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.PortfolioPath = getString("PORTFOLIO_PATH", cfg.PortfolioPath)
	cfg.ProfilePath = getString("PROFILE_PATH", cfg.ProfilePath)
	cfg.TranscriptPath = getString("TRANSCRIPT_PATH", cfg.TranscriptPath)
	cfg.OutputPath = getString("OUTPUT_PATH", cfg.OutputPath)
	cfg.TestStartDate = getString("TEST_START_DATE", cfg.TestStartDate)
	cfg.PostgresDSN = getString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.QueueMaxSize = getInt("QUEUE_MAX_SIZE", cfg.QueueMaxSize)
	cfg.BatchMaxSize = getInt("BATCH_MAX_SIZE", cfg.BatchMaxSize)
	cfg.BatchMaxWait = time.Duration(getInt("BATCH_MAX_WAIT_MS", int(cfg.BatchMaxWait/time.Millisecond))) * time.Millisecond

	if _, err := cfg.Epoch(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Epoch parses TestStartDate into a UTC midnight instant.
func (c Config) Epoch() (time.Time, error) {
	t, err := time.Parse("20060102", c.TestStartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("test_start_date %q: want YYYYMMDD: %w", c.TestStartDate, err)
	}
	return t.UTC(), nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
