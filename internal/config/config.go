package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported DATA_FORMAT values.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath   string
	DataFormat string
	// CSV header names; empty means the dashboard export defaults.
	CSVRegionColumn string
	CSVDateColumn   string
	CSVCountColumn  string
	CatalogPath     string

	DefaultSegments int
	StoryCacheSize  int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers    []string
	KafkaStoryTopic string
	PublishOnLoad   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	segments, err := parsePositiveInt("DEFAULT_SEGMENTS", 3)
	if err != nil {
		return nil, err
	}
	if segments > 5 {
		return nil, errors.New("invalid DEFAULT_SEGMENTS: must be between 1 and 5")
	}

	cacheSize, err := parseNonNegativeInt("STORY_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	publishOnLoad, err := strconv.ParseBool(sharedcfg.EnvOrDefault("PUBLISH_ON_LOAD", "false"))
	if err != nil {
		return nil, errors.New("invalid PUBLISH_ON_LOAD")
	}

	dataPath := sharedcfg.EnvOrDefault("DATA_PATH", "data/cases.csv")

	cfg := &Config{
		DataPath:        dataPath,
		DataFormat:      strings.ToLower(sharedcfg.EnvOrDefault("DATA_FORMAT", formatFromPath(dataPath))),
		CSVRegionColumn: os.Getenv("CSV_REGION_COLUMN"),
		CSVDateColumn:   os.Getenv("CSV_DATE_COLUMN"),
		CSVCountColumn:  os.Getenv("CSV_COUNT_COLUMN"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		DefaultSegments: segments,
		StoryCacheSize:  cacheSize,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaStoryTopic: sharedcfg.EnvOrDefault("KAFKA_STORY_TOPIC", "case-stories"),
		PublishOnLoad:   publishOnLoad,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.DataFormat != FormatCSV && cfg.DataFormat != FormatParquet {
		return nil, fmt.Errorf("invalid DATA_FORMAT %q: must be csv or parquet", cfg.DataFormat)
	}
	if cfg.PublishOnLoad && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ON_LOAD is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishOnLoad && cfg.KafkaStoryTopic == "" {
		return nil, errors.New("KAFKA_STORY_TOPIC is required")
	}

	return cfg, nil
}

// PublishEnabled reports whether stories can be written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaStoryTopic != ""
}

func formatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

func parsePositiveInt(key string, def int) (int, error) {
	n, err := parseNonNegativeInt(key, def)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
