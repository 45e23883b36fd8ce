package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"design-localizer/internal/export"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL          string
	Neo4jURI             string
	Neo4jUser            string
	Neo4jPassword        string
	MatchMode            string
	FuzzyFrameMatch      bool
	TextContainmentMatch bool
	CloneMargin          float64
	FallbackFontFamily   string
	HostCallTimeout      time.Duration
	ExportTimeout        time.Duration
	ExportRulesFile      string
	LogLevel             string
	BridgeAddr           string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		Neo4jURI:             getEnv("NEO4J_URI", ""),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		MatchMode:            getEnv("MATCH_MODE", "node"),
		FuzzyFrameMatch:      getEnvBool("FUZZY_FRAME_MATCH", true),
		TextContainmentMatch: getEnvBool("TEXT_CONTAINMENT_MATCH", false),
		CloneMargin:          float64(getEnvInt("CLONE_MARGIN", 100)),
		FallbackFontFamily:   getEnv("FALLBACK_FONT_FAMILY", "Inter"),
		HostCallTimeout:      getEnvDuration("HOST_CALL_TIMEOUT", 0),
		ExportTimeout:        getEnvDuration("EXPORT_TIMEOUT", 30*time.Second),
		ExportRulesFile:      getEnv("EXPORT_RULES_FILE", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		BridgeAddr:           getEnv("BRIDGE_ADDR", "127.0.0.1:7878"),
	}
}

// rulesFile is the YAML layout of an export rules file.
type rulesFile struct {
	Rules []export.Rule `yaml:"rules"`
}

// LoadRules reads export rules from a YAML file. An empty path yields no
// rules, which selects the built-in defaults.
func LoadRules(path string) ([]export.Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse export rules %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("parse export rules %s: no rules defined", path)
	}
	return f.Rules, nil
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

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean, using default")
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("30s") or plain milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Warn().Str("key", key).Str("value", v).Msg("Invalid duration, using default")
	return fallback
}
