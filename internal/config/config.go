package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/rse-logconf/internal/logconf"
	"github.com/eugenenazirov/rse-logconf/internal/logging"
)

const defaultDocumentName = "logging.yaml"

//go:embed defaults/logging.yaml
var defaultDocument []byte

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > Defaults
type Config struct {
	// DocumentPath names an override document explicitly. When set the
	// search directories are ignored and a missing file is an error.
	DocumentPath string
	// SearchDirs are probed in order for DocumentName.
	SearchDirs   []string
	DocumentName string
	Policy       logging.Policy
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile string
	EnvFile    string
	Policy     *string
}

// Source describes where the override document came from. An empty Path
// means only the packaged defaults were used.
type Source struct {
	Path     string
	Searched []string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables (.env files included) > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envFile := ""
	if overrides != nil {
		envFile = overrides.EnvFile
	}
	if err := loadEnvFiles(envFile); err != nil {
		return Config{}, err
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	dirs := []string{}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "rse"))
	}
	dirs = append(dirs, "/etc/rse")

	return Config{
		SearchDirs:   dirs,
		DocumentName: defaultDocumentName,
		Policy:       logging.PolicyAbort,
	}
}

// loadEnvFiles loads an explicit env file, or .env from the working
// directory when present. Variables already set in the environment win.
func loadEnvFiles(explicit string) error {
	if explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return fmt.Errorf("load env file %s: %w", explicit, err)
		}
		return nil
	}
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if path := strings.TrimSpace(os.Getenv("RSE_LOG_CONFIG")); path != "" {
		cfg.DocumentPath = path
	}

	if dir := strings.TrimSpace(os.Getenv("RSE_CONF_DIR")); dir != "" {
		cfg.SearchDirs = append([]string{dir}, cfg.SearchDirs...)
	}

	if raw := strings.TrimSpace(os.Getenv("RSE_LOG_POLICY")); raw != "" {
		policy, err := logging.ParsePolicy(raw)
		if err != nil {
			return fmt.Errorf("RSE_LOG_POLICY: %w", err)
		}
		cfg.Policy = policy
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.ConfigFile != "" {
		cfg.DocumentPath = overrides.ConfigFile
	}

	if overrides.Policy != nil && *overrides.Policy != "" {
		policy, err := logging.ParsePolicy(*overrides.Policy)
		if err != nil {
			return fmt.Errorf("parse policy: %w", err)
		}
		cfg.Policy = policy
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.DocumentName == "" {
		return fmt.Errorf("document name cannot be empty")
	}
	if cfg.DocumentPath == "" && len(cfg.SearchDirs) == 0 {
		return fmt.Errorf("no document path and no search directories")
	}
	return nil
}

// DefaultDocument returns a copy of the packaged default document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// ResolveDocument merges the override document, if any, onto the packaged
// defaults and parses the result. The document is not validated.
func (c Config) ResolveDocument() (*logconf.Document, Source, error) {
	var base map[string]any
	if err := yaml.Unmarshal(defaultDocument, &base); err != nil {
		return nil, Source{}, &logconf.ParseError{Source: "packaged defaults", Err: err}
	}

	src, err := c.locate()
	if err != nil {
		return nil, src, err
	}

	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, src, &logconf.ParseError{Source: src.Path, Err: fmt.Errorf("read file: %w", err)}
		}
		var overrides map[string]any
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, src, &logconf.ParseError{Source: src.Path, Err: fmt.Errorf("parse YAML: %w", err)}
		}
		merge(base, overrides)
	}

	merged, err := yaml.Marshal(base)
	if err != nil {
		return nil, src, fmt.Errorf("encode merged document: %w", err)
	}
	doc, err := logconf.LoadBytes(merged)
	if err != nil {
		var perr *logconf.ParseError
		if errors.As(err, &perr) && src.Path != "" {
			perr.Source = src.Path
		}
		return nil, src, err
	}
	return doc, src, nil
}

// locate finds the override document. An explicit path must exist; search
// directories that do not hold the document are skipped.
func (c Config) locate() (Source, error) {
	if c.DocumentPath != "" {
		if _, err := os.Stat(c.DocumentPath); err != nil {
			return Source{}, fmt.Errorf("logging document %s: %w", c.DocumentPath, err)
		}
		return Source{Path: c.DocumentPath}, nil
	}

	src := Source{}
	for _, dir := range c.SearchDirs {
		candidate := filepath.Join(dir, c.DocumentName)
		src.Searched = append(src.Searched, candidate)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			src.Path = candidate
			return src, nil
		}
	}
	return src, nil
}

// merge recursively copies src into dst. Nested mappings are merged; any
// other value in src replaces the one in dst.
func merge(dst, src map[string]any) map[string]any {
	for key, node := range src {
		srcMap, srcIsMap := node.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			merge(dstMap, srcMap)
			continue
		}
		dst[key] = node
	}
	return dst
}
