// Package config loads and validates unireg configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDir is the per-workspace directory for config, cache and logs.
const DefaultDir = ".unireg"

// ValidFormats are the accepted ontology serialization names.
// "auto" selects by file extension.
var ValidFormats = []string{"auto", "rdfxml", "turtle", "ntriples"}

// Config holds all unireg configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Ontology input
	Ontology OntologyConfig `yaml:"ontology"`

	// SQLite fact cache
	Cache CacheConfig `yaml:"cache"`

	// Mangle engine limits
	Engine EngineConfig `yaml:"engine"`

	// Demo report subjects
	Report ReportConfig `yaml:"report"`

	// Category file logging
	Logging LoggingConfig `yaml:"logging"`
}

// OntologyConfig locates and describes the ontology file.
type OntologyConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`    // auto, rdfxml, turtle, ntriples
	Namespace string `yaml:"namespace"` // base IRI of the university vocabulary
	RulesDir  string `yaml:"rules_dir"` // optional extra .mg rule fragments
}

// CacheConfig configures the projected-fact cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EngineConfig configures the deductive engine.
type EngineConfig struct {
	FactLimit    int    `yaml:"fact_limit"`
	QueryTimeout string `yaml:"query_timeout"`
}

// ReportConfig names the subjects of the canned demo report.
type ReportConfig struct {
	Student string `yaml:"student"`
	Course  string `yaml:"course"`
}

// LoggingConfig configures the category file logs.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "unireg",
		Version: "1.0.0",

		Ontology: OntologyConfig{
			Path:      "university.owl",
			Format:    "auto",
			Namespace: "http://www.semanticweb.org/university/ontology#",
			RulesDir:  filepath.Join(DefaultDir, "rules"),
		},

		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultDir, "cache.db"),
		},

		Engine: EngineConfig{
			FactLimit:    100000,
			QueryTimeout: "10s",
		},

		Report: ReportConfig{
			Student: "Student001",
			Course:  "CS-401",
		},

		Logging: LoggingConfig{
			Debug: false,
			Level: "info",
			Dir:   filepath.Join(DefaultDir, "logs"),
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir, "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("UNIREG_ONTOLOGY"); v != "" {
		c.Ontology.Path = v
	}
	if v := os.Getenv("UNIREG_FORMAT"); v != "" {
		c.Ontology.Format = v
	}
	if v := os.Getenv("UNIREG_NAMESPACE"); v != "" {
		c.Ontology.Namespace = v
	}
	if v := os.Getenv("UNIREG_DB"); v != "" {
		c.Cache.Path = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv("UNIREG_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if os.Getenv("UNIREG_DEBUG") == "1" {
		c.Logging.Debug = true
		c.Logging.Level = "debug"
	}
}

// GetQueryTimeout returns the engine query timeout.
func (c *Config) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.QueryTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate checks the configuration for contradictions before boot.
func (c *Config) Validate() error {
	if c.Ontology.Path == "" {
		return fmt.Errorf("ontology path not configured (set ontology.path or UNIREG_ONTOLOGY)")
	}
	if c.Ontology.Namespace == "" {
		return fmt.Errorf("ontology namespace not configured")
	}

	validFormat := false
	for _, f := range ValidFormats {
		if c.Ontology.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid ontology format: %s (valid: %v)", c.Ontology.Format, ValidFormats)
	}

	if c.Engine.FactLimit <= 0 {
		return fmt.Errorf("engine fact_limit must be positive, got %d", c.Engine.FactLimit)
	}
	if c.Engine.QueryTimeout != "" {
		if _, err := time.ParseDuration(c.Engine.QueryTimeout); err != nil {
			return fmt.Errorf("invalid engine query_timeout %q: %w", c.Engine.QueryTimeout, err)
		}
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache enabled but cache.path is empty")
	}
	return nil
}
