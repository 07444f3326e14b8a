// Package config loads brainlib configuration.
//
// Values are layered in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/brainlib/config.yaml)
//  3. Project config (.brainlib.yaml in the working directory)
//  4. .env file in the working directory (never overrides the real environment)
//  5. BRAINLIB_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/brainlib/internal/extract"
)

// Config is the complete brainlib configuration.
type Config struct {
	Documents DocumentsConfig `yaml:"documents" json:"documents"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Watcher   WatcherConfig   `yaml:"watcher" json:"watcher"`
	Server    ServerConfig    `yaml:"server" json:"server"`

	baseDir string
}

// DocumentsConfig locates the documents folder.
type DocumentsConfig struct {
	// Dir is the documents directory. Relative paths resolve against the
	// directory passed to Load.
	Dir string `yaml:"dir" json:"dir"`
}

// IndexConfig controls ingestion.
type IndexConfig struct {
	Extensions     []string `yaml:"extensions" json:"extensions"`
	MinChunkLength int      `yaml:"min_chunk_length" json:"min_chunk_length"`
	MaxFileSize    int64    `yaml:"max_file_size" json:"max_file_size"`
	Workers        int      `yaml:"workers" json:"workers"`
}

// SearchConfig controls ranking output.
type SearchConfig struct {
	TopK int `yaml:"top_k" json:"top_k"`
	// CacheSize is the number of memoized queries. Negative disables the cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatcherConfig controls live reconciliation.
type WatcherConfig struct {
	Disabled bool   `yaml:"disabled" json:"disabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ServerConfig controls the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{Dir: "./documents"},
		Index: IndexConfig{
			Extensions:     append([]string(nil), extract.DefaultExtensions...),
			MinChunkLength: 11,
			MaxFileSize:    50 * 1024 * 1024,
			Workers:        runtime.NumCPU(),
		},
		Search: SearchConfig{
			TopK:      3,
			CacheSize: 256,
		},
		Watcher: WatcherConfig{
			Debounce: "200ms",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file path:
// $XDG_CONFIG_HOME/brainlib/config.yaml or ~/.config/brainlib/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "brainlib", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "brainlib", "config.yaml")
	}
	return filepath.Join(home, ".config", "brainlib", "config.yaml")
}

// Load builds the effective configuration for the working directory dir.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	cfg := NewConfig()
	cfg.baseDir = absDir

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(absDir); err != nil {
		return nil, err
	}

	if envPath := filepath.Join(absDir, ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads defaults plus one explicit YAML file, then environment
// overrides. Used by the --config flag.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.loadYAML(absPath); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DocumentsPath returns the absolute documents directory.
func (c *Config) DocumentsPath() string {
	dir := c.Documents.Dir
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	base := c.baseDir
	if base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, dir)
}

// DebounceDuration returns the parsed watcher debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watcher.Debounce)
	if err != nil || d < 0 {
		return 200 * time.Millisecond
	}
	return d
}

// loadFromFile merges .brainlib.yaml (or .yml) from dir when present.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".brainlib.yaml", ".brainlib.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Documents.Dir != "" {
		c.Documents.Dir = other.Documents.Dir
	}

	if len(other.Index.Extensions) > 0 {
		c.Index.Extensions = other.Index.Extensions
	}
	if other.Index.MinChunkLength != 0 {
		c.Index.MinChunkLength = other.Index.MinChunkLength
	}
	if other.Index.MaxFileSize != 0 {
		c.Index.MaxFileSize = other.Index.MaxFileSize
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}

	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Watcher.Disabled {
		c.Watcher.Disabled = true
	}
	if other.Watcher.Debounce != "" {
		c.Watcher.Debounce = other.Watcher.Debounce
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies BRAINLIB_* environment variables. Unparseable
// numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BRAINLIB_DOCUMENTS_DIR"); v != "" {
		c.Documents.Dir = v
	}
	if v := os.Getenv("BRAINLIB_EXTENSIONS"); v != "" {
		c.Index.Extensions = strings.Split(v, ",")
	}
	if v := os.Getenv("BRAINLIB_MIN_CHUNK_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.MinChunkLength = n
		}
	}
	if v := os.Getenv("BRAINLIB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("BRAINLIB_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("BRAINLIB_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.CacheSize = n
		}
	}
	if v := os.Getenv("BRAINLIB_WATCH_DEBOUNCE"); v != "" {
		c.Watcher.Debounce = v
	}
	if v := os.Getenv("BRAINLIB_WATCH_DISABLED"); v != "" {
		c.Watcher.Disabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BRAINLIB_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("BRAINLIB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("BRAINLIB_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// normalize lower-cases extensions and gives each a leading dot.
func (c *Config) normalize() {
	seen := make(map[string]bool, len(c.Index.Extensions))
	exts := make([]string, 0, len(c.Index.Extensions))
	for _, ext := range c.Index.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	c.Index.Extensions = exts
	c.Server.Transport = strings.ToLower(c.Server.Transport)
	c.Server.LogLevel = strings.ToLower(c.Server.LogLevel)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Documents.Dir) == "" {
		return fmt.Errorf("documents.dir must not be empty")
	}
	if len(c.Index.Extensions) == 0 {
		return fmt.Errorf("index.extensions must list at least one extension")
	}
	if c.Index.MinChunkLength < 1 {
		return fmt.Errorf("index.min_chunk_length must be at least 1, got %d", c.Index.MinChunkLength)
	}
	if c.Index.MaxFileSize < 0 {
		return fmt.Errorf("index.max_file_size must be non-negative, got %d", c.Index.MaxFileSize)
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	if d, err := time.ParseDuration(c.Watcher.Debounce); err != nil || d < 0 {
		return fmt.Errorf("watcher.debounce must be a non-negative duration, got %q", c.Watcher.Debounce)
	}

	switch strings.ToLower(c.Server.Transport) {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be 'stdio' or 'http', got %s", c.Server.Transport)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
