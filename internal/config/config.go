// Package config reads and writes docstore configuration.
// Supports both global (~/.docstore/config.yaml) and local (.docstore/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
//
// DOCSTORE_BACKEND overrides backend.kind after loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpl-au/docstore/internal/store"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Environment variables consulted by Load.
const (
	EnvBackend = "DOCSTORE_BACKEND"
	EnvDir     = "DOCSTORE_DIR"
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.docstore/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is project-specific config in .docstore/config.yaml
	ScopeLocal
)

// Dir is the name of the per-project directory holding config and databases.
const Dir = ".docstore"

// Author represents who performs writes, recorded in the audit log and on
// git commits.
type Author struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Relational configures the SQLite table backend.
type Relational struct {
	File string `yaml:"file,omitempty"`
}

// Git configures the content-addressed backend.
type Git struct {
	Dir       string `yaml:"dir,omitempty"`
	Branch    string `yaml:"branch,omitempty"`
	Extension string `yaml:"extension,omitempty"`
}

// Analytical configures the append-only backend.
type Analytical struct {
	File      string `yaml:"file,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// Backend selects and configures the storage backend.
type Backend struct {
	Kind       string     `yaml:"kind,omitempty"`
	Relational Relational `yaml:"relational,omitempty"`
	Git        Git        `yaml:"git,omitempty"`
	Analytical Analytical `yaml:"analytical,omitempty"`
}

// Processor bounds each processing run.
type Processor struct {
	Limit *int   `yaml:"limit,omitempty"`
	Lease string `yaml:"lease,omitempty"`
}

// Timeouts holds per-operation deadlines.
type Timeouts struct {
	IO string `yaml:"io,omitempty"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr string `yaml:"addr,omitempty"`
}

// Limits holds size limit configuration options.
type Limits struct {
	MaxPath    *int   `yaml:"max_path,omitempty"`
	MaxContent *int64 `yaml:"max_content,omitempty"`
}

// Defaults applied when not configured. Relative files are resolved
// against the project root (the directory holding .docstore).
const (
	DefaultKind           = store.KindRelational
	DefaultRelationalFile = Dir + "/docstore.db"
	DefaultAnalyticalFile = Dir + "/analytical.db"
	DefaultGitDir         = "."
	DefaultGitBranch      = "main"
	DefaultGitExtension   = ".md"
	DefaultNamespace      = "default"
	DefaultProcessorLimit = 100
	DefaultProcessorLease = 5 * time.Minute
	DefaultIOTimeout      = 30 * time.Second
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultMaxPath        = 1024
	DefaultMaxContent     = 100 * 1024 * 1024 // 100 MB
)

// Validation bounds for configuration values.
const (
	MinMaxPath        = 1
	MaxMaxPath        = 65536 // 64 KB - reasonable upper bound for paths
	MinMaxContent     = 1
	MaxMaxContent     = 10 * 1024 * 1024 * 1024 // 10 GB - reasonable upper bound
	MaxProcessorLimit = 10000
)

// Config contains configuration for docstore.
type Config struct {
	Author    Author    `yaml:"author,omitempty"`
	Backend   Backend   `yaml:"backend,omitempty"`
	Processor Processor `yaml:"processor,omitempty"`
	Timeouts  Timeouts  `yaml:"timeouts,omitempty"`
	Server    Server    `yaml:"server,omitempty"`
	Limits    Limits    `yaml:"limits,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	if c.Backend.Kind != "" && !store.Kind(c.Backend.Kind).Valid() {
		return fmt.Errorf("%w: backend.kind must be one of %v, got %q",
			ErrInvalidValue, store.Kinds(), c.Backend.Kind)
	}
	if e := c.Backend.Git.Extension; e != "" && e != ".md" && e != ".mdx" {
		return fmt.Errorf("%w: backend.git.extension must be .md or .mdx, got %q", ErrInvalidValue, e)
	}
	if c.Limits.MaxPath != nil {
		v := *c.Limits.MaxPath
		if v < MinMaxPath || v > MaxMaxPath {
			return fmt.Errorf("%w: max_path must be between %d and %d, got %d",
				ErrInvalidValue, MinMaxPath, MaxMaxPath, v)
		}
	}
	if c.Limits.MaxContent != nil {
		v := *c.Limits.MaxContent
		if v < MinMaxContent || v > MaxMaxContent {
			return fmt.Errorf("%w: max_content must be between %d and %d, got %d",
				ErrInvalidValue, MinMaxContent, MaxMaxContent, v)
		}
	}
	if c.Processor.Limit != nil {
		v := *c.Processor.Limit
		if v < 1 || v > MaxProcessorLimit {
			return fmt.Errorf("%w: processor.limit must be between 1 and %d, got %d",
				ErrInvalidValue, MaxProcessorLimit, v)
		}
	}
	for key, v := range map[string]string{"processor.lease": c.Processor.Lease, "timeouts.io": c.Timeouts.IO} {
		if v == "" {
			continue
		}
		if d, err := parseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration, got %q", ErrInvalidValue, key, v)
		}
	}
	return nil
}

// Kind returns the configured backend (defaults to relational).
func (c *Config) Kind() store.Kind {
	if c.Backend.Kind == "" {
		return DefaultKind
	}
	return store.Kind(c.Backend.Kind)
}

// RelationalFile returns the relational database file.
func (c *Config) RelationalFile() string {
	return or(c.Backend.Relational.File, DefaultRelationalFile)
}

// AnalyticalFile returns the analytical database file.
func (c *Config) AnalyticalFile() string {
	return or(c.Backend.Analytical.File, DefaultAnalyticalFile)
}

// Namespace returns the analytical namespace.
func (c *Config) Namespace() string {
	return or(c.Backend.Analytical.Namespace, DefaultNamespace)
}

// GitDir returns the git working tree.
func (c *Config) GitDir() string {
	return or(c.Backend.Git.Dir, DefaultGitDir)
}

// GitBranch returns the branch the git backend commits to.
func (c *Config) GitBranch() string {
	return or(c.Backend.Git.Branch, DefaultGitBranch)
}

// GitExtension returns the extension for new git documents.
func (c *Config) GitExtension() string {
	return or(c.Backend.Git.Extension, DefaultGitExtension)
}

// ProcessorLimit returns the maximum Actions claimed per run.
func (c *Config) ProcessorLimit() int {
	if c.Processor.Limit == nil {
		return DefaultProcessorLimit
	}
	return *c.Processor.Limit
}

// ProcessorLease returns how long a claim stays exclusive.
func (c *Config) ProcessorLease() time.Duration {
	return durationOr(c.Processor.Lease, DefaultProcessorLease)
}

// IOTimeout returns the deadline applied to each backend operation.
func (c *Config) IOTimeout() time.Duration {
	return durationOr(c.Timeouts.IO, DefaultIOTimeout)
}

// ServerAddr returns the HTTP listen address.
func (c *Config) ServerAddr() string {
	return or(c.Server.Addr, DefaultServerAddr)
}

// MaxPath returns the maximum path length in bytes (defaults to 1024).
func (c *Config) MaxPath() int {
	if c.Limits.MaxPath == nil {
		return DefaultMaxPath
	}
	return *c.Limits.MaxPath
}

// MaxContent returns the maximum content size in bytes (defaults to 100 MB).
func (c *Config) MaxContent() int64 {
	if c.Limits.MaxContent == nil {
		return DefaultMaxContent
	}
	return *c.Limits.MaxContent
}

// Resolve joins a relative path onto root.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := parseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// LocalPath returns the path to the local (project) config file.
func LocalPath() string {
	return filepath.Join(Dir, "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.docstore/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, Dir, "config.yaml")
}

// Load reads configuration: uses local if it exists, otherwise global.
// Environment overrides are applied last.
func Load() (*Config, error) {
	return LoadProject("")
}

// LoadProject is Load for the project rooted at root rather than the
// working directory.
func LoadProject(root string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	local := filepath.Join(root, LocalPath())
	if _, statErr := os.Stat(local); statErr == nil {
		cfg, err = load(local, ScopeLocal)
	} else {
		cfg, err = LoadScope(ScopeGlobal)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBackend); v != "" {
		if !store.Kind(v).Valid() {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvBackend, v)
		}
		c.Backend.Kind = v
	}
	return nil
}

// LoadFile reads configuration from an explicit file. A missing file yields
// an empty config.
func LoadFile(path string) (*Config, error) {
	return load(path, ScopeLocal)
}

// LoadScope reads configuration from a specific scope.
func LoadScope(scope Scope) (*Config, error) {
	return load(pathForScope(scope), scope)
}

func load(path string, scope Scope) (*Config, error) {
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// SaveFile writes the configuration to path.
func (c *Config) SaveFile(path string) error {
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
