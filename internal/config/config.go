// Package config loads and saves the dashgrid config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dashgrid/internal/grid"
	"dashgrid/internal/store"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigDir = "DASHGRID_CONFIG_DIR"
	fileName     = "config.yaml"

	DefaultUser         = "local"
	DefaultSaveDebounce = 250 * time.Millisecond
	DefaultRetryAfter   = 5 * time.Second
)

type Config struct {
	User        string        `yaml:"user" json:"user"`
	Backend     string        `yaml:"backend" json:"backend"`
	DataDir     string        `yaml:"dataDir,omitempty" json:"dataDir,omitempty"`
	PostgresDSN string        `yaml:"postgresDSN,omitempty" json:"postgresDSN,omitempty"`
	Timebox     grid.Config   `yaml:"timebox" json:"timebox"`
	Debounce    time.Duration `yaml:"saveDebounce" json:"saveDebounce"`
	RetryAfter  time.Duration `yaml:"retryAfter" json:"retryAfter"`
	Log         LogConfig     `yaml:"log" json:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File, when set, receives log output instead of stderr. Relative paths
	// are resolved against the data dir.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

func Default() Config {
	return Config{
		User:       DefaultUser,
		Backend:    store.KindSQLite,
		Timebox:    grid.DefaultConfig(),
		Debounce:   DefaultSaveDebounce,
		RetryAfter: DefaultRetryAfter,
		Log:        LogConfig{Level: "info", Format: "console"},
	}
}

// ApplyDefaults fills zero fields from Default.
func (c *Config) ApplyDefaults() {
	d := Default()
	if strings.TrimSpace(c.User) == "" {
		c.User = d.User
	}
	if strings.TrimSpace(c.Backend) == "" {
		c.Backend = d.Backend
	}
	if c.Timebox == (grid.Config{}) {
		c.Timebox = d.Timebox
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = d.RetryAfter
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case store.KindSQLite, store.KindFile, store.KindMemory:
	case store.KindPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("config: postgres backend needs postgresDSN")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if strings.Contains(c.User, "/") {
		return fmt.Errorf("config: user %q must not contain '/'", c.User)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return c.Timebox.Validate()
}

// Dir returns the config directory. DASHGRID_CONFIG_DIR overrides ~/.dashgrid.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dashgrid"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ResolvedDataDir is DataDir, or the config dir when unset.
func (c Config) ResolvedDataDir() (string, error) {
	if strings.TrimSpace(c.DataDir) != "" {
		return c.DataDir, nil
	}
	return Dir()
}

// Load reads the config file. A missing file yields Default.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func Save(c Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, c)
}

func SaveFile(path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, 0o600)
	return os.Rename(tmp, path)
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"user", "backend", "dataDir", "postgresDSN",
		"timebox.days", "timebox.startHour", "timebox.endHour", "timebox.slotMinutes",
		"saveDebounce", "retryAfter", "log.level", "log.format", "log.file",
	}
}

// Set assigns one dotted key from its string form. The result is validated.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("config: %s: %w", key, err)
		}
		return n, nil
	}
	dur := func() (time.Duration, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("config: %s: %w", key, err)
		}
		return d, nil
	}
	next := *c
	var err error
	switch key {
	case "user":
		next.User = value
	case "backend":
		next.Backend = value
	case "dataDir":
		next.DataDir = value
	case "postgresDSN":
		next.PostgresDSN = value
	case "timebox.days":
		next.Timebox.Days, err = atoi()
	case "timebox.startHour":
		next.Timebox.StartHour, err = atoi()
	case "timebox.endHour":
		next.Timebox.EndHour, err = atoi()
	case "timebox.slotMinutes":
		next.Timebox.SlotMinutes, err = atoi()
	case "saveDebounce":
		next.Debounce, err = dur()
	case "retryAfter":
		next.RetryAfter, err = dur()
	case "log.level":
		next.Log.Level = value
	case "log.format":
		next.Log.Format = value
	case "log.file":
		next.Log.File = value
	default:
		return fmt.Errorf("config: unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return err
	}
	next.ApplyDefaults()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
