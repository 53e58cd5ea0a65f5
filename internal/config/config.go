// Package config resolves settings from (in order of precedence) flags,
// SPACENAV_* environment variables, the config file and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"spacenav/internal/window"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "SPACENAV"

type Config struct {
	APIURL   string      `mapstructure:"api_url" json:"apiUrl" yaml:"api_url"`
	LogLevel string      `mapstructure:"log_level" json:"logLevel" yaml:"log_level"`
	LogFile  string      `mapstructure:"log_file" json:"logFile,omitempty" yaml:"log_file,omitempty"`
	TUI      TUIConfig   `mapstructure:"tui" json:"tui" yaml:"tui"`
	Tree     TreeConfig  `mapstructure:"tree" json:"tree" yaml:"tree"`
	Serve    ServeConfig `mapstructure:"serve" json:"serve" yaml:"serve"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty" yaml:"-"`
}

type TUIConfig struct {
	Glyphs string `mapstructure:"glyphs" json:"glyphs" yaml:"glyphs"`
	Site   string `mapstructure:"site" json:"site,omitempty" yaml:"site,omitempty"`
}

type TreeConfig struct {
	Enabled    bool                       `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	MaxHeight  int                        `mapstructure:"max_height" json:"maxHeight" yaml:"max_height"`
	ItemHeight int                        `mapstructure:"item_height" json:"itemHeight" yaml:"item_height"`
	Threshold  int                        `mapstructure:"threshold" json:"threshold" yaml:"threshold"`
	Overscan   int                        `mapstructure:"overscan" json:"overscan" yaml:"overscan"`
	Overrides  map[string]window.Override `mapstructure:"overrides" json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

type ServeConfig struct {
	Addr    string        `mapstructure:"addr" json:"addr" yaml:"addr"`
	DB      string        `mapstructure:"db" json:"db" yaml:"db"`
	Seed    string        `mapstructure:"seed" json:"seed,omitempty" yaml:"seed,omitempty"`
	Latency time.Duration `mapstructure:"latency" json:"latency" yaml:"latency"`
}

// Dir is the config directory. SPACENAV_CONFIG_DIR overrides it (tests use
// this to stay out of $HOME).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spacenav"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	def := window.DefaultConfig()
	v.SetDefault("api_url", "http://127.0.0.1:8000")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("tui.glyphs", "unicode")
	v.SetDefault("tui.site", "")
	v.SetDefault("tree.enabled", def.Enabled)
	v.SetDefault("tree.max_height", def.MaxHeight)
	v.SetDefault("tree.item_height", def.ItemHeight)
	v.SetDefault("tree.threshold", window.RootThreshold)
	v.SetDefault("tree.overscan", def.Overscan)
	v.SetDefault("serve.addr", "127.0.0.1:8000")
	v.SetDefault("serve.db", ":memory:")
	v.SetDefault("serve.seed", "")
	v.SetDefault("serve.latency", "0s")
}

// New returns a viper instance with defaults, env binding and the config file
// (explicit path, or Dir()/config.yaml when present) loaded.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.File = v.ConfigFileUsed()
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if _, err := c.WindowPolicy(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load is New followed by Decode.
func Load(file string) (Config, error) {
	v, err := New(file)
	if err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// WindowPolicy converts the tree section into a windowing policy. Override
// keys are space ids.
func (c Config) WindowPolicy() (window.Policy, error) {
	p := window.Policy{
		Root: window.Config{
			Enabled:    c.Tree.Enabled,
			MaxHeight:  c.Tree.MaxHeight,
			ItemHeight: c.Tree.ItemHeight,
			Threshold:  c.Tree.Threshold,
			Overscan:   c.Tree.Overscan,
		},
	}
	if len(c.Tree.Overrides) == 0 {
		return p, nil
	}
	p.Overrides = make(map[int]window.Override, len(c.Tree.Overrides))
	keys := make([]string, 0, len(c.Tree.Overrides))
	for k := range c.Tree.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return window.Policy{}, fmt.Errorf("tree.overrides: %q is not a space id", k)
		}
		p.Overrides[id] = c.Tree.Overrides[k]
	}
	return p, nil
}

// Defaults returns the built-in configuration, ignoring env and files.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	c, _ := Decode(v)
	return c
}

// WriteDefault writes the default config to path unless it exists (or force).
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	b, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return atomicWriteFile(dir, ".config-*.tmp", path, b, 0o644)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
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
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
