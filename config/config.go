// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ayumu-t/kikitori/internal/types"
)

const (
	appName        = "kikitori"
	configFileName = "config.json"
)

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = "fast"

// Config represents the persisted application settings. Values are read
// lazily through the accessors and written back on every change.
type Config struct {
	mu   sync.Mutex
	path string

	Microphone  int                 `json:"microphone"`
	Hotkey      types.HotKeyBinding `json:"hotkey"`
	Model       string              `json:"model"`
	FocusFollow bool                `json:"focus_follow"`
	ModelDir    string              `json:"model_dir,omitempty"`

	// Remote engine settings (optional; local inference is the default).
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			cfg.path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.path = path
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetMicrophone selects the capture device and persists the choice.
func (c *Config) SetMicrophone(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Microphone = id
	return c.saveLocked()
}

// SetHotkey replaces the toggle binding and persists it.
func (c *Config) SetHotkey(b types.HotKeyBinding) error {
	if b.Key == "" {
		return fmt.Errorf("hotkey key required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Hotkey = b
	return c.saveLocked()
}

// SetModel selects the transcription model and persists the choice.
func (c *Config) SetModel(id string) error {
	if id == "" {
		return fmt.Errorf("model id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Model = id
	return c.saveLocked()
}

// SetFocusFollow toggles the focus-follow preference and persists it.
func (c *Config) SetFocusFollow(v bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FocusFollow = v
	return c.saveLocked()
}

// ModelsDir returns the configured model directory, defaulting to
// ~/.kikitori/models when unset.
func (c *Config) ModelsDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ModelDir != "" {
		return c.ModelDir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(homeDir, ".kikitori", "models")
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

func defaultConfig() *Config {
	return &Config{
		Microphone: 0,
		Hotkey:     types.DefaultHotKey(),
		Model:      DefaultModel,
	}
}

func applyDefaults(c *Config) {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Hotkey.Key == "" {
		c.Hotkey = types.DefaultHotKey()
	}
}
