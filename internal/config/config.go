package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Extractor configures the LLM parameter extractor.
type Extractor struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Redeploy configures the administrative redeploy trigger.
type Redeploy struct {
	Command  []string `yaml:"command,omitempty"`
	LockPath string   `yaml:"lock_path,omitempty"`
	// PerHour caps how many redeploys may be triggered per hour.
	PerHour int `yaml:"per_hour,omitempty"`
}

// Config is the in-memory representation of answerhub.yaml.
type Config struct {
	Listen      string    `yaml:"listen"`
	CatalogPath string    `yaml:"catalog_path"`
	UploadDir   string    `yaml:"upload_dir"`
	LogLevel    string    `yaml:"log_level,omitempty"`
	LogFormat   string    `yaml:"log_format,omitempty"`
	Extractor   Extractor `yaml:"extractor"`
	Redeploy    Redeploy  `yaml:"redeploy"`
}

// HomeDir returns the absolute path to ~/.answerhub/.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".answerhub"), nil
}

// ConfigPath returns the absolute path to ~/.answerhub/answerhub.yaml.
func ConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "answerhub.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration used when no file is present and
// the values written by answerhub init.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8000",
		CatalogPath: filepath.Join("data", "questions.json"),
		UploadDir:   "tmp_uploads",
		LogLevel:    "info",
		LogFormat:   "json",
		Extractor: Extractor{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "https://aiproxy.sanand.workers.dev/openai/v1",
			Timeout:  20 * time.Second,
		},
		Redeploy: Redeploy{
			Command: []string{"../redeploy.sh"},
			PerHour: 6,
		},
	}
}

// Load reads and parses the config file at path. An empty path means
// ~/.answerhub/answerhub.yaml; a missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save marshals cfg and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) expand() error {
	var err error
	for _, p := range []*string{&c.CatalogPath, &c.UploadDir, &c.Redeploy.LockPath} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	return nil
}

// fillDefaults restores defaults for keys the file set to empty values.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.CatalogPath == "" {
		c.CatalogPath = d.CatalogPath
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}
	if c.Extractor.Timeout <= 0 {
		c.Extractor.Timeout = d.Extractor.Timeout
	}
	if c.Redeploy.PerHour <= 0 {
		c.Redeploy.PerHour = d.Redeploy.PerHour
	}
}
