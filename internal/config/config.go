package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Algorithm   string    `yaml:"algorithm"`
	Format      string    `yaml:"format"`
	FollowLinks bool      `yaml:"follow_links"`
	Progress    bool      `yaml:"progress"`
	Exclude     []string  `yaml:"exclude"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path is the log file. Empty means stderr.
	Path string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Algorithm: "md5",
		Format:    "gnu",
		Exclude:   []string{},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file or
// an empty path yields the defaults; keys absent from the file keep them.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	return cfg, nil
}

// DefaultPath returns the first *.yaml file in a "hasher" directory under
// $XDG_CONFIG_HOME, $XDG_CONFIG_DIRS or ~/.config, falling back to
// ~/.hasher.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}

	dirs := []string{os.Getenv("XDG_CONFIG_HOME")}
	dirs = append(dirs, strings.Split(os.Getenv("XDG_CONFIG_DIRS"), ":")...)
	dirs = append(dirs, path.Join(home, ".config"))

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if file := findInPath(dir); file != "" {
			return file, nil
		}
	}
	return path.Join(home, ".hasher.yaml"), nil
}

func findInPath(dir string) string {
	directory := path.Join(dir, "hasher")
	entries, err := os.ReadDir(directory)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".yaml" {
			return path.Join(directory, entry.Name())
		}
	}
	return ""
}
