package source

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config represents the source section of the fuzmoi configuration file.
type Config struct {
	Sources       map[string]SourceAlias `yaml:"sources"`
	DefaultSource string                 `yaml:"default_source"`
}

// SourceAlias defines a named source alias.
type SourceAlias struct {
	URI         string `yaml:"uri"`
	Description string `yaml:"description,omitempty"`
}

// Names returns the alias names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigPath returns the path to the fuzmoi config file.
// FUZMOI_SOURCES_FILE overrides the default location.
func ConfigPath() string {
	if p := os.Getenv("FUZMOI_SOURCES_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fuzmoi", "config.yaml")
}

// LoadConfig loads the configuration from ConfigPath.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Sources: make(map[string]SourceAlias),
	}

	path := ConfigPath()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]SourceAlias)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to ConfigPath.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()
	if path == "" {
		return os.ErrNotExist
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
