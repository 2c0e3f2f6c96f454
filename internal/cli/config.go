package cli

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type AnalyzeConfig struct {
	Jobs          int  `yaml:"jobs"`
	FailOnWarning bool `yaml:"fail_on_warning"`
}

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Analyze  *AnalyzeConfig `yaml:"analyze"`
}

func (c *Config) fillDefault() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Analyze == nil {
		c.Analyze = &AnalyzeConfig{}
	}
	if c.Analyze.Jobs <= 0 {
		c.Analyze.Jobs = runtime.GOMAXPROCS(0)
	}
}

// ParseConfig loads the optional YAML config. An empty path yields the
// default configuration.
func ParseConfig(configPath string) (*Config, error) {
	conf := &Config{}
	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("can't open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(conf); err != nil {
			return nil, fmt.Errorf("can't parse config file %s: %w", configPath, err)
		}
	}
	conf.fillDefault()
	return conf, nil
}
