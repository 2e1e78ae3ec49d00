package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ADREADER"

const redacted = "********"

// Load builds a Config from defaults, the YAML file at path (optional) and
// ADREADER_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with the defaults so that every
// key can be overridden from the environment.
func newViper() (*viper.Viper, error) {
	defaults, err := yaml.Marshal(NewDefault())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Save writes cfg as YAML to filePath.
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Dump renders cfg as YAML with credentials masked.
func Dump(cfg *Config) ([]byte, error) {
	masked := *cfg
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&masked.DV360.AccessToken)
	mask(&masked.DV360.RefreshToken)
	mask(&masked.DV360.ClientSecret)
	mask(&masked.GSheets.PrivateKey)
	mask(&masked.GSheets.PrivateKeyID)
	mask(&masked.Facebook.AccessToken)
	mask(&masked.Facebook.AppSecret)
	return yaml.Marshal(&masked)
}
