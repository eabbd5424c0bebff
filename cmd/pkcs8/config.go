package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
)

type Config struct {
	Encryption EncryptionConfig `yaml:"encryption"`
	Output     OutputConfig     `yaml:"output"`
}

type EncryptionConfig struct {
	Cipher     string `yaml:"cipher" validate:"oneof=aes-128-cbc aes-256-cbc"`
	Iterations int    `yaml:"iterations" validate:"gte=1000,lte=10000000"`
	SaltSize   int    `yaml:"salt_size" validate:"gte=8,lte=64"`
}

type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=pem der"`
}

func DefaultConfig() *Config {
	return &Config{
		Encryption: EncryptionConfig{
			Cipher:     "aes-256-cbc",
			Iterations: pkcs5.DefaultIterations,
			SaltSize:   pkcs5.DefaultSaltSize,
		},
		Output: OutputConfig{
			Format: "pem",
		},
	}
}

// LoadConfigFile reads a YAML config file on top of the defaults. Environment
// variables in the file are expanded.
func LoadConfigFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// expand environment variables $
	expanded := os.ExpandEnv(string(content))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("yaml")
	})
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// EncryptOptions returns the library options for the configured scheme.
func (c *Config) EncryptOptions() (*pkcs8.EncryptOptions, error) {
	cipher, err := pkcs5.CipherByName(c.Encryption.Cipher)
	if err != nil {
		return nil, err
	}
	return &pkcs8.EncryptOptions{
		Cipher:     cipher,
		Iterations: c.Encryption.Iterations,
		SaltSize:   c.Encryption.SaltSize,
	}, nil
}

// configPath resolves the config file: --config, PKCS8_CONFIG, then
// $XDG_CONFIG_HOME/pkcs8/config.yaml. An empty result means defaults.
func configPath() string {
	if path := settings.GetString("config"); path != "" {
		return path
	}
	path := filepath.Join(xdg.ConfigHome, "pkcs8", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadConfig loads the config file, if any, and applies flag and environment
// overrides bound in settings.
func loadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := configPath(); path != "" {
		loaded, err := LoadConfigFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %q not found", path)
			}
			return nil, fmt.Errorf("load config file %q: %w", path, err)
		}
		slog.Debug("loaded config", "path", path)
		cfg = loaded
	}

	if settings.IsSet("encryption.cipher") {
		cfg.Encryption.Cipher = settings.GetString("encryption.cipher")
	}
	if settings.IsSet("encryption.iterations") {
		cfg.Encryption.Iterations = settings.GetInt("encryption.iterations")
	}
	if settings.IsSet("encryption.salt_size") {
		cfg.Encryption.SaltSize = settings.GetInt("encryption.salt_size")
	}
	if settings.IsSet("output.format") {
		cfg.Output.Format = settings.GetString("output.format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
