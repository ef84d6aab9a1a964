package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POKEMONTODO_API_BASE_URL.
const EnvPrefix = "POKEMONTODO"

// Load merges defaults, the YAML file at path (skipped when empty) and the
// environment, in that order of increasing precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, val := range defaultKeys() {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the CLI cannot act on.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres", "blob":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "fs", "memory", "s3":
	default:
		return fmt.Errorf("blob.driver: unknown driver %q", c.Blob.Driver)
	}
	if c.Storage.Driver == "blob" && c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("blob.s3.bucket is required for the s3 blob driver")
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("mcp.transport: unknown transport %q", c.MCP.Transport)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	return nil
}

// DefaultPath returns ~/.pokemontodo/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pokemontodo", "config.yaml")
}

// ResolvePath returns explicit when set, otherwise DefaultPath when that file
// exists, otherwise "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	p := DefaultPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
