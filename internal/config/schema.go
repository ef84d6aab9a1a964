// Package config loads pokemontodo settings from defaults, an optional YAML
// file and POKEMONTODO_* environment variables.
package config

import "time"

// Config is the full pokemontodo configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Blob    BlobConfig    `yaml:"blob" mapstructure:"blob"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	MCP     MCPConfig     `yaml:"mcp" mapstructure:"mcp"`

	// Dev enables verbose error output in the CLI.
	Dev bool `yaml:"dev" mapstructure:"dev"`
}

// APIConfig locates the REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig sets the fetch cache windows.
type CacheConfig struct {
	PokemonTTL time.Duration `yaml:"pokemon_ttl" mapstructure:"pokemon_ttl"`
	MovesTTL   time.Duration `yaml:"moves_ttl" mapstructure:"moves_ttl"`
}

// StorageConfig selects where client state is persisted.
type StorageConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
}

// BlobConfig configures the blob store used by the "blob" storage driver.
type BlobConfig struct {
	Driver string   `yaml:"driver" mapstructure:"driver"`
	FSRoot string   `yaml:"fs_root" mapstructure:"fs_root"`
	Prefix string   `yaml:"prefix" mapstructure:"prefix"`
	S3     S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config addresses an S3 or MinIO bucket. Credentials come from the AWS
// default chain unless both keys are set.
type S3Config struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	PathStyle       bool   `yaml:"path_style" mapstructure:"path_style"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the dev backend started by "pokemontodo serve".
type ServerConfig struct {
	Addr        string   `yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	AccessLog   bool     `yaml:"access_log" mapstructure:"access_log"`
}

// MCPConfig configures the tool server started by "pokemontodo mcp".
type MCPConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"`
	Addr      string `yaml:"addr" mapstructure:"addr"`
}

// MetricsConfig toggles the Prometheus recorder and /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}
