package config

import "time"

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			PokemonTTL: 5 * time.Minute,
			MovesTTL:   3 * time.Minute,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "pokemontodo.db",
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: "pokemontodo-blobs",
			Prefix: "state/",
			S3:     S3Config{Region: "us-east-1"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		MCP: MCPConfig{Transport: "stdio", Addr: ":8090"},
	}
}

// defaultKeys flattens DefaultConfig into viper keys so every key can be
// overridden from the environment.
func defaultKeys() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"api.base_url":              d.API.BaseURL,
		"api.timeout":               d.API.Timeout,
		"cache.pokemon_ttl":         d.Cache.PokemonTTL,
		"cache.moves_ttl":           d.Cache.MovesTTL,
		"storage.driver":            d.Storage.Driver,
		"storage.sqlite_path":       d.Storage.SQLitePath,
		"storage.postgres_dsn":      d.Storage.PostgresDSN,
		"blob.driver":               d.Blob.Driver,
		"blob.fs_root":              d.Blob.FSRoot,
		"blob.prefix":               d.Blob.Prefix,
		"blob.s3.bucket":            d.Blob.S3.Bucket,
		"blob.s3.region":            d.Blob.S3.Region,
		"blob.s3.endpoint":          d.Blob.S3.Endpoint,
		"blob.s3.path_style":        d.Blob.S3.PathStyle,
		"blob.s3.access_key_id":     d.Blob.S3.AccessKeyID,
		"blob.s3.secret_access_key": d.Blob.S3.SecretAccessKey,
		"log.level":                 d.Log.Level,
		"log.format":                d.Log.Format,
		"server.addr":               d.Server.Addr,
		"server.cors_origins":       d.Server.CORSOrigins,
		"server.access_log":         d.Server.AccessLog,
		"mcp.transport":             d.MCP.Transport,
		"mcp.addr":                  d.MCP.Addr,
		"metrics.enabled":           d.Metrics.Enabled,
		"dev":                       d.Dev,
	}
}
