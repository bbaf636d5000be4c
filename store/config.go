package store

import "context"

const defaultPath = "sessions.json"

// Config holds session store initialization parameters.
type Config struct {
	Path string `json:"path,omitempty"` // Session file location.
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{Path: defaultPath}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewStore creates a file-backed Store from configuration.
func NewStore(ctx context.Context, cfg *Config, opts ...Option) (Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	return New(ctx, NewFileBackend(path), opts...)
}
