package server

const defaultAddr = ":8000"

// Config holds HTTP server initialization parameters.
type Config struct {
	Addr         string   `json:"addr,omitempty"`
	AllowOrigins []string `json:"allow_origins,omitempty"`
}

// DefaultConfig returns the default server configuration. Origins default
// to allow-all for local development, matching the reference deployment.
func DefaultConfig() Config {
	return Config{
		Addr:         defaultAddr,
		AllowOrigins: []string{"*"},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if len(source.AllowOrigins) > 0 {
		c.AllowOrigins = source.AllowOrigins
	}
}
