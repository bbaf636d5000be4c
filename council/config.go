package council

// Reference deployment: three high-capability instruction-following models
// behind an OpenRouter-style gateway.
var defaultModels = []string{
	"google/gemini-1.5-pro",
	"openai/gpt-4o",
	"anthropic/claude-3.5-sonnet",
}

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds council engine initialization parameters. APIKey is never
// serialized; it is injected from the environment by the process entry
// point.
type Config struct {
	Models         []string `json:"models,omitempty"`
	BaseURL        string   `json:"base_url,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"` // 0 disables the per-call deadline.
	APIKey         string   `json:"-"`
}

// DefaultConfig returns the default council configuration.
func DefaultConfig() Config {
	return Config{
		Models:  defaultModels,
		BaseURL: defaultBaseURL,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if len(source.Models) > 0 {
		c.Models = source.Models
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
}
