package config

// Config represents the full application configuration.
type Config struct {
	Perspectives  PerspectivesConfig  `yaml:"perspectives"`
	Judge         EndpointConfig      `yaml:"judge"`
	Synthesis     EndpointConfig      `yaml:"synthesis"`
	HTTP          HTTPConfig          `yaml:"http"`
	Engine        EngineConfig        `yaml:"engine"`
	Store         StoreConfig         `yaml:"store"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PerspectivesConfig binds each perspective core to a model endpoint.
type PerspectivesConfig struct {
	Tactical      EndpointConfig `yaml:"tactical"`
	Environmental EndpointConfig `yaml:"environmental"`
	Strategic     EndpointConfig `yaml:"strategic"`
}

// EndpointConfig configures one model endpoint binding.
type EndpointConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini, ollama, static
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`   // unused for ollama and static
	BaseURL  string `yaml:"baseUrl"`  // ollama server address; empty means localhost

	// Transport overrides (optional; global HTTP config applies if unset)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// EngineConfig tunes the generate/validate/retry loop. The deadlines here
// bound individual calls; there is deliberately no aggregate ceiling.
type EngineConfig struct {
	MaxAttempts       int    `yaml:"maxAttempts"`       // total generation attempts per core (default 3)
	GenerationTimeout string `yaml:"generationTimeout"` // per-core generation budget (default 30s)
	JudgeTimeout      string `yaml:"judgeTimeout"`      // judge call budget (default 15s)
	SynthesisTimeout  string `yaml:"synthesisTimeout"`  // synthesis call budget (default 30s)
}

// StoreConfig configures the optional analysis-history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig configures report artifact output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// MetricsConfig configures in-memory call metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Endpoints returns every configured endpoint binding, for validation.
func (c Config) Endpoints() []EndpointConfig {
	return []EndpointConfig{
		c.Perspectives.Tactical,
		c.Perspectives.Environmental,
		c.Perspectives.Strategic,
		c.Judge,
		c.Synthesis,
	}
}
