package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "sibyl"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "SIBYL"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return expandEnvVars(cfg), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "30s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	v.SetDefault("engine.maxAttempts", 3)
	v.SetDefault("engine.generationTimeout", "30s")
	v.SetDefault("engine.judgeTimeout", "15s")
	v.SetDefault("engine.synthesisTimeout", "30s")

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", "sibyl-history.db")

	v.SetDefault("output.directory", "reports")

	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "human")
	v.SetDefault("observability.logging.redactAPIKeys", true)
	v.SetDefault("observability.metrics.enabled", true)

	v.SetDefault("perspectives.tactical.provider", "anthropic")
	v.SetDefault("perspectives.tactical.model", "claude-sonnet-4-20250514")
	v.SetDefault("perspectives.environmental.provider", "openai")
	v.SetDefault("perspectives.environmental.model", "gpt-4o")
	v.SetDefault("perspectives.strategic.provider", "gemini")
	v.SetDefault("perspectives.strategic.model", "gemini-1.5-pro")
	v.SetDefault("judge.provider", "gemini")
	v.SetDefault("judge.model", "gemini-2.0-flash")
	v.SetDefault("synthesis.provider", "anthropic")
	v.SetDefault("synthesis.model", "claude-sonnet-4-20250514")
}

func locateConfigFile(name string, paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{"yaml", "yml", "json"} {
			candidate := filepath.Join(dir, fmt.Sprintf("%s.%s", name, ext))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings, so
// API keys can live in the environment rather than in the config file.
func expandEnvVars(cfg Config) Config {
	cfg.Perspectives.Tactical = expandEndpoint(cfg.Perspectives.Tactical)
	cfg.Perspectives.Environmental = expandEndpoint(cfg.Perspectives.Environmental)
	cfg.Perspectives.Strategic = expandEndpoint(cfg.Perspectives.Strategic)
	cfg.Judge = expandEndpoint(cfg.Judge)
	cfg.Synthesis = expandEndpoint(cfg.Synthesis)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Observability.Logging.Level = expandEnvString(cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = expandEnvString(cfg.Observability.Logging.Format)

	return cfg
}

func expandEndpoint(ep EndpointConfig) EndpointConfig {
	ep.Provider = expandEnvString(ep.Provider)
	ep.Model = expandEnvString(ep.Model)
	ep.APIKey = expandEnvString(ep.APIKey)
	ep.BaseURL = expandEnvString(ep.BaseURL)
	if ep.Timeout != nil {
		t := expandEnvString(*ep.Timeout)
		ep.Timeout = &t
	}
	if ep.InitialBackoff != nil {
		b := expandEnvString(*ep.InitialBackoff)
		ep.InitialBackoff = &b
	}
	if ep.MaxBackoff != nil {
		b := expandEnvString(*ep.MaxBackoff)
		ep.MaxBackoff = &b
	}
	return ep
}

var (
	bracedVarRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVarRe   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment variable values
// and expands a leading tilde to the home directory. Unset variables are
// left as-is so misconfiguration stays visible.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = home + s[1:]
		}
	}

	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}
