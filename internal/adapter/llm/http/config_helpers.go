package http

import (
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/config"
)

// ParseTimeout resolves a timeout with the fallback chain
// endpoint override > global > default. Negative durations are rejected
// (they would panic inside http.Client).
func ParseTimeout(endpointOverride *string, globalTimeout string, defaultVal time.Duration) time.Duration {
	if endpointOverride != nil && *endpointOverride != "" {
		if d, err := time.ParseDuration(*endpointOverride); err == nil && d >= 0 {
			return d
		}
	}

	if globalTimeout != "" {
		if d, err := time.ParseDuration(globalTimeout); err == nil && d >= 0 {
			return d
		}
	}

	if defaultVal < 0 {
		return 60 * time.Second
	}
	return defaultVal
}

// BuildRetryConfig merges endpoint overrides over global HTTP settings.
func BuildRetryConfig(ep config.EndpointConfig, httpCfg config.HTTPConfig) RetryConfig {
	maxRetries := httpCfg.MaxRetries
	if ep.MaxRetries != nil {
		maxRetries = *ep.MaxRetries
	}

	multiplier := httpCfg.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: parseDuration(ep.InitialBackoff, httpCfg.InitialBackoff, 2*time.Second),
		MaxBackoff:     parseDuration(ep.MaxBackoff, httpCfg.MaxBackoff, 30*time.Second),
		Multiplier:     multiplier,
	}
}

func parseDuration(override *string, global string, defaultVal time.Duration) time.Duration {
	if override != nil && *override != "" {
		if d, err := time.ParseDuration(*override); err == nil && d >= 0 {
			return d
		}
	}
	if global != "" {
		if d, err := time.ParseDuration(global); err == nil && d >= 0 {
			return d
		}
	}
	if defaultVal < 0 {
		return 0
	}
	return defaultVal
}
