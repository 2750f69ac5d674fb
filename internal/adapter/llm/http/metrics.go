package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for model API calls.
type Metrics interface {
	RecordRequest(endpoint, model string)
	RecordDuration(endpoint, model string, duration time.Duration)
	RecordTokens(endpoint, model string, tokensIn, tokensOut int)
	RecordCost(endpoint, model string, cost float64)
	RecordError(endpoint, model string, errType ErrorType)
	GetStats() Stats
}

// Stats contains aggregate call statistics.
type Stats struct {
	TotalRequests  int
	TotalTokensIn  int
	TotalTokensOut int
	TotalCost      float64
	TotalDuration  time.Duration
	ErrorCount     int
	ByEndpoint     map[string]EndpointStats
}

// EndpointStats contains per-endpoint statistics.
type EndpointStats struct {
	Requests  int
	TokensIn  int
	TokensOut int
	Cost      float64
	Duration  time.Duration
	Errors    int
}

// DefaultMetrics is an in-memory Metrics implementation safe for concurrent
// use from the parallel perspective pipelines.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates an empty metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{stats: Stats{ByEndpoint: make(map[string]EndpointStats)}}
}

// RecordRequest increments request counters.
func (m *DefaultMetrics) RecordRequest(endpoint, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalRequests++
	es := m.stats.ByEndpoint[endpoint]
	es.Requests++
	m.stats.ByEndpoint[endpoint] = es
}

// RecordDuration adds call duration.
func (m *DefaultMetrics) RecordDuration(endpoint, model string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalDuration += duration
	es := m.stats.ByEndpoint[endpoint]
	es.Duration += duration
	m.stats.ByEndpoint[endpoint] = es
}

// RecordTokens adds token usage.
func (m *DefaultMetrics) RecordTokens(endpoint, model string, tokensIn, tokensOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalTokensIn += tokensIn
	m.stats.TotalTokensOut += tokensOut
	es := m.stats.ByEndpoint[endpoint]
	es.TokensIn += tokensIn
	es.TokensOut += tokensOut
	m.stats.ByEndpoint[endpoint] = es
}

// RecordCost adds API cost.
func (m *DefaultMetrics) RecordCost(endpoint, model string, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalCost += cost
	es := m.stats.ByEndpoint[endpoint]
	es.Cost += cost
	m.stats.ByEndpoint[endpoint] = es
}

// RecordError increments error counters.
func (m *DefaultMetrics) RecordError(endpoint, model string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.ErrorCount++
	es := m.stats.ByEndpoint[endpoint]
	es.Errors++
	m.stats.ByEndpoint[endpoint] = es
}

// GetStats returns a snapshot of the current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := m.stats
	snapshot.ByEndpoint = make(map[string]EndpointStats, len(m.stats.ByEndpoint))
	for k, v := range m.stats.ByEndpoint {
		snapshot.ByEndpoint[k] = v
	}
	return snapshot
}
