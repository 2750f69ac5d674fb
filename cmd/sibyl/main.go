package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/adapter/cli"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/anthropic"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/gemini"
	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/ollama"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/openai"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/static"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/observability"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/output/json"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/output/markdown"
	storeAdapter "github.com/FaridSuleymanov/sibyl/internal/adapter/store"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/store/sqlite"
	"github.com/FaridSuleymanov/sibyl/internal/config"
	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/FaridSuleymanov/sibyl/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "sibyl",
		EnvPrefix:   "SIBYL",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obs := buildObservability(cfg.Observability)

	var engineLogger analyze.Logger
	if obs.logger != nil {
		engineLogger = observability.NewEngineLogger(obs.logger)
	}

	cores, err := buildCores(cfg, obs)
	if err != nil {
		return err
	}
	judge, err := buildCompleter(cfg.Judge, cfg.HTTP, obs)
	if err != nil {
		return fmt.Errorf("judge endpoint: %w", err)
	}
	synthesis, err := buildCompleter(cfg.Synthesis, cfg.HTTP, obs)
	if err != nil {
		return fmt.Errorf("synthesis endpoint: %w", err)
	}

	// Initialize store if enabled; failures degrade to no history.
	var engineStore analyze.Store
	var history cli.HistoryLister
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				engineStore = storeAdapter.NewBridge(sqliteStore)
				history = sqliteStore
				defer engineStore.Close()
			}
		}
	}

	engine, err := analyze.NewEngine(analyze.Deps{
		Cores:     cores,
		Judge:     judge,
		Synthesis: synthesis,
		Logger:    engineLogger,
		Store:     engineStore,
	}, engineConfig(cfg.Engine))
	if err != nil {
		return fmt.Errorf("engine setup failed: %w", err)
	}

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	var totalCost func() float64
	if obs.metrics != nil {
		metrics := obs.metrics
		totalCost = func() float64 { return metrics.GetStats().TotalCost }
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Analyzer:       engine,
		History:        history,
		JSONWriter:     json.NewWriter(nowFunc),
		MarkdownWriter: markdown.NewWriter(nowFunc),
		DefaultOutput:  cfg.Output.Directory,
		Version:        version.Value(),
		TotalCost:      totalCost,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sibyl"))
	}
	return paths
}

// engineConfig translates the string durations from configuration into the
// engine's typed settings. Invalid durations fall back to the defaults.
func engineConfig(cfg config.EngineConfig) analyze.Config {
	def := analyze.DefaultConfig()

	out := analyze.Config{
		MaxAttempts:       cfg.MaxAttempts,
		GenerationTimeout: parseDurationOr(cfg.GenerationTimeout, def.GenerationTimeout),
		JudgeTimeout:      parseDurationOr(cfg.JudgeTimeout, def.JudgeTimeout),
		SynthesisTimeout:  parseDurationOr(cfg.SynthesisTimeout, def.SynthesisTimeout),
	}
	return out
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("warning: invalid duration %q, using default %s", value, fallback)
		return fallback
	}
	return d
}

func buildCores(cfg config.Config, obs observabilityComponents) ([domain.PerspectiveCount]analyze.Completer, error) {
	bindings := [domain.PerspectiveCount]config.EndpointConfig{
		domain.PerspectiveTactical:      cfg.Perspectives.Tactical,
		domain.PerspectiveEnvironmental: cfg.Perspectives.Environmental,
		domain.PerspectiveStrategic:     cfg.Perspectives.Strategic,
	}

	var cores [domain.PerspectiveCount]analyze.Completer
	for i, p := range domain.Perspectives() {
		client, err := buildCompleter(bindings[i], cfg.HTTP, obs)
		if err != nil {
			return cores, fmt.Errorf("%s endpoint: %w", p.Name(), err)
		}
		cores[i] = client
	}
	return cores, nil
}

// observableClient is the shared shape of the provider HTTP clients.
type observableClient interface {
	analyze.Completer
	SetLogger(llmhttp.Logger)
	SetMetrics(llmhttp.Metrics)
	SetPricing(llmhttp.Pricing)
}

func buildCompleter(ep config.EndpointConfig, httpCfg config.HTTPConfig, obs observabilityComponents) (analyze.Completer, error) {
	if ep.Provider == "static" {
		return static.NewClient(ep.Model), nil
	}
	if ep.Model == "" {
		return nil, fmt.Errorf("provider %q has no model configured", ep.Provider)
	}
	// Ollama talks to a local server and needs no key.
	if ep.APIKey == "" && ep.Provider != "ollama" {
		return nil, fmt.Errorf("provider %q has no API key configured (set it in config or via environment)", ep.Provider)
	}

	var client observableClient
	switch ep.Provider {
	case "anthropic":
		client = anthropic.NewClient(ep, httpCfg)
	case "openai":
		client = openai.NewClient(ep, httpCfg)
	case "gemini":
		client = gemini.NewClient(ep, httpCfg)
	case "ollama":
		client = ollama.NewClient(ep, httpCfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai, gemini, ollama, or static)", ep.Provider)
	}

	if obs.logger != nil {
		client.SetLogger(obs.logger)
	}
	if obs.metrics != nil {
		client.SetMetrics(obs.metrics)
	}
	if obs.pricing != nil {
		client.SetPricing(obs.pricing)
	}
	return client, nil
}

// observabilityComponents holds shared observability instances.
type observabilityComponents struct {
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
	pricing llmhttp.Pricing
}

func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var logger llmhttp.Logger
	var metrics llmhttp.Metrics

	if cfg.Logging.Enabled {
		logLevel := llmhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmhttp.LogLevelDebug
		case "error":
			logLevel = llmhttp.LogLevelError
		}

		logFormat := llmhttp.LogFormatHuman
		if cfg.Logging.Format == "json" {
			logFormat = llmhttp.LogFormatJSON
		}

		logger = llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
	}

	if cfg.Metrics.Enabled {
		metrics = llmhttp.NewDefaultMetrics()
	}

	return observabilityComponents{
		logger:  logger,
		metrics: metrics,
		pricing: llmhttp.NewDefaultPricing(),
	}
}
