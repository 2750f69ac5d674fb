package analyze

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/google/uuid"
)

// Deps captures the collaborators for the engine. Clients are injected, not
// constructed at process scope, so tests run against fakes.
type Deps struct {
	// Cores binds each perspective to its model endpoint, indexed by
	// Perspective.
	Cores [domain.PerspectiveCount]Completer

	// Judge is the fast secondary model shared by every validation call.
	Judge Completer

	// Synthesis is the larger-context model producing the final verdict.
	Synthesis Completer

	Logger Logger           // optional
	Store  Store            // optional: analysis history
	Now    func() time.Time // optional: clock for store records
}

// Config tunes the retry and deadline discipline.
type Config struct {
	MaxAttempts       int           // total generation attempts per core and per synthesis
	GenerationTimeout time.Duration // budget for one perspective-core call
	JudgeTimeout      time.Duration // budget for one judge call
	SynthesisTimeout  time.Duration // budget for one synthesis call
}

// DefaultConfig returns the standard attempt ceiling and call budgets.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		GenerationTimeout: 30 * time.Second,
		JudgeTimeout:      15 * time.Second,
		SynthesisTimeout:  30 * time.Second,
	}
}

// Request is one inbound analysis request. Query must be non-empty after
// trimming; the surrounding application enforces any upper length bound
// before calling in.
type Request struct {
	Query    string
	Location string
	Env      *domain.EnvironmentalContext
}

// Engine runs the generate, validate, retry, synthesize flow.
type Engine struct {
	deps  Deps
	cfg   Config
	judge *judgeService
}

// NewEngine wires the engine. Zero config fields fall back to defaults.
func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	for _, p := range domain.Perspectives() {
		if deps.Cores[p] == nil {
			return nil, errors.New("every perspective core requires a model endpoint")
		}
	}
	if deps.Judge == nil {
		return nil, errors.New("judge endpoint is required")
	}
	if deps.Synthesis == nil {
		return nil, errors.New("synthesis endpoint is required")
	}

	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = def.GenerationTimeout
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = def.JudgeTimeout
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = def.SynthesisTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Engine{
		deps: deps,
		cfg:  cfg,
		judge: &judgeService{
			client:  deps.Judge,
			timeout: cfg.JudgeTimeout,
			logger:  deps.Logger,
		},
	}, nil
}

// Analyze runs one full advisory analysis. It returns an error only for an
// invalid request; every downstream degradation (core exhaustion, synthesis
// fallback) lands in the result's error list instead. The errors appear
// per-core in declaration order, then the synthesis entry if any.
func (e *Engine) Analyze(ctx context.Context, req Request) (domain.AnalysisResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.AnalysisResult{}, errors.New("query must be non-empty")
	}

	hasEnvContext := !req.Env.IsEmpty()
	prompt := BuildPrompt(query, req.Location, req.Env)

	cores, errs := e.fanOut(ctx, prompt, query, hasEnvContext)

	verdict, synthErr := e.synthesize(ctx, cores, query, req.Location, req.Env)
	if synthErr != "" {
		errs = append(errs, synthErr)
	}
	if errs == nil {
		errs = []string{}
	}

	result := domain.AnalysisResult{
		Cores:   cores,
		Verdict: verdict,
		Errors:  errs,
	}

	e.saveRun(ctx, req, result)
	return result, nil
}

// saveRun persists the run when a store is configured. History must never
// break an analysis, so failures are logged and dropped.
func (e *Engine) saveRun(ctx context.Context, req Request, result domain.AnalysisResult) {
	if e.deps.Store == nil {
		return
	}
	run := StoreRun{
		RunID:     uuid.NewString(),
		Timestamp: e.deps.Now(),
		Query:     strings.TrimSpace(req.Query),
		Location:  req.Location,
		Result:    result,
	}
	if err := e.deps.Store.SaveRun(ctx, run); err != nil {
		e.warn(ctx, "failed to save analysis run", map[string]interface{}{
			"runID": run.RunID,
			"error": err.Error(),
		})
	}
}

func (e *Engine) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.LogWarning(ctx, msg, fields)
	}
}

func (e *Engine) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.LogInfo(ctx, msg, fields)
	}
}
