// Package cli wires the analysis engine, report writers, and run history
// behind a Cobra command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/FaridSuleymanov/sibyl/internal/store"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Analyzer defines the dependency required to run the analyze command.
type Analyzer interface {
	Analyze(ctx context.Context, req analyze.Request) (domain.AnalysisResult, error)
}

// HistoryLister reads back persisted runs for the history command.
type HistoryLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// ReportWriter persists one report artifact and returns its path.
type ReportWriter interface {
	Write(ctx context.Context, artifact domain.ReportArtifact) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Analyzer       Analyzer
	History        HistoryLister // nil when the store is disabled
	JSONWriter     ReportWriter
	MarkdownWriter ReportWriter
	Args           Arguments
	DefaultOutput  string
	Version        string

	// TotalCost reports the accumulated model cost for this process, in USD.
	// nil when metrics are disabled.
	TotalCost func() float64
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "sibyl",
		Short: "Multi-perspective situational analysis CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(analyzeCommand(deps))
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func analyzeCommand(deps Dependencies) *cobra.Command {
	var location string
	var envContextPath string
	var outputDir string
	var format string

	cmd := &cobra.Command{
		Use:   "analyze [query]",
		Short: "Run a multi-perspective analysis of a situation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			ctx := cmd.Context()

			env, err := loadEnvContext(envContextPath)
			if err != nil {
				return err
			}

			result, err := deps.Analyzer.Analyze(ctx, analyze.Request{
				Query:    query,
				Location: location,
				Env:      env,
			})
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), result)

			if deps.TotalCost != nil {
				if cost := deps.TotalCost(); cost > 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nEstimated model cost: $%.4f\n", cost)
				}
			}

			if format == "none" {
				return nil
			}

			artifact := domain.ReportArtifact{
				OutputDir: outputDir,
				RunID:     uuid.NewString(),
				Query:     query,
				Location:  location,
				Result:    result,
			}
			writers, err := resolveWriters(deps, format)
			if err != nil {
				return err
			}
			for _, writer := range writers {
				path, err := writer.Write(ctx, artifact)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			}
			return nil
		},
	}

	if deps.DefaultOutput == "" {
		deps.DefaultOutput = "out"
	}
	cmd.Flags().StringVar(&location, "location", "", "Location the query concerns")
	cmd.Flags().StringVar(&envContextPath, "env-context", "", "Path to a JSON file with pre-built environmental context")
	cmd.Flags().StringVar(&outputDir, "output", deps.DefaultOutput, "Directory to write report artifacts")
	cmd.Flags().StringVar(&format, "format", "markdown", "Report format: json, markdown, both, or none")

	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("run history is disabled; enable the store in configuration")
			}

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, run := range runs {
				_, _ = fmt.Fprintf(out, "%s  %s  %3d/100 %-7s %s\n",
					run.Timestamp.Format("2006-01-02 15:04"),
					shortID(run.RunID),
					run.SafetyCoefficient,
					run.ColorBand,
					run.Query,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// loadEnvContext reads an optional environmental-context JSON file. An empty
// path means no context.
func loadEnvContext(path string) (*domain.EnvironmentalContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env context: %w", err)
	}
	var env domain.EnvironmentalContext
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse env context: %w", err)
	}
	return &env, nil
}

func resolveWriters(deps Dependencies, format string) ([]ReportWriter, error) {
	switch format {
	case "json":
		return []ReportWriter{deps.JSONWriter}, nil
	case "markdown":
		return []ReportWriter{deps.MarkdownWriter}, nil
	case "both":
		return []ReportWriter{deps.JSONWriter, deps.MarkdownWriter}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json, markdown, both, or none)", format)
	}
}

// bandColors maps each color band to its ANSI escape, used only when stdout
// is a real terminal.
var bandColors = map[domain.ColorBand]string{
	domain.ColorGreen:  "\033[32m",
	domain.ColorYellow: "\033[33m",
	domain.ColorOrange: "\033[38;5;208m",
	domain.ColorRed:    "\033[31m",
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printSummary(out io.Writer, result domain.AnalysisResult) {
	verdict := result.Verdict

	band := string(verdict.ColorBand)
	if color, ok := bandColors[verdict.ColorBand]; ok && isTerminal(out) {
		band = color + band + "\033[0m"
	}

	_, _ = fmt.Fprintf(out, "Safety coefficient: %d/100 [%s]\n", verdict.SafetyCoefficient, band)
	_, _ = fmt.Fprintf(out, "Escalation risk (24h): %d/100\n", verdict.EscalationRisk24h)
	_, _ = fmt.Fprintf(out, "Dominant threat: %s\n\n", verdict.DominantThreat)
	_, _ = fmt.Fprintln(out, verdict.ExecutiveSummary)
	_, _ = fmt.Fprintf(out, "\nVerdict: %s\n", verdict.FinalVerdict)

	if len(result.Errors) > 0 {
		_, _ = fmt.Fprintf(out, "\nDegradations (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			_, _ = fmt.Fprintf(out, "  - %s\n", e)
		}
	}
}
