package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zbeam/zbeam/internal/config"
	"github.com/zbeam/zbeam/internal/detect"
	"github.com/zbeam/zbeam/internal/errors"
	"github.com/zbeam/zbeam/internal/export"
	"github.com/zbeam/zbeam/internal/feedback"
	"github.com/zbeam/zbeam/internal/llm"
	"github.com/zbeam/zbeam/internal/orchestrator"
	"github.com/zbeam/zbeam/internal/store"
	"github.com/zbeam/zbeam/internal/tuner"
	"github.com/zbeam/zbeam/internal/voice"
)

// appEnv bundles the wiring every subcommand shares. The client and detector
// are nil until a command needs them; tests and --dry-run inject scripted
// implementations instead.
type appEnv struct {
	cfg      *config.Config
	store    *store.Store
	voices   *voice.Registry
	db       *sql.DB
	attempts *feedback.Log
	spots    *feedback.SweetSpots

	client   llm.Client
	detector detect.Detector
	rng      tuner.RandomSource

	out io.Writer
}

func (e *appEnv) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "zbeam",
		Usage:   "Adaptive content generation for laser-cleaning materials",
		Version: Version,
		Commands: []*cli.Command{
			generateCmd(env),
			batchCmd(env),
			recommendCmd(env),
			inspectCmd(env),
			exportCmd(env),
			logCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// generateCmd creates the generate command.
func generateCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate one component for one material through the retry loop",
		ArgsUsage: "<material>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "component", Aliases: []string{"c"}, Required: true, Usage: "Component type (subtitle|description|caption|faq|safety)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Use a scripted model and detector instead of live APIs"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one material name is required"))
			}

			o, err := buildOrchestrator(env, c.Bool("dry-run"))
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := commandContext(env)
			defer cancel()
			result, err := o.Generate(ctx, c.Args().First(), c.String("component"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.out, result)
		},
	}
}

// batchCmd creates the batch command.
func batchCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Generate one component for several materials with shared detector calls",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "component", Aliases: []string{"c"}, Required: true, Usage: "Component type"},
			&cli.StringFlag{Name: "materials", Aliases: []string{"m"}, Usage: "Comma-separated material names"},
			&cli.BoolFlag{Name: "all", Usage: "Process every material in the document"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Use a scripted model and detector instead of live APIs"},
		},
		Action: func(c *cli.Context) error {
			var materials []string
			switch {
			case c.Bool("all"):
				materials = env.store.Items()
			case c.String("materials") != "":
				materials = parseList(c.String("materials"))
			default:
				return outputError(errors.NewInvalidRequest("either --materials or --all is required"))
			}

			client, detector := env.client, env.detector
			if c.Bool("dry-run") {
				client, detector = dryRunBatchClients(materials)
			}
			o, err := buildOrchestratorWith(env, client, detector)
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := commandContext(env)
			defer cancel()
			result, err := orchestrator.NewBatchGenerator(o).Generate(ctx, materials, c.String("component"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.out, result)
		},
	}
}

// recommendCmd creates the recommend command.
func recommendCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Show the sweet-spot parameter recommendation for a component type",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "component", Aliases: []string{"c"}, Required: true, Usage: "Component type"},
			&cli.BoolFlag{Name: "rebuild", Usage: "Rebuild the recommendation from attempt history first"},
			&cli.StringFlag{Name: "scores", Usage: "Subjective 0-10 review scores to fold in, e.g. clarity=4.5,engagement=8"},
		},
		Action: func(c *cli.Context) error {
			componentType := c.String("component")

			sampleSize := 0
			if c.Bool("rebuild") {
				n, err := env.spots.Rebuild(componentType)
				if err != nil {
					return outputError(err)
				}
				sampleSize = n
			}

			params, stored, err := env.spots.Recommendation(componentType)
			if err != nil {
				return outputError(err)
			}
			if params == nil {
				base := tuner.Baseline(componentType)
				params = &base
			} else {
				sampleSize = stored
			}

			if raw := c.String("scores"); raw != "" {
				scores, err := parseScores(raw)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				adjusted := tuner.Subjective(*params, scores)
				params = &adjusted
			}

			return outputJSON(env.out, map[string]any{
				"component_type": componentType,
				"params":         params,
				"sample_size":    sampleSize,
			})
		},
	}
}

// inspectCmd creates the inspect command.
func inspectCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show a material's data, resolved author, and prompt context",
		ArgsUsage: "<material>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one material name is required"))
			}
			name := c.Args().First()

			item, err := env.store.ItemData(name)
			if err != nil {
				return outputError(err)
			}

			authorID := store.AuthorID(name, item, env.voices.PoolSize())
			profile, err := env.voices.Get(authorID)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(env.out, map[string]any{
				"material":  name,
				"author_id": authorID,
				"author":    profile.Name,
				"context":   store.BuildContext(item),
				"facts":     store.FormatFacts(item),
				"data":      item,
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export materials as Markdown files with YAML frontmatter",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Required: true, Usage: "Destination directory"},
			&cli.StringFlag{Name: "materials", Aliases: []string{"m"}, Usage: "Comma-separated material names (default: all)"},
			&cli.BoolFlag{Name: "preview", Usage: "Also write an HTML preview per file"},
		},
		Action: func(c *cli.Context) error {
			output, err := export.Export(env.store, export.Input{
				Dir:       c.String("dir"),
				Materials: parseList(c.String("materials")),
				Preview:   c.Bool("preview"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.out, output)
		},
	}
}

// logCmd creates the log command and its subcommands.
func logCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Inspect the attempt history",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show the trailing success rate and curriculum stage",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "component", Aliases: []string{"c"}, Required: true, Usage: "Component type"},
					&cli.IntFlag{Name: "days", Value: 30, Usage: "Trailing window in days"},
				},
				Action: func(c *cli.Context) error {
					window := time.Duration(c.Int("days")) * 24 * time.Hour
					successes, total, err := env.attempts.SuccessRate(c.String("component"), window)
					if err != nil {
						return outputError(err)
					}

					rate := 0.0
					if total > 0 {
						rate = float64(successes) / float64(total)
					}
					threshold, band := orchestrator.ThresholdFor(env.cfg.Generation.AcceptanceThreshold, successes, total)

					return outputJSON(env.out, map[string]any{
						"component_type": c.String("component"),
						"window_days":    c.Int("days"),
						"successes":      successes,
						"total":          total,
						"success_rate":   rate,
						"threshold":      threshold,
						"band":           band,
					})
				},
			},
		},
	}
}

// buildOrchestrator wires the generation loop, building live API clients
// unless scripted ones are already injected or --dry-run asked for fakes.
func buildOrchestrator(env *appEnv, dryRun bool) (*orchestrator.Orchestrator, error) {
	client, detector := env.client, env.detector
	if dryRun {
		client, detector = dryRunClients()
	}
	return buildOrchestratorWith(env, client, detector)
}

// buildOrchestratorWith fills in live API clients for any nil collaborator.
func buildOrchestratorWith(env *appEnv, client llm.Client, detector detect.Detector) (*orchestrator.Orchestrator, error) {
	if client == nil {
		apiKey := os.Getenv(env.cfg.Generation.APIKeyEnv)
		real, err := llm.NewOpenAIClient(env.cfg.Generation.Model, env.cfg.Generation.BaseURL, apiKey)
		if err != nil {
			return nil, err
		}
		client = real
	}
	if detector == nil {
		apiKey := os.Getenv(env.cfg.Detector.APIKeyEnv)
		real, err := detect.NewWinstonClient(
			env.cfg.Detector.Endpoint,
			apiKey,
			env.cfg.Detector.MinLength,
			time.Duration(env.cfg.Detector.TimeoutSeconds)*time.Second,
		)
		if err != nil {
			return nil, err
		}
		detector = real
	}

	return orchestrator.New(orchestrator.Deps{
		Store:      env.store,
		Voices:     env.voices,
		Client:     client,
		Detector:   detector,
		Attempts:   env.attempts,
		SweetSpots: env.spots,
		Config:     env.cfg,
		RNG:        env.rng,
	})
}

// dryRunText is the canned model output used by --dry-run.
const dryRunText = "Pulsed fiber lasers strip oxide and paint without touching the base metal. " +
	"Operators tune fluence per material so the surface stays dimensionally intact. " +
	"Most shops report faster turnaround than abrasive blasting on comparable parts."

// dryRunClients returns a scripted model and detector pair that always
// accepts, for exercising the pipeline without API keys.
func dryRunClients() (llm.Client, detect.Detector) {
	client := &llm.ScriptedClient{Responses: []string{dryRunText}}
	detector := &detect.ScriptedDetector{Results: []detect.Result{
		{AIScore: 0.10, HumanScore: 90},
	}}
	return client, detector
}

// dryRunBatchClients wraps the canned output in per-material markers so the
// batch parser finds a section for every requested material.
func dryRunBatchClients(materials []string) (llm.Client, detect.Detector) {
	var sb strings.Builder
	for _, m := range materials {
		fmt.Fprintf(&sb, "[MATERIAL: %s]\n%s\n[/MATERIAL: %s]\n", m, dryRunText, m)
	}
	client := &llm.ScriptedClient{Responses: []string{sb.String()}}
	detector := &detect.ScriptedDetector{Results: []detect.Result{
		{AIScore: 0.10, HumanScore: 90},
	}}
	return client, detector
}

// commandContext bounds a command by the configured generation timeout times
// the attempt cap, so a stalled provider cannot hang the CLI forever.
func commandContext(env *appEnv) (context.Context, context.CancelFunc) {
	timeout := time.Duration(env.cfg.Generation.TimeoutSeconds) * time.Second
	return context.WithTimeout(context.Background(), timeout*time.Duration(env.cfg.Generation.MaxAttempts+1))
}

// Helper functions

// outputJSON marshals result to the command's writer as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if zErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", zErr.Code, zErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseList splits a comma-separated string, trimming blanks.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseScores parses "clarity=4.5,engagement=8" into a Scores struct.
func parseScores(s string) (tuner.Scores, error) {
	var scores tuner.Scores
	for _, pair := range strings.Split(s, ",") {
		key, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return scores, fmt.Errorf("invalid score %q, want name=value", pair)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil || val < 0 || val > 10 {
			return scores, fmt.Errorf("invalid score value %q, want 0-10", raw)
		}
		switch key {
		case "clarity":
			scores.Clarity = val
		case "professionalism":
			scores.Professionalism = val
		case "technical_accuracy":
			scores.TechnicalAccuracy = val
		case "human_likeness":
			scores.HumanLikeness = val
		case "engagement":
			scores.Engagement = val
		case "jargon_free":
			scores.JargonFree = val
		default:
			return scores, fmt.Errorf("unknown score dimension %q", key)
		}
	}
	return scores, nil
}
