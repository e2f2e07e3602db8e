package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/ingest"
	"github.com/amara-obi/designweek/internal/llm"
	"github.com/amara-obi/designweek/internal/pipeline"
	"github.com/amara-obi/designweek/internal/profiles"
	"github.com/amara-obi/designweek/internal/repository"
	"github.com/amara-obi/designweek/internal/status"
)

// The CLI runs in single-binary mode: it opens the store directly and runs
// extraction inline rather than handing jobs to a daemon.

type app struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *sql.DB
	store  *repository.Store
}

// syncRunner executes jobs inline. It satisfies the pipeline's queue
// contract so retried jobs start immediately.
type syncRunner struct{ orch *pipeline.Orchestrator }

func (r *syncRunner) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	return r.orch.Start(ctx, jobID)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	a := &app{logger: logger}

	root := &cobra.Command{
		Use:           "designweek",
		Short:         "Design-week artifact extraction and profile views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			db, err := repository.Open(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			if err := repository.Migrate(cmd.Context(), db); err != nil {
				_ = db.Close()
				return err
			}
			a.db = db
			a.store = repository.NewSQLStore(db, logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				repository.Close(a.db, logger)
			}
		},
	}

	root.AddCommand(
		newEngagementCmd(a),
		newIngestCmd(a),
		newStatusCmd(a),
		newWatchCmd(a),
		newRetryCmd(a),
		newCancelCmd(a),
		newProfileCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) orchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	extractor, err := llm.NewGeminiExtractor(ctx, a.cfg.LLM, a.logger)
	if err != nil {
		return nil, err
	}
	orch := pipeline.NewOrchestrator(a.store, extractor, a.logger)
	orch.SetQueue(&syncRunner{orch: orch})
	return orch, nil
}

func newEngagementCmd(a *app) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "engagement",
		Short: "Create an engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			if company == "" {
				return fmt.Errorf("--company is required")
			}
			now := time.Now().UTC()
			eng := &entity.Engagement{
				ID:          uuid.New(),
				CompanyName: company,
				Status:      constants.EngagementNotStarted,
				Phase:       0,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := a.store.Engagements.Create(cmd.Context(), eng); err != nil {
				return err
			}
			return printJSON(eng)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var hint string
	cmd := &cobra.Command{
		Use:   "ingest <engagement-id> <file>",
		Short: "Ingest an artifact and run extraction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engagementID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid engagement id: %w", err)
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			svc := ingest.NewService(a.store, &syncRunner{orch: orch}, a.logger)
			receipt, err := svc.Accept(cmd.Context(), ingest.AcceptRequest{
				EngagementID: engagementID,
				ArtifactName: args[1],
				Content:      string(content),
				CategoryHint: hint,
			})
			if err != nil {
				return err
			}
			return printJSON(receipt)
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "declared content category")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}
			ch := status.NewChannel(a.store.Jobs, a.cfg.Status.PollInterval, a.logger)
			snap, err := ch.Get(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Stream a job's state until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}
			ch := status.NewChannel(a.store.Jobs, a.cfg.Status.PollInterval, a.logger)
			updates, err := ch.Watch(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			for snap := range updates {
				if err := printJSON(snap); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newRetryCmd(a *app) *cobra.Command {
	var fromStage string
	cmd := &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Retry a failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}
			orch, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			var stage *constants.JobStage
			if fromStage != "" {
				s := constants.JobStage(fromStage)
				stage = &s
			}
			receipt, err := orch.Retry(cmd.Context(), jobID, stage)
			if err != nil {
				return err
			}
			return printJSON(receipt)
		},
	}
	cmd.Flags().StringVar(&fromStage, "from-stage", "", "stage to resume from")
	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}
			orch := pipeline.NewOrchestrator(a.store, nil, a.logger)
			receipt, err := orch.Cancel(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return printJSON(receipt)
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	var kind string
	var regenerate, replace bool
	cmd := &cobra.Command{
		Use:   "profile <engagement-id>",
		Short: "Show or regenerate a profile view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engagementID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid engagement id: %w", err)
			}
			svc := profiles.NewService(a.store, a.logger)
			ctx := cmd.Context()

			switch kind {
			case "business":
				var p *entity.BusinessProfile
				var stats *entity.ProfileStats
				if regenerate {
					p, stats, err = svc.RegenerateBusiness(ctx, engagementID, replace)
				} else {
					p, stats, err = svc.Business(ctx, engagementID)
				}
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"profile": p, "stats": stats})
			case "technical":
				var p *entity.TechnicalProfile
				var stats *entity.ProfileStats
				if regenerate {
					p, stats, err = svc.RegenerateTechnical(ctx, engagementID, replace)
				} else {
					p, stats, err = svc.Technical(ctx, engagementID)
				}
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"profile": p, "stats": stats})
			case "test_plan":
				var p *entity.TestPlan
				var stats *entity.ProfileStats
				if regenerate {
					p, stats, err = svc.RegenerateTestPlan(ctx, engagementID, replace)
				} else {
					p, stats, err = svc.TestPlan(ctx, engagementID)
				}
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"plan":             p,
					"coverage_percent": profiles.CoveragePercent(p),
					"stats":            stats,
				})
			default:
				return fmt.Errorf("unknown profile kind %q", kind)
			}
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "business", "business, technical, or test_plan")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "recompute and save the profile")
	cmd.Flags().BoolVar(&replace, "replace", false, "discard saved edits when regenerating")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
