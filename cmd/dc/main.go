package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"daycourt/internal/app"
	"daycourt/internal/cabinet"
	"daycourt/internal/cabinet/ministry"
	"daycourt/internal/config"
	"daycourt/internal/db"
	"daycourt/internal/domain"
	"daycourt/internal/engine"
	"daycourt/internal/migrate"
	"daycourt/internal/plan"
	"daycourt/internal/repo"
	"daycourt/internal/server"
	"daycourt/internal/suggest"
	"daycourt/internal/windows"
)

var rootCmd = &cobra.Command{
	Use:   "dc",
	Short: "Daycourt CLI",
	Long: `Daycourt runs one day at a time: a single directive, a cabinet consultation, and a plan with guaranteed breathing room.
Core concepts (kid-friendly):
- Why it matters: one directive per day stops the todo-list avalanche; the cabinet argues about it before you commit, and the plan always keeps free space.
- Workspace: your .daycourt toy box with only the database; configs are stored in the DB and imported explicitly.
- Court: the one household inside that box that owns directives, plans, and the event log.
- Directive: today's one marching order; it flows pending -> issued -> executing -> completed (cancelled is the exit).
- Cabinet: seven ministries (treasury, vitality, cognition, chronos, kinship, spirit, works) that each score the directive; big disagreements go to arbitration.
- Plan: the day's time blocks, synthesized around the directive; at least 40%% of the day stays unallocated, always.
- Checkpoints: five daily refinements (morning, midday, afternoon, evening, night) that reorder what's left instead of replanning.
- Event log: diary of changes, view with 'dc log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DAYCOURT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("court", "", "court id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("court", rootCmd.PersistentFlags().Lookup("court"))
}

func registerCommands() {
	rootCmd.AddCommand(courtCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(issueCmd())
	rootCmd.AddCommand(consultCmd())
	rootCmd.AddCommand(beginCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func courtCmd() *cobra.Command {
	court := &cobra.Command{Use: "court", Short: "Manage courts"}
	court.AddCommand(courtCreateCmd())
	court.AddCommand(courtUseCmd())
	return court
}

func courtCreateCmd() *cobra.Command {
	var id, desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create court",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg := config.Default(id)
			e := engine.New(conn, cfg)
			if err := e.InitCourt(cmd.Context(), id, desc, viper.GetString("actor-id")); err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "court id")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func courtUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set current court for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courtID := strings.TrimSpace(args[0])
			if courtID == "" {
				return fmt.Errorf("court id is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "DAYCOURT_COURT", courtID); err != nil {
				return err
			}
			fmt.Printf("Set DAYCOURT_COURT=%s in %s/.env\n", courtID, workspace)
			return nil
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect court config",
		Long:  "Config is the rulebook (stored in DB): capacities, principle catalog, day structure, and canonical windows. Import from daycourt.yml if desired.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configImportCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import court config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			courtID := cfg.Court.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if courtID == "" {
					courtID = e.Config.Court.ID
				}
				if err := e.Repo.UpsertCourtConfig(ctx, courtID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func statusCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show court status for a date",
		Long:  "See where the day stands: the directive and its state, and the plan's block count and free space.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				out := map[string]any{
					"court_id": e.Config.Court.ID,
					"period":   e.Config.PeriodOrDefault(),
					"date":     date,
				}
				d, derr := e.Repo.LatestDirectiveByDate(ctx, date)
				var coherence float64
				if derr == nil {
					out["directive"] = d
					cab := cabinet.New()
					if err := ministry.RegisterAll(cab, e.Config.Capacities, e.Config.PeriodOrDefault()); err != nil {
						return err
					}
					report := cab.Consult(ctx, d)
					coherence = report.GlobalCoherence
					out["cabinet_coherence"] = coherence
				} else if !errors.Is(derr, repo.ErrNotFound) {
					return derr
				}
				p, perr := e.Repo.GetPlan(ctx, date)
				if perr == nil {
					out["plan"] = map[string]any{
						"blocks":             len(p.Blocks),
						"free_space_percent": p.FreeSpacePercent,
						"revision":           p.Revision,
					}
				} else if !errors.Is(perr, repo.ErrNotFound) {
					return perr
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("Court: %s (%s) %s\n", e.Config.Court.ID, e.Config.PeriodOrDefault(), date)
				if derr == nil {
					fmt.Printf("Directive: %s [%s]\n", d.Action, d.State)
					fmt.Printf("Cabinet coherence: %.1f\n", coherence)
				} else {
					fmt.Println("Directive: none")
				}
				if perr == nil {
					fmt.Printf("Plan: %d blocks, %.1f%% free (rev %d)\n", len(p.Blocks), p.FreeSpacePercent, p.Revision)
				} else {
					fmt.Println("Plan: none")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func issueCmd() *cobra.Command {
	var opts engine.IssueOptions
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue the day's directive",
		Long:  "Issue today's one marching order. With --validate the action is scored against the principle catalog first; the score annotates the directive but never blocks it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, created, err := e.Issue(ctx, opts)
				if err != nil {
					return err
				}
				if !created && !viper.GetBool("json") {
					fmt.Printf("directive already %s for %s\n", d.State, d.Date)
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.Period, "period", "", "period (ordinary, advent, christmas, lent, easter)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "the day's direction")
	cmd.Flags().StringVar(&opts.Action, "action", "", "the day's action")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "score against the principle catalog")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func consultCmd() *cobra.Command {
	var date string
	var open bool
	cmd := &cobra.Command{
		Use:   "consult",
		Short: "Fan the directive out to the cabinet",
		Long:  "Every ministry scores the directive in parallel; a failing ministry is reported as degraded rather than sinking the consultation. With --open a pending directive is recorded when none exists yet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				d, err := e.Repo.LatestDirectiveByDate(ctx, date)
				if errors.Is(err, repo.ErrNotFound) && open {
					d, err = e.OpenConsultation(ctx, date, viper.GetString("actor-id"))
				}
				if err != nil {
					return err
				}
				cab := cabinet.New()
				if err := ministry.RegisterAll(cab, e.Config.Capacities, e.Config.PeriodOrDefault()); err != nil {
					return err
				}
				report := cab.Consult(ctx, d)
				if viper.GetBool("json") {
					return printJSON(map[string]any{"directive": d, "cabinet": report})
				}
				fmt.Printf("Directive: %s [%s]\n", d.Action, d.State)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Ministry", "Score", "Tier", "Warnings"})
				ids := make([]string, 0, len(report.Reports))
				for id := range report.Reports {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					mr := report.Reports[id]
					if mr.Error != "" {
						tw.AppendRow(table.Row{id, "-", "degraded", mr.Error})
						continue
					}
					tw.AppendRow(table.Row{id, fmt.Sprintf("%.1f", mr.Response.Score), mr.Response.Category, strings.Join(mr.Response.Warnings, "; ")})
				}
				tw.Render()
				fmt.Printf("Coherence: %.1f (%d active)\n", report.GlobalCoherence, report.ActiveMinistries)
				if report.Coordination.Type == "arbitration" {
					fmt.Println("Arbitration:")
					for _, s := range report.Coordination.Suggestions {
						fmt.Printf("  - %s\n", s)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&open, "open", false, "open a pending directive when none exists")
	return cmd
}

func beginCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Begin executing the day's directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.BeginExecution(ctx, date, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func completeCmd() *cobra.Command {
	var date, notes string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete the day's directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.CompleteExecution(ctx, date, notes, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	return cmd
}

func verifyCmd() *cobra.Command {
	var date, narrative, wisdom string
	var score float64
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Record the judicial verification for a date",
		Long:  "The evening look back: score the day 0..100, tell the story, and keep one piece of wisdom for future days.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.RecordVerification(ctx, date, score, narrative, wisdom, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&score, "score", 0, "verification score 0..100")
	cmd.Flags().StringVar(&narrative, "narrative", "", "what happened")
	cmd.Flags().StringVar(&wisdom, "wisdom", "", "lesson to keep")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func cancelCmd() *cobra.Command {
	var date, reason string
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the day's directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.Cancel(ctx, date, reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func planCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "plan",
		Short: "Manage day plans",
		Long:  "The plan wraps the directive in time blocks: the primary action, routines, and recovery slots. At least the configured free-space floor of the day stays unallocated; overcommitment shrinks flexible blocks proportionally.",
	}
	p.AddCommand(planSynthCmd())
	p.AddCommand(planShowCmd())
	p.AddCommand(planRefineCmd())
	p.AddCommand(planAddBlockCmd())
	return p
}

func planSynthCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize and store the day plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				d, err := e.Repo.LatestDirectiveByDate(ctx, date)
				if err != nil {
					return err
				}
				cab := cabinet.New()
				if err := ministry.RegisterAll(cab, e.Config.Capacities, e.Config.PeriodOrDefault()); err != nil {
					return err
				}
				report := cab.Consult(ctx, d)
				planner := buildPlanner(e.Config)
				dayPlan, err := planner.Synthesize(ctx, d, report)
				if err != nil {
					return err
				}
				store := plan.NewStore(e.DB, e.Config)
				saved, err := store.Save(ctx, dayPlan, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printPlan(saved)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func planShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				p, err := e.Repo.GetPlan(ctx, date)
				if err != nil {
					return err
				}
				return printPlan(p)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func planRefineCmd() *cobra.Command {
	var date, checkpoint string
	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Apply a daily checkpoint to the stored plan",
		Long:  "Checkpoints reorder what is left instead of replanning: morning fronts the hard work, midday splits done from remaining, afternoon holds steady, evening winds down, night closes the day.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				store := plan.NewStore(e.DB, e.Config)
				p, outcome, err := store.Refine(ctx, date, plan.Checkpoint(checkpoint), viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"plan": p, "next_cycle_due": outcome.NextCycleDue, "closed": outcome.Closed})
				}
				if outcome.Closed {
					fmt.Println("day closed")
				}
				if outcome.NextCycleDue {
					fmt.Println("next cycle due: issue tomorrow's directive")
				}
				return printPlan(p)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "morning, midday, afternoon, evening or night")
	_ = cmd.MarkFlagRequired("checkpoint")
	return cmd
}

func planAddBlockCmd() *cobra.Command {
	var date, start, duration, activity string
	var energy int
	var flexible bool
	cmd := &cobra.Command{
		Use:   "add-block",
		Short: "Append a manual block to the stored plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if date == "" {
					date = time.Now().UTC().Format("2006-01-02")
				}
				store := plan.NewStore(e.DB, e.Config)
				p, err := store.AddBlock(ctx, date, domain.TimeBlock{
					Start:    start,
					Duration: duration,
					Activity: activity,
					Role:     "manual",
					Energy:   energy,
					Flexible: flexible,
				}, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printPlan(p)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&duration, "duration", "", "duration (e.g. 1h, 45min)")
	cmd.Flags().StringVar(&activity, "activity", "", "what the block is for")
	cmd.Flags().IntVar(&energy, "energy", 3, "energy demand 1..5")
	cmd.Flags().BoolVar(&flexible, "flexible", true, "block may shrink under reduction")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: directives issued, plans synthesized, checkpoints applied.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var date string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.ListEvents(ctx, date, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&date, "date", "", "date filter (YYYY-MM-DD)")
	return cmd
}

func apikeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	key.AddCommand(apikeyListCmd())
	key.AddCommand(apikeyDeleteCmd())
	return key
}

func apikeyListCmd() *cobra.Command {
	var actorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				for i := range items {
					items[i].KeyHash = ""
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor filter")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveCourtAndConfig(cmd.Context(), viper.GetString("court"), viper.GetString("actor-id"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			cab := cabinet.New()
			if err := ministry.RegisterAll(cab, cfg.Capacities, cfg.PeriodOrDefault()); err != nil {
				return err
			}
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("DAYCOURT_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				fmt.Println("DAYCOURT_JWT_SECRET not set; serving in local mode (requests act as the local actor)")
			}
			handler, err := server.New(server.Config{
				Engine:   e,
				Cabinet:  cab,
				Planner:  buildPlanner(cfg),
				Plans:    plan.NewStore(conn, cfg),
				BasePath: basePath,
				Auth:     authCfg,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Daycourt API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func buildPlanner(cfg *config.Config) plan.Synthesizer {
	planner := plan.Synthesizer{
		Windows: windows.FromConfig(cfg),
		Config:  cfg,
	}
	if cfg.Suggest.Endpoint != "" {
		planner.Suggest = suggest.HTTP{
			Endpoint: cfg.Suggest.Endpoint,
			Timeout:  time.Duration(cfg.Suggest.TimeoutSeconds) * time.Second,
		}
	}
	return planner
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveCourtAndConfig(ctx, viper.GetString("court"), viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func printPlan(p domain.DayPlan) error {
	if viper.GetBool("json") {
		return printJSON(p)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Start", "Duration", "Activity", "Role", "Energy", "Flex"})
	for _, b := range p.Blocks {
		flex := ""
		if b.Flexible {
			flex = "yes"
		}
		tw.AppendRow(table.Row{b.Start, b.Duration, b.Activity, b.Role, b.Energy, flex})
	}
	tw.Render()
	fmt.Printf("Free space: %.1f%% (rev %d)\n", p.FreeSpacePercent, p.Revision)
	for _, cp := range p.Checkpoints {
		fmt.Printf("Checkpoint %s: %s\n", cp.Name, cp.Prompt)
	}
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
