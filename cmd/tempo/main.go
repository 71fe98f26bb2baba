// Command tempo walks AdsPower browser profiles through the Tempo testnet
// onboarding checklist and records progress in a Google Sheet.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ev28032024/TempoMetamask/pkg/adspower"
	"github.com/ev28032024/TempoMetamask/pkg/config"
	"github.com/ev28032024/TempoMetamask/pkg/journal"
	"github.com/ev28032024/TempoMetamask/pkg/models"
	"github.com/ev28032024/TempoMetamask/pkg/runner"
	"github.com/ev28032024/TempoMetamask/pkg/sheets"
)

const logFile = "tempo_automation.log"

func main() {
	var (
		configPath  string
		serial      int
		all         bool
		parallelism int
		dryRun      bool
		force       bool
	)

	root := &cobra.Command{
		Use:   "tempo",
		Short: "Prepare AdsPower profiles on the Tempo testnet",
		Long: `Walks each profile through the onboarding checklist (add funds,
set fee token, say GM) and records per-step progress in the profile sheet.
Profiles already marked Ready are skipped, so reruns only do remaining work.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.RunRequest{
				Target:       models.TargetPending,
				Force:        force,
				Parallelism:  parallelism,
				DryRun:       dryRun,
				SerialNumber: serial,
			}
			switch {
			case serial > 0 && all:
				return fmt.Errorf("--profile and --all are mutually exclusive")
			case serial > 0:
				req.Target = models.TargetSingle
			case all:
				req.Target = models.TargetAll
			}
			return run(cmd.Context(), configPath, req)
		},
	}

	root.Flags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")
	root.Flags().IntVarP(&serial, "profile", "p", 0, "process a single profile by serial number")
	root.Flags().BoolVar(&all, "all", false, "process every profile, including Ready ones")
	root.Flags().IntVarP(&parallelism, "parallel", "n", 0, "max concurrent profiles (default from config)")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "report planned steps without opening browsers")
	root.Flags().BoolVar(&force, "force", false, "re-run steps already marked OK")

	root.AddCommand(newHistoryCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, req models.RunRequest) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if req.Parallelism <= 0 {
		req.Parallelism = cfg.Run.MaxParallel
	}

	ads := adspower.New(cfg.AdsPower.APIURL, cfg.AdsPower.APIKey, log)
	if err := ads.CheckConnection(ctx); err != nil {
		return fmt.Errorf("AdsPower is not reachable at %s: %w", cfg.AdsPower.APIURL, err)
	}

	store, err := sheets.New(ctx, cfg.Sheets, log)
	if err != nil {
		return err
	}

	records, err := store.LoadProfiles(ctx)
	if err != nil {
		return err
	}

	selected, err := runner.Select(records, req)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		log.Info("nothing to do, all selected profiles are ready")
		return nil
	}
	log.Info("starting run",
		zap.Int("profiles", len(selected)),
		zap.String("target", string(req.Target)),
		zap.Int("parallelism", req.Parallelism),
		zap.Bool("dry_run", req.DryRun))

	// The journal is optional; a broken MySQL never blocks the run.
	var jrnl runner.Journal
	if cfg.Journal.MySQLDSN != "" {
		db, err := journal.New(cfg.Journal.MySQLDSN)
		if err != nil {
			log.Warn("run journal unavailable, continuing without it", zap.Error(err))
		} else {
			defer db.Close()
			if err := db.EnsureSchema(ctx); err != nil {
				log.Warn("failed to prepare journal schema", zap.Error(err))
			} else {
				jrnl = db
			}
		}
	}

	factory := newSessionFactory(ads, store, cfg, log)
	pool := runner.NewPool(
		runner.NewStepRunner(store, log),
		store,
		factory,
		jrnl,
		cfg.ProfileStartDelay(),
		log,
	)

	sum := pool.Run(ctx, selected, req)

	log.Info("run finished",
		zap.Int("total", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("interrupted", sum.Interrupted))

	// An operator cancel is not a failure; only genuinely failed profiles
	// make the exit code non-zero.
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d profiles failed", sum.Failed, sum.Total)
	}
	if sum.Interrupted > 0 {
		log.Warn("run interrupted before all profiles finished",
			zap.Int("interrupted", sum.Interrupted))
	}
	return nil
}

// newHistoryCommand reads past runs for one profile out of the MySQL journal.
func newHistoryCommand() *cobra.Command {
	var (
		configPath string
		serial     int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled runs for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Journal.MySQLDSN == "" {
				return fmt.Errorf("no run journal configured (set MYSQL_DSN)")
			}

			db, err := journal.New(cfg.Journal.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), serial, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Printf("no journaled runs for profile %d\n", serial)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tSTATUS\tAT STEP\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.StartedAt.Format(time.DateTime),
					r.Status,
					r.AtStep,
					r.ErrorMessage.String)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")
	cmd.Flags().IntVarP(&serial, "profile", "p", 0, "profile serial number")
	cmd.Flags().IntVar(&limit, "limit", 10, "max runs to show")
	cmd.MarkFlagRequired("profile")

	return cmd
}

// newLogger writes human-readable logs to stdout and the run log file.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stdout", logFile}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}
