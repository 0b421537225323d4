package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/cmd/cli/commands"
	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/postgres"
	"github.com/jakechorley/adp-scheduler/pkg/utils/logging"
)

var (
	env        string
	configPath string
	verbose    bool

	app = &commands.AppContext{}
	pg  *postgres.DB
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "ADP Scheduler CLI - Build fair weekly shift schedules",
		Long: `A CLI tool for building weekly shift schedules from a roster of availabilities,
storing each run, verifying it and publishing it to Google Sheets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if pg != nil {
				pg.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to scheduler_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ScheduleCmd(app))
	rootCmd.AddCommand(commands.ScheduleWeeksCmd(app))
	rootCmd.AddCommand(commands.VerifyCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.ShowRunCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.NormalizeCmd(app))
	rootCmd.AddCommand(commands.AvailableCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger, config, solver and database.
// The Sheets client is created on first use.
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(logging.DefaultDir, env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Debug("Starting application", zap.String("environment", env))

	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.Int("calendar_labels", len(app.Cfg.Calendar)),
		zap.Int("overrides", len(app.Cfg.Overrides)))

	app.Solver, err = cpsat.NewSolver(app.Cfg.Solver.Backend, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create solver: %w", err)
	}

	if app.Cfg.Database.ConnectionString == "" {
		app.Logger.Debug("No database configured, runs will not be stored")
		return nil
	}

	app.Logger.Info("Connecting to database")
	pg, err = postgres.NewDB(app.Ctx, app.Cfg.Database.ConnectionString, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.RunMigrations(app.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Database = pg
	app.Logger.Debug("Database initialized successfully")

	return nil
}
