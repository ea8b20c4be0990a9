package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/compass/internal/app"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// cli holds the global flags and the service opened for one invocation.
type cli struct {
	configPath string
	dbPath     string
	workLogs   string
	cycles     string
	logLevel   string
	output     string

	now func() time.Time
	cfg *config.Config
	svc *service.Service
}

// run executes one compassctl invocation. The service opened by the
// command is always stopped, including when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{now: time.Now}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	c.close()
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "compassctl",
		Short: "Productivity dashboards and sprint audits from the command line",
		Long: `compassctl loads the work-log and test-cycle collections, resolves
client managers and manages sprint audits in the compass key-value store.

Configuration is layered like the server: defaults, then the YAML file
given by --config or $COMPASS_CONFIG, then COMPASS_* environment variables,
then the flags below.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file (default $COMPASS_CONFIG)")
	pf.StringVar(&c.dbPath, "db", "", "SQLite database path (overrides db_path)")
	pf.StringVar(&c.workLogs, "worklogs", "", "work-log source file or URL (overrides worklog_source)")
	pf.StringVar(&c.cycles, "cycles", "", "test-cycle source file or URL (overrides testcycle_source)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&c.output, "output", "o", outputTable, "output format: table or json")

	root.AddCommand(
		c.summaryCmd(),
		c.rankCmd(),
		c.matrixCmd(),
		c.cyclesCmd(),
		c.auditsCmd(),
		c.mappingsCmd(),
		c.managerCmd(),
	)
	return root
}

// open loads configuration, initialises logging and starts the service.
// Audit auto-generation only runs through "audits generate".
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	if c.output != outputTable && c.output != outputJSON {
		return fmt.Errorf("%w: %q", ErrUnknownOutput, c.output)
	}

	ctx := cmd.Context()
	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	c.applyFlags(cfg)
	c.cfg = cfg

	if err := logger.Init(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithOutput(cmd.ErrOrStderr()),
	); err != nil {
		return err
	}

	c.svc = service.New(
		service.WithLogger(logger.Named("compassctl")),
		service.WithDBPath(cfg.DBPath),
		service.WithSources(cfg.WorkLogSource, cfg.TestCycleSource),
		service.WithLoadTimeout(time.Duration(cfg.LoadTimeoutMS)*time.Millisecond),
		service.WithBusyTimeout(time.Duration(cfg.BusyTimeoutMS)*time.Millisecond),
		service.WithThresholds(cfg.ApprovedMin, cfg.ReservationsMin),
		service.WithAutoGenerate(false),
		service.WithClock(c.now),
	)
	return c.svc.Start(ctx)
}

func (c *cli) applyFlags(cfg *config.Config) {
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.workLogs != "" {
		cfg.WorkLogSource = c.workLogs
	}
	if c.cycles != "" {
		cfg.TestCycleSource = c.cycles
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
}

func (c *cli) close() {
	if c.svc != nil {
		c.svc.Stop()
		c.svc = nil
	}
}

// checkLimit validates a --limit value against max_ranking_limit.
func (c *cli) checkLimit(limit int) error {
	if limit < 0 {
		return ErrInvalidLimit
	}
	if c.cfg != nil && c.cfg.MaxRankingLimit > 0 && limit > c.cfg.MaxRankingLimit {
		return fmt.Errorf("%w (%d)", ErrLimitExceeded, c.cfg.MaxRankingLimit)
	}
	return nil
}
