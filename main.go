package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dscqs/internal/commands"
	"github.com/colonyops/dscqs/internal/core/config"
	"github.com/colonyops/dscqs/internal/core/logging"
	"github.com/colonyops/dscqs/internal/core/styles"
	"github.com/colonyops/dscqs/internal/data/db"
	"github.com/colonyops/dscqs/internal/data/stores"
	"github.com/colonyops/dscqs/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "dscqs",
		Usage:     "Run double stimulus continuous quality scale video evaluations",
		UsageText: "dscqs [global options] command [command options]",
		Description: `dscqs presents pairs of video stimuli to a participant and records a
continuous quality score for each, following the DSCQS method.

Run 'dscqs run --plan plan.yaml' to start a session.
Run 'dscqs plan --plan plan.yaml' to preview a randomized trial order.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DSCQS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/dscqs.log)",
				Sources:     cli.EnvVars("DSCQS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DSCQS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DSCQS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// The terminal belongs to the scoring screen, so always log to a file.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			database, err := db.Open(cfg.DataDir, dbOpts)
			if stores.IsCorruptionError(err) {
				backup, recoverErr := stores.RecoverFromCorruption(cfg.DataDir)
				if recoverErr != nil {
					return ctx, fmt.Errorf("recover database: %w", recoverErr)
				}
				log.Warn().Str("backup", backup).Msg("database was corrupt, moved aside and recreated")
				database, err = db.Open(cfg.DataDir, dbOpts)
			}
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			flags.DB = database
			flags.Results = stores.NewResultStore(database)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.DB != nil {
				if err := flags.DB.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewRunCmd(flags).Register(app)
	app = commands.NewPlanCmd(flags).Register(app)
	app = commands.NewResultsCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
