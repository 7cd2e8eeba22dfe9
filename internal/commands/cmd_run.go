package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/dscqs/internal/core/logging"
	"github.com/colonyops/dscqs/internal/core/playback"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/internal/core/session"
	"github.com/colonyops/dscqs/internal/core/styles"
	"github.com/colonyops/dscqs/internal/evaluation"
	"github.com/colonyops/dscqs/internal/integration/player"
	"github.com/colonyops/dscqs/internal/store/textfile"
	"github.com/colonyops/dscqs/internal/tui"
	"github.com/colonyops/dscqs/internal/tui/notify"
	"github.com/colonyops/dscqs/pkg/executil"
)

type RunCmd struct {
	flags *Flags

	// Command-specific flags
	planPath     string
	participant  string
	seed         uint64
	dryRun       bool
	clipDuration time.Duration
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run an evaluation session",
		UsageText: "dscqs run --plan FILE [options]",
		Description: `Runs a DSCQS session for one participant.

Each trial plays stimulus A, the gap clip, then stimulus B. The participant
scores both on their own slider and moves on with Next; the last trial is
closed with Finish. Scores are written after every trial to the results
directory and to the session database.

The participant name is prompted for when --participant is not given.
Use --dry-run to walk through a plan without launching the player.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "plan",
				Aliases:     []string{"p"},
				Usage:       "path to the test plan file",
				Required:    true,
				Destination: &cmd.planPath,
			},
			&cli.StringFlag{
				Name:        "participant",
				Aliases:     []string{"n"},
				Usage:       "participant name (prompted when omitted)",
				Destination: &cmd.participant,
			},
			&cli.Uint64Flag{
				Name:        "seed",
				Usage:       "randomization seed (random when omitted)",
				Destination: &cmd.seed,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "simulate playback instead of running the player",
				Destination: &cmd.dryRun,
			},
			&cli.DurationFlag{
				Name:        "clip-duration",
				Usage:       "simulated clip length for --dry-run",
				Value:       2 * time.Second,
				Destination: &cmd.clipDuration,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	def, err := plan.Load(cmd.planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if err := def.Plan.Validate(def.FixedPrefix); err != nil {
		return fmt.Errorf("plan %s: %w", cmd.planPath, err)
	}

	if strings.TrimSpace(cmd.participant) == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("no participant given (stdin is not a terminal); use --participant")
		}
		if err := cmd.runForm(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	seed := cmd.seed
	if !c.IsSet("seed") {
		if seed, err = plan.SeedFromCrypto(); err != nil {
			return err
		}
	}

	host, err := cmd.host()
	if err != nil {
		return err
	}
	defer func() { _ = host.CloseAll() }()

	sessionID := uuid.NewString()
	ctx = logging.WithSessionID(ctx, sessionID)
	ctx = logging.WithParticipant(ctx, cmd.participant)

	textSink := textfile.NewSink(cfg.ResultsPath())
	recorder := results.NewRecorder(results.Tee(cmd.flags.Results, textSink))

	bus := notify.NewBus()
	bus.LogTo(logging.Component("notice"))

	scoring := tui.NewScoring(cfg.Scale)
	bus.Subscribe(scoring.ShowNotice)

	controller := evaluation.NewController(evaluation.Deps{
		Host:         host,
		UI:           scoring,
		Notifier:     bus,
		Recorder:     recorder,
		Journal:      cmd.flags.Results,
		Logger:       logging.Component("controller"),
		StallTimeout: cfg.Player.StallTimeout,
	})

	instructions := cfg.Instructions
	if instructions == "" {
		instructions = tui.DefaultInstructions
	}

	program := tea.NewProgram(
		tui.New(scoring, tui.Options{Scale: cfg.Scale, Instructions: instructions}),
		tea.WithAltScreen(),
	)
	scoring.Bind(program.Send)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		defer program.Quit()

		select {
		case <-scoring.Begun():
		case <-runCtx.Done():
			errc <- nil
			return
		}

		err := controller.Start(runCtx, evaluation.StartOptions{
			SessionID:     sessionID,
			Plan:          def.Plan,
			FixedPrefix:   def.FixedPrefix,
			ParticipantID: cmd.participant,
			Gap:           def.Gap,
			Seed:          seed,
		})
		if err != nil {
			errc <- err
			return
		}
		errc <- controller.Run(runCtx)
	}()

	log.Debug().Ctx(ctx).Str("plan", def.Path).Bool("dry_run", cmd.dryRun).Msg("starting scoring screen")

	_, uiErr := program.Run()
	cancel()
	sessionErr := <-errc
	if errors.Is(sessionErr, context.Canceled) {
		// the screen closed first; the controller has already aborted
		sessionErr = nil
	}

	if err := errors.Join(uiErr, sessionErr); err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("session failed")
		return fmt.Errorf("run session: %w", err)
	}

	cmd.report(c, controller, textSink)
	return nil
}

func (cmd *RunCmd) host() (playback.Host, error) {
	if cmd.dryRun {
		return player.NewTimedHost(cmd.clipDuration), nil
	}
	return player.NewExecHost(&executil.RealExecutor{}, cmd.flags.Config.Player.Command, logging.Component("player"))
}

func (cmd *RunCmd) report(c *cli.Command, controller *evaluation.Controller, sink *textfile.Sink) {
	out := c.Root().Writer
	st := controller.State()
	if st.Phase == session.PhaseNotStarted {
		_, _ = fmt.Fprintln(out, styles.WarningStyle.Render("Session not started"))
		return
	}

	path := sink.Path(st.SinkID)
	if st.Aborted {
		_, _ = fmt.Fprintln(out, styles.WarningStyle.Render(
			fmt.Sprintf("Session aborted after %d of %d trials", st.Recorded, st.Total())))
		if st.Recorded > 0 {
			_, _ = fmt.Fprintf(out, "  Partial results: %s\n", path)
		}
		return
	}

	_, _ = fmt.Fprintln(out, styles.SuccessStyle.Render(
		fmt.Sprintf("Session complete: %d trials recorded", st.Recorded)))
	_, _ = fmt.Fprintf(out, "  Results: %s\n", path)
}

func (cmd *RunCmd) runForm() error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Participant name").
				Description("Used to name the results file").
				Validate(validateParticipant).
				Value(&cmd.participant),
		),
	).WithTheme(styles.FormTheme()).Run()
}

func validateParticipant(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
