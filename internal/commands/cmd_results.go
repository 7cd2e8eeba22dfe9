package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/pkg/iojson"
)

type ResultsCmd struct {
	flags *Flags

	jsonOutput bool
}

// NewResultsCmd creates a new results command
func NewResultsCmd(flags *Flags) *ResultsCmd {
	return &ResultsCmd{flags: flags}
}

// Register adds the results commands to the application
func (cmd *ResultsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "results",
		Usage: "Inspect recorded sessions and scores",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List recorded sessions",
				UsageText: "dscqs results ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "show",
				Usage:     "Print the scores stored for a results sink",
				UsageText: "dscqs results show SINK_ID [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *ResultsCmd) runList(ctx context.Context, c *cli.Command) error {
	sessions, err := cmd.flags.Results.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintf(os.Stderr, "No sessions found\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tPARTICIPANT\tSTATE\tTRIALS\tSINK\tID")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			s.StartedAt.Local().Format(time.DateTime), s.ParticipantID, s.State,
			s.Recorded, s.Trials, s.SinkID, s.ID)
	}
	return w.Flush()
}

func (cmd *ResultsCmd) runShow(ctx context.Context, c *cli.Command) error {
	sinkID := c.Args().First()
	if sinkID == "" {
		return fmt.Errorf("sink id is required")
	}

	lines, err := cmd.flags.Results.Lines(ctx, sinkID)
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("no results stored for %q", sinkID)
	}

	records := make([]results.ScoreRecord, 0, len(lines))
	for _, line := range lines {
		if line == results.Header {
			continue
		}
		rec, err := results.ParseLine(line)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, records)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TRIAL\tSTIMULUS\tSCORE")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%g\n", r.TrialIndex+1, r.Stimulus, r.Score)
	}
	return w.Flush()
}
