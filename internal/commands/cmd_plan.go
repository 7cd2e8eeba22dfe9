package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/pkg/iojson"
)

type PlanCmd struct {
	flags *Flags

	planPath   string
	seed       uint64
	jsonOutput bool
}

// NewPlanCmd creates a new plan command
func NewPlanCmd(flags *Flags) *PlanCmd {
	return &PlanCmd{flags: flags}
}

// Register adds the plan command to the application
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "plan",
		Usage:     "Print a randomized trial order",
		UsageText: "dscqs plan --plan FILE [--seed N] [--json]",
		Description: `Loads a test plan, randomizes it and prints the resulting trials.

Nothing is played or written. Pass the seed printed by a session to
reproduce its order.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "plan",
				Aliases:     []string{"p"},
				Usage:       "path to the test plan file",
				Required:    true,
				Destination: &cmd.planPath,
			},
			&cli.Uint64Flag{
				Name:        "seed",
				Usage:       "randomization seed (random when omitted)",
				Destination: &cmd.seed,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type planOutput struct {
	Plan        string     `json:"plan"`
	Seed        uint64     `json:"seed"`
	FixedPrefix int        `json:"fixed_prefix"`
	Gap         string     `json:"gap"`
	Trials      []planItem `json:"trials"`
}

type planItem struct {
	Index int    `json:"index"`
	A     string `json:"a"`
	B     string `json:"b"`
}

func (cmd *PlanCmd) run(ctx context.Context, c *cli.Command) error {
	def, err := plan.Load(cmd.planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if err := def.Plan.Validate(def.FixedPrefix); err != nil {
		return fmt.Errorf("plan %s: %w", cmd.planPath, err)
	}

	seed := cmd.seed
	if !c.IsSet("seed") {
		if seed, err = plan.SeedFromCrypto(); err != nil {
			return err
		}
	}

	order := plan.Randomize(def.Plan, def.FixedPrefix, plan.NewRand(seed))

	out := planOutput{
		Plan:        def.Path,
		Seed:        seed,
		FixedPrefix: def.FixedPrefix,
		Gap:         def.Gap.String(),
		Trials:      make([]planItem, len(order)),
	}
	for i, t := range order {
		out.Trials[i] = planItem{Index: i, A: t.A.String(), B: t.B.String()}
	}

	w := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(w, c.Root().ErrWriter, out)
	}

	_, _ = fmt.Fprintf(w, "seed: %d\n\n", seed)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tA\tB")
	for _, item := range out.Trials {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", item.Index+1, item.A, item.B)
	}
	return tw.Flush()
}
