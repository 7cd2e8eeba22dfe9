package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dscqs/internal/core/config"
	"github.com/colonyops/dscqs/internal/core/styles"
	"github.com/colonyops/dscqs/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "dscqs config validate [options]",
				Description: "Validates the configuration file, checking the player command, scale and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationOutput struct {
	Valid    bool                       `json:"valid"`
	Errors   []string                   `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	out := validationOutput{Warnings: cfg.Warnings()}
	if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		out.Errors = flattenErrors(err)
	}
	out.Valid = len(out.Errors) == 0

	w := c.Root().Writer
	if cmd.format == "json" {
		if err := iojson.WriteWith(w, c.Root().ErrWriter, out); err != nil {
			return err
		}
	} else {
		cmd.outputText(w, out)
	}

	if !out.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(w io.Writer, out validationOutput) {
	for _, warn := range out.Warnings {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.WarningStyle.Render(warn.Category+":"), warn.Message)
		if warn.Item != "" {
			_, _ = fmt.Fprintf(w, "  Item: %s\n", warn.Item)
		}
	}

	for _, msg := range out.Errors {
		_, _ = fmt.Fprintln(w, styles.ErrorStyle.Render("error:")+" "+msg)
	}

	_, _ = fmt.Fprintln(w)
	if out.Valid {
		_, _ = fmt.Fprintln(w, styles.SuccessStyle.Render("Configuration is valid"))
		return
	}
	_, _ = fmt.Fprintln(w, styles.ErrorStyle.Render(fmt.Sprintf("%d error(s) found", len(out.Errors))))
}

// flattenErrors lists field errors one per line when err carries them.
func flattenErrors(err error) []string {
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Field+": "+fe.Err.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
