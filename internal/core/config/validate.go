package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/dscqs/pkg/tmpl"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including player template syntax and file accessibility. The configPath
// argument specifies the config file location to validate (empty string
// skips the config file check). Validate runs first for structural checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validatePlayer(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if len(c.Scale.Labels) != len(DefaultLabels) {
		warnings = append(warnings, ValidationWarning{
			Category: "Scale",
			Item:     "labels",
			Message:  fmt.Sprintf("DSCQS uses %d quality labels, got %d", len(DefaultLabels), len(c.Scale.Labels)),
		})
	}

	if c.Player.StallTimeout == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Player",
			Item:     "stall_timeout",
			Message:  "no stall timeout; a player that never exits blocks the trial until Replay",
		})
	}

	return warnings
}

// validateFileAccess checks the config file, data directory and results directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("results_dir", c.ResultsPath(), isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validatePlayer checks the player executable and every argument template.
func (c *Config) validatePlayer() error {
	var errs criterio.FieldErrorsBuilder

	if err := executableExists(c.Player.Command[0]); err != nil {
		errs = errs.Append("player.command[0]", err)
	}

	data := map[string]any{"Path": "/tmp/clip.yuv", "Label": "clip.yuv"}
	for i, arg := range c.Player.Command {
		if _, err := tmpl.Render(arg, data); err != nil {
			errs = errs.Append(fmt.Sprintf("player.command[%d]", i), fmt.Errorf("template error: %w", err))
		}
	}

	return errs.ToError()
}

func executableExists(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
