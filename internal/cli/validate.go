package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GNOME/libgda-sub020/internal/harness"
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type,omitempty"`
	Code  string `json:"code,omitempty"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "validate <statement-file>",
		Short: "Validate a statement",
		Long: `Validate a statement tree.

Runs the structural checks (node shapes, missing members and identifier
syntax) and then the semantic checks (duplicate FROM target names). The
first failure is reported with its error code.

Exit codes:
  0 - Statement is valid
  1 - Statement is invalid
  2 - Command error (missing file, unreadable scenario, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], scenario, cmd)
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "", "scenario to build from a multi-scenario CUE file")

	return cmd
}

func runValidate(opts *RootOptions, path, scenario string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	stmt, err := loadStatement(path, scenario)
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) && ie.Exit == ExitFailure {
			return outputValidationError(formatter, ValidationResult{Code: ie.Code, Error: ie.Message})
		}
		return failInput(formatter, err)
	}
	formatter.VerboseLog("Loaded %s statement from %s", stmt.Type(), path)

	if err := sqlstmt.Validate(stmt); err != nil {
		res := ValidationResult{
			Type:  stmt.Type().String(),
			Code:  harness.ErrorCode(err),
			Error: err.Error(),
		}
		var se *sqlstmt.StructuralError
		var me *sqlstmt.SemanticError
		switch {
		case errors.As(err, &se):
			res.Error, res.Path = se.Message, se.Path
		case errors.As(err, &me):
			res.Error, res.Path = me.Message, me.Path
		}
		return outputValidationError(formatter, res)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Type: stmt.Type().String()})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s statement valid\n", stmt.Type())
	return nil
}

// outputValidationError outputs a failed validation.
func outputValidationError(f *OutputFormatter, res ValidationResult) error {
	if f.JSON() {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   res,
			Error:  &CLIError{Code: res.Code, Message: res.Error},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "✗ Validation failed")
		fmt.Fprintln(f.Writer)
		if res.Path != "" {
			fmt.Fprintf(f.Writer, "at %s\n", res.Path)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n", res.Code, res.Error)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", res.Code))
}
