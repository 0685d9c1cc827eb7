package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GNOME/libgda-sub020/internal/harness"
	"github.com/GNOME/libgda-sub020/internal/sqlrender"
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Scenario     string
	Bindings     map[string]string
	AllowUnbound bool
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	SQL    string   `json:"sql"`
	Args   []any    `json:"args"`
	Params []string `json:"params"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <statement-file>",
		Short: "Render a statement as SQLite SQL",
		Long: `Render a validated statement as SQLite SQL.

Parameters become "?" placeholders; their values are taken from --bind
and printed as positional arguments. Values that parse as integers or
floats are bound as numbers.

Examples:
  gdasql render stmt.json --bind id=42
  gdasql render select.yaml --allow-unbound`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "scenario to build from a multi-scenario CUE file")
	cmd.Flags().StringToStringVar(&opts.Bindings, "bind", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.AllowUnbound, "allow-unbound", false, "render unbound parameters with a NULL argument")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	stmt, err := loadStatement(path, opts.Scenario)
	if err != nil {
		return failInput(formatter, err)
	}

	bindings := make(map[string]any, len(opts.Bindings))
	for name, raw := range opts.Bindings {
		bindings[name] = bindingValue(raw)
	}
	ropts := []sqlrender.Option{sqlrender.WithBindings(bindings)}
	if opts.AllowUnbound {
		ropts = append(ropts, sqlrender.WithAllowUnbound())
	}

	query, args, err := sqlrender.New(ropts...).Render(stmt)
	if err != nil {
		if code := harness.ErrorCode(err); code != "" {
			return formatter.Fail(ExitFailure, code, err.Error(), nil)
		}
		if errors.Is(err, sqlrender.ErrUnbound) || errors.Is(err, sqlrender.ErrUnsupported) {
			return formatter.Fail(ExitFailure, ErrCodeRenderFailed, err.Error(), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeRenderFailed, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(RenderResult{SQL: query, Args: nonNil(args), Params: paramNames(stmt)})
	}
	fmt.Fprintln(formatter.Writer, query)
	if len(args) > 0 {
		fmt.Fprintf(formatter.Writer, "args: %v\n", args)
	}
	return nil
}

// bindingValue converts a --bind value to the argument passed to the
// driver.
func bindingValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func paramNames(stmt *sqlstmt.Statement) []string {
	names := []string{}
	for _, ps := range sqlrender.Params(stmt) {
		names = append(names, ps.Name)
	}
	return names
}

func nonNil(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}
