package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GNOME/libgda-sub020/internal/harness"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory (default: <scenario dir>/golden)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name          string   `json:"name"`
	File          string   `json:"file"`
	Pass          bool     `json:"pass"`
	ErrorCode     string   `json:"error_code,omitempty"`
	Serialization string   `json:"serialization,omitempty"`
	ContentHash   string   `json:"content_hash,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// BuildResult holds the overall build result.
type BuildResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <scenario-file-or-dir>",
		Short: "Run builder scenarios",
		Long: `Run builder scenarios and print the statements they build.

Each scenario applies a sequence of builder calls and checks the outcome
against its expect clause. When a golden file exists for a scenario, its
snapshot (canonical serialization and rendering) must match it as well.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable scenarios, etc.)

Examples:
  gdasql build ./scenarios
  gdasql build ./scenarios --filter "select_*"
  gdasql build ./scenarios --update
  gdasql build select.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name (glob pattern)")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default: <scenario dir>/golden)")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid filter pattern: %v", err), nil)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return failInput(formatter, readError(path, err))
	}

	files := []string{path}
	if info.IsDir() {
		files, err = findScenarioFiles(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeScanError, fmt.Sprintf("error scanning directory: %v", err), nil)
		}
		if len(files) == 0 {
			return formatter.Fail(ExitCommandError, ErrCodeNoFiles, fmt.Sprintf("no scenario files found in %s", path), nil)
		}
	}

	var hopts []harness.Option
	if opts.Verbose {
		hopts = append(hopts, harness.WithLogger(slog.Default()))
	}
	h := harness.New(hopts...)

	result := BuildResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		formatter.VerboseLog("Loading %s", file)
		scenarios, err := loadScenarios(file)
		if err != nil {
			result.add(formatter, ScenarioResult{
				Name:   filepath.Base(file),
				File:   file,
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			})
			continue
		}
		for _, scenario := range scenarios {
			if opts.Filter != "" {
				if ok, _ := filepath.Match(opts.Filter, scenario.Name); !ok {
					continue
				}
			}
			result.add(formatter, runBuildScenario(h, opts, file, scenario))
		}
	}

	if result.Total == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	if formatter.JSON() {
		return outputBuildJSON(formatter, result)
	}
	return outputBuildText(formatter, result)
}

// add records a scenario result, printing its status line in text mode.
func (r *BuildResult) add(f *OutputFormatter, sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}

	if f.JSON() {
		return
	}
	if !sr.Pass {
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
		return
	}
	switch {
	case sr.ErrorCode != "":
		fmt.Fprintf(f.Writer, "✓ %s (error %s)\n", sr.Name, sr.ErrorCode)
	default:
		fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
	}
	if f.Verbose && sr.Serialization != "" {
		fmt.Fprintf(f.Writer, "  %s\n", sr.Serialization)
	}
}

// runBuildScenario executes one scenario and checks its golden file.
func runBuildScenario(h *harness.Harness, opts *BuildOptions, file string, scenario *harness.Scenario) ScenarioResult {
	sr := ScenarioResult{Name: scenario.Name, File: file}

	result, err := h.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Pass = result.Pass
	sr.ErrorCode = result.ErrorCode
	sr.Serialization = result.Serialization
	sr.ContentHash = result.ContentHash
	sr.Errors = result.Errors

	goldenPath := goldenFilePath(opts.GoldenDir, file, scenario.Name)
	snapshot := harness.Snapshot(result)

	if opts.Update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return sr
	}

	golden, err := os.ReadFile(goldenPath)
	if errors.Is(err, fs.ErrNotExist) {
		// No golden file: expect-based checks only
		return sr
	}
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		return sr
	}
	if !bytes.Equal(golden, snapshot) {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "golden file mismatch (run with --update to regenerate)")
	}
	return sr
}

// goldenFilePath returns the path of the golden file for a scenario.
func goldenFilePath(goldenDir, scenarioFile, name string) string {
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(scenarioFile), "golden")
	}
	return filepath.Join(goldenDir, name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputBuildJSON outputs the build result as JSON.
func outputBuildJSON(f *OutputFormatter, result BuildResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}

	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := f.encode(CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: ErrCodeScenarioFailed, Message: msg},
	}); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// outputBuildText outputs the build summary as text.
func outputBuildText(f *OutputFormatter, result BuildResult) error {
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Build Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	return nil
}
