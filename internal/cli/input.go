package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/GNOME/libgda-sub020/internal/harness"
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// InputError reports a statement file that could not be turned into a
// statement. Code is either a CLI code (E0xx) for unusable files or the
// statement error code the input stopped at.
type InputError struct {
	Code    string
	Message string
	Exit    int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isScenarioFile reports whether path names a builder scenario file.
func isScenarioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// loadScenarios loads every scenario declared in one file.
func loadScenarios(path string) ([]*harness.Scenario, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return harness.LoadCUE(path)
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*harness.Scenario{s}, nil
}

// loadStatement reads the statement stored in path.
//
// Scenario files are run through the harness and yield the statement they
// build; name selects one scenario of a multi-scenario CUE file. Any other
// file is decoded as a canonical serialization.
//
// The statement is not validated.
func loadStatement(path, name string) (*sqlstmt.Statement, error) {
	if isScenarioFile(path) {
		return loadScenarioStatement(path, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}
	stmt, err := sqlstmt.ParseBytes(data)
	if err != nil {
		msg := err.Error()
		var pe *sqlstmt.ParseError
		if errors.As(err, &pe) {
			msg = pe.Message
			if pe.Key != "" {
				msg += " (key=" + pe.Key + ")"
			}
		}
		return nil, &InputError{Code: string(sqlstmt.ErrCodeParse), Message: msg, Exit: ExitFailure}
	}
	return stmt, nil
}

func loadScenarioStatement(path, name string) (*sqlstmt.Statement, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, readError(path, err)
	}
	scenarios, err := loadScenarios(path)
	if err != nil {
		return nil, &InputError{Code: ErrCodeLoadFailed, Message: err.Error(), Exit: ExitCommandError}
	}

	scenario, err := pickScenario(scenarios, name)
	if err != nil {
		return nil, err
	}

	result, err := harness.New().Run(scenario)
	if err != nil {
		return nil, &InputError{Code: ErrCodeLoadFailed, Message: err.Error(), Exit: ExitCommandError}
	}
	if result.Statement == nil {
		return nil, &InputError{
			Code:    result.ErrorCode,
			Message: fmt.Sprintf("scenario %s does not build a statement", scenario.Name),
			Exit:    ExitFailure,
		}
	}
	return result.Statement, nil
}

func pickScenario(scenarios []*harness.Scenario, name string) (*harness.Scenario, error) {
	if name == "" {
		if len(scenarios) == 1 {
			return scenarios[0], nil
		}
		names := make([]string, len(scenarios))
		for i, s := range scenarios {
			names[i] = s.Name
		}
		return nil, &InputError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("file declares %d scenarios (%s); pick one with --scenario", len(scenarios), strings.Join(names, ", ")),
			Exit:    ExitCommandError,
		}
	}
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, &InputError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario %q not found", name), Exit: ExitCommandError}
}

func readError(path string, err error) *InputError {
	if errors.Is(err, fs.ErrNotExist) {
		return &InputError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path), Exit: ExitCommandError}
	}
	return &InputError{Code: ErrCodeLoadFailed, Message: err.Error(), Exit: ExitCommandError}
}

// failInput reports an input error through the formatter.
func failInput(f *OutputFormatter, err error) error {
	var ie *InputError
	if errors.As(err, &ie) {
		return f.Fail(ie.Exit, ie.Code, ie.Message, nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// findScenarioFiles finds scenario files under dir, sorted by path.
func findScenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isScenarioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}
