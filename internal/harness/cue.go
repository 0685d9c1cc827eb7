package harness

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// LoadError reports a CUE scenario file that cannot be loaded.
type LoadError struct {
	Scenario string
	Message  string
	Pos      token.Pos
}

func (e *LoadError) Error() string {
	prefix := "cue"
	if e.Scenario != "" {
		prefix = "scenario." + e.Scenario
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), prefix, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// LoadCUE reads scenarios from a CUE file. Scenarios are declared under a
// top-level "scenario" struct keyed by name:
//
//	scenario: delete_by_id: {
//	    description: "DELETE with a parameter"
//	    kind: "DELETE"
//	    steps: [{op: "table", name: "t"}, ...]
//	}
//
// A scenario without an explicit name takes its label. Scenarios are
// returned sorted by name.
func LoadCUE(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return CompileCUE(data, path)
}

// CompileCUE is LoadCUE for in-memory source. filename is used in positions.
func CompileCUE(data []byte, filename string) ([]*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("", err)
	}

	root := v.LookupPath(cue.ParsePath("scenario"))
	if !root.Exists() {
		return nil, &LoadError{Message: "no scenario struct found", Pos: v.Pos()}
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError("", err)
	}

	var scenarios []*Scenario
	for iter.Next() {
		label := iter.Label()
		var s Scenario
		if err := iter.Value().Decode(&s); err != nil {
			return nil, formatCUEError(label, err)
		}
		if s.Name == "" {
			s.Name = label
		}
		if err := validateScenario(&s); err != nil {
			return nil, &LoadError{Scenario: label, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		scenarios = append(scenarios, &s)
	}
	if len(scenarios) == 0 {
		return nil, &LoadError{Message: "scenario struct is empty", Pos: root.Pos()}
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name < scenarios[j].Name
	})
	return scenarios, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(scenario string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	le := &LoadError{Scenario: scenario, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
