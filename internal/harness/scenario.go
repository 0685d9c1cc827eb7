package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// Scenario defines a builder scenario: a sequence of builder calls and the
// statement they are expected to produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Kind is the statement type to build (SELECT, INSERT, UPDATE, DELETE, COMPOUND).
	Kind string `yaml:"kind" json:"kind"`

	// SQL is recorded as the statement's original text.
	SQL string `yaml:"sql,omitempty" json:"sql,omitempty"`

	// Steps are applied to the builder in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// Expect describes the outcome. If nil, the scenario only has to build
	// and validate.
	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Build is a nested builder, used by sub-select and compound steps.
type Build struct {
	Kind  string `yaml:"kind" json:"kind"`
	SQL   string `yaml:"sql,omitempty" json:"sql,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one builder call. Which fields apply depends on Op.
//
// Args reference earlier results: either a label bound with Let or a
// decimal builder id.
type Step struct {
	Op string `yaml:"op" json:"op"`

	// Let binds the id returned by this step to a label.
	Let string `yaml:"let,omitempty" json:"let,omitempty"`

	// ID is the builder id hint (0 allocates).
	ID uint32 `yaml:"id,omitempty" json:"id,omitempty"`

	Args      []string `yaml:"args,omitempty" json:"args,omitempty"`
	Value     any      `yaml:"value,omitempty" json:"value,omitempty"`
	Name      string   `yaml:"name,omitempty" json:"name,omitempty"`
	Type      string   `yaml:"type,omitempty" json:"type,omitempty"`
	Operator  string   `yaml:"operator,omitempty" json:"operator,omitempty"`
	Alias     string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Cast      string   `yaml:"cast,omitempty" json:"cast,omitempty"`
	Collation string   `yaml:"collation,omitempty" json:"collation,omitempty"`
	Nullable  bool     `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Desc      bool     `yaml:"desc,omitempty" json:"desc,omitempty"`
	Base      string   `yaml:"base,omitempty" json:"base,omitempty"`
	Else      string   `yaml:"else,omitempty" json:"else,omitempty"`
	Select    *Build   `yaml:"select,omitempty" json:"select,omitempty"`
}

// Expect specifies the expected outcome of a scenario.
type Expect struct {
	// Serialization is the exact canonical form of the built statement.
	Serialization string `yaml:"serialization,omitempty" json:"serialization,omitempty"`

	// SQL is the expected SQLite rendering. Parameters render as "?".
	SQL string `yaml:"render,omitempty" json:"render,omitempty"`

	// Error is the expected error code, from either the builder
	// (e.g., INCOMPLETE_STATEMENT) or validation (e.g., DUPLICATE_TARGET).
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Step operations.
const (
	OpLiteral      = "literal"
	OpIdent        = "ident"
	OpParam        = "param"
	OpExpr         = "expr"
	OpCond         = "cond"
	OpCondV        = "cond_v"
	OpFunction     = "function"
	OpCase         = "case"
	OpSubSelect    = "subselect"
	OpAddField     = "add_field"
	OpAddValue     = "add_field_value"
	OpAddExpr      = "add_field_expr"
	OpAddTarget    = "add_target"
	OpJoin         = "join"
	OpJoinField    = "join_field"
	OpOrderBy      = "order_by"
	OpDistinct     = "distinct"
	OpLimit        = "limit"
	OpHaving       = "having"
	OpGroupBy      = "group_by"
	OpWhere        = "where"
	OpTable        = "table"
	OpOnConflict   = "on_conflict"
	OpCompoundType = "compound_type"
	OpCompoundAdd  = "compound_add"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := validateBuild("", s.Kind, s.Steps); err != nil {
		return err
	}
	if s.Expect != nil && s.Expect.Error != "" && (s.Expect.Serialization != "" || s.Expect.SQL != "") {
		return fmt.Errorf("expect: error excludes serialization and render")
	}
	return nil
}

func validateBuild(prefix, kind string, steps []Step) error {
	if kind == "" {
		return fmt.Errorf("%skind is required", prefix)
	}
	if _, ok := sqlstmt.ParseStatementType(kind); !ok {
		return fmt.Errorf("%sunknown statement kind %q", prefix, kind)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%ssteps list is required and must be non-empty", prefix)
	}

	labels := make(map[string]bool)
	for i, step := range steps {
		where := fmt.Sprintf("%ssteps[%d]", prefix, i)
		if err := validateStep(where, step); err != nil {
			return err
		}
		for _, ref := range step.refs() {
			if !labels[ref] && !isNumeric(ref) {
				return fmt.Errorf("%s: unknown reference %q", where, ref)
			}
		}
		if step.Let != "" {
			if isNumeric(step.Let) {
				return fmt.Errorf("%s: label %q must not be a number", where, step.Let)
			}
			labels[step.Let] = true
		}
		if step.Select != nil {
			if err := validateBuild(where+".select.", step.Select.Kind, step.Select.Steps); err != nil {
				return err
			}
		}
	}
	return nil
}

// arity lists the accepted number of args per op (min, max; -1 = unbounded).
var arity = map[string][2]int{
	OpLiteral:      {0, 0},
	OpIdent:        {0, 0},
	OpParam:        {0, 0},
	OpExpr:         {0, 0},
	OpCond:         {1, 3},
	OpCondV:        {1, -1},
	OpFunction:     {0, -1},
	OpCase:         {2, -1},
	OpSubSelect:    {0, 0},
	OpAddField:     {1, 2},
	OpAddValue:     {0, 0},
	OpAddExpr:      {1, 1},
	OpAddTarget:    {1, 1},
	OpJoin:         {2, 3},
	OpJoinField:    {1, 1},
	OpOrderBy:      {1, 1},
	OpDistinct:     {0, 1},
	OpLimit:        {1, 2},
	OpHaving:       {1, 1},
	OpGroupBy:      {0, 1},
	OpWhere:        {1, 1},
	OpTable:        {0, 0},
	OpOnConflict:   {0, 0},
	OpCompoundType: {0, 0},
	OpCompoundAdd:  {0, 0},
}

func validateStep(where string, step Step) error {
	if step.Op == "" {
		return fmt.Errorf("%s: op is required", where)
	}
	bounds, ok := arity[step.Op]
	if !ok {
		return fmt.Errorf("%s: unknown op %q", where, step.Op)
	}
	n := len(step.Args)
	if n < bounds[0] || (bounds[1] >= 0 && n > bounds[1]) {
		return fmt.Errorf("%s: %s takes %s args, got %d", where, step.Op, describeArity(bounds), n)
	}

	switch step.Op {
	case OpLiteral:
		if step.Value == nil {
			return fmt.Errorf("%s: value is required for %s", where, step.Op)
		}
	case OpIdent, OpParam, OpFunction, OpAddValue, OpAddExpr, OpJoinField, OpTable, OpOnConflict:
		if step.Name == "" {
			return fmt.Errorf("%s: name is required for %s", where, step.Op)
		}
	case OpCond, OpCondV:
		if _, ok := sqlstmt.ParseOperator(step.Operator); !ok {
			return fmt.Errorf("%s: unknown operator %q", where, step.Operator)
		}
	case OpCase:
		if n%2 != 0 {
			return fmt.Errorf("%s: case args must be when/then pairs", where)
		}
	case OpJoin:
		if _, ok := sqlstmt.ParseJoinType(step.Type); !ok {
			return fmt.Errorf("%s: unknown join type %q", where, step.Type)
		}
	case OpCompoundType:
		if _, ok := sqlstmt.ParseCompoundType(step.Type); !ok {
			return fmt.Errorf("%s: unknown compound type %q", where, step.Type)
		}
	case OpSubSelect, OpCompoundAdd:
		if step.Select == nil {
			return fmt.Errorf("%s: select is required for %s", where, step.Op)
		}
	}
	return nil
}

func describeArity(b [2]int) string {
	switch {
	case b[0] == b[1]:
		return fmt.Sprintf("%d", b[0])
	case b[1] < 0:
		return fmt.Sprintf("at least %d", b[0])
	default:
		return fmt.Sprintf("%d to %d", b[0], b[1])
	}
}

// refs returns every reference the step makes.
func (s Step) refs() []string {
	refs := append([]string(nil), s.Args...)
	if s.Base != "" {
		refs = append(refs, s.Base)
	}
	if s.Else != "" {
		refs = append(refs, s.Else)
	}
	return refs
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
