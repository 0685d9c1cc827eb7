package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/GNOME/libgda-sub020/internal/sqlbuilder"
	"github.com/GNOME/libgda-sub020/internal/sqlrender"
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
	"github.com/GNOME/libgda-sub020/internal/store"
)

// Harness executes scenarios.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger step progress is reported to.
// By default logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Apply every step to a fresh builder
//  2. Lower the builder and validate the statement
//  3. Compare the outcome against the expect clause
//
// Builder and validation failures are part of the outcome and are matched
// against expect.error. The returned error is reserved for scenarios that
// cannot be executed at all.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	result := NewResult()
	stmt, err := h.build(scenario.Kind, scenario.SQL, scenario.Steps, result)
	if err == nil {
		err = sqlstmt.Validate(stmt)
	}

	expect := scenario.Expect
	if expect == nil {
		expect = &Expect{}
	}

	if err != nil {
		code := ErrorCode(err)
		if code == "" {
			// Not a builder or validation outcome
			return nil, err
		}
		result.ErrorCode = code
		if expect.Error != code {
			result.AddError(fmt.Sprintf("unexpected error: %v", err))
		}
		h.logger.Info("scenario finished", "scenario", scenario.Name, "error_code", code, "pass", result.Pass)
		return result, nil
	}

	result.Statement = stmt
	result.Serialization = sqlstmt.Serialize(stmt)
	result.ContentHash = store.ContentHash(stmt)

	if expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, statement was built", expect.Error))
	}
	if expect.Serialization != "" && expect.Serialization != result.Serialization {
		result.AddError(fmt.Sprintf("serialization mismatch:\n  expected: %s\n  actual:   %s",
			expect.Serialization, result.Serialization))
	}
	if expect.SQL != "" {
		sql, _, err := sqlrender.New(sqlrender.WithAllowUnbound()).Render(stmt)
		if err != nil {
			result.AddError(fmt.Sprintf("render failed: %v", err))
		} else {
			result.SQL = sql
			if sql != expect.SQL {
				result.AddError(fmt.Sprintf("render mismatch:\n  expected: %s\n  actual:   %s", expect.SQL, sql))
			}
		}
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"type", stmt.Type().String(),
		"content_hash", result.ContentHash,
		"pass", result.Pass,
	)
	return result, nil
}

// ErrorCode returns the code of a builder, validation or parse error, or ""
// for any other error.
func ErrorCode(err error) string {
	var be *sqlbuilder.BuilderError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	var se *sqlstmt.StructuralError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	var me *sqlstmt.SemanticError
	if errors.As(err, &me) {
		return string(me.Code)
	}
	var pe *sqlstmt.ParseError
	if errors.As(err, &pe) {
		return string(sqlstmt.ErrCodeParse)
	}
	return ""
}

// runner applies steps to one builder. Nested builds get their own runner.
type runner struct {
	h      *Harness
	b      *sqlbuilder.Builder
	labels map[string]sqlbuilder.ID
}

// build applies steps to a new builder and lowers it. result is nil for
// nested builds, which are not traced.
func (h *Harness) build(kind, sql string, steps []Step, result *Result) (*sqlstmt.Statement, error) {
	t, ok := sqlstmt.ParseStatementType(kind)
	if !ok {
		return nil, fmt.Errorf("unknown statement kind %q", kind)
	}
	var opts []sqlbuilder.Option
	if sql != "" {
		opts = append(opts, sqlbuilder.WithSQL(sql))
	}
	opts = append(opts, sqlbuilder.WithLogger(h.logger))
	b, err := sqlbuilder.New(t, opts...)
	if err != nil {
		return nil, err
	}

	r := &runner{h: h, b: b, labels: make(map[string]sqlbuilder.ID)}
	for i, step := range steps {
		id, err := r.apply(step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if step.Let != "" {
			r.labels[step.Let] = id
		}
		if result != nil {
			result.AddStep(i, step.Op, uint32(id))
		}
		h.logger.Debug("step applied", "step", i, "op", step.Op, "id", id)
	}
	return b.Statement()
}

func (r *runner) apply(step Step) (sqlbuilder.ID, error) {
	b := r.b
	hint := sqlbuilder.ID(step.ID)
	ids, err := r.resolve(step.Args)
	if err != nil {
		return 0, err
	}

	switch step.Op {
	case OpLiteral:
		return b.Literal(hint, fmt.Sprint(step.Value))
	case OpIdent:
		return b.Ident(hint, step.Name)
	case OpParam:
		return b.Param(hint, step.Name, step.Type, step.Nullable)
	case OpExpr:
		return b.CastExpr(hint, step.Cast, step.Value)
	case OpCond, OpCondV:
		op, _ := sqlstmt.ParseOperator(step.Operator)
		if step.Op == OpCond {
			return b.Cond(hint, op, ids...)
		}
		return b.CondV(hint, op, ids)
	case OpFunction:
		return b.FunctionV(hint, step.Name, ids)
	case OpCase:
		base, err := r.optional(step.Base)
		if err != nil {
			return 0, err
		}
		elseID, err := r.optional(step.Else)
		if err != nil {
			return 0, err
		}
		return b.CaseExpr(hint, base, elseID, ids...)
	case OpSubSelect:
		stmt, err := r.h.build(step.Select.Kind, step.Select.SQL, step.Select.Steps, nil)
		if err != nil {
			return 0, err
		}
		return b.SubSelect(hint, stmt)
	case OpAddField:
		return ids[0], b.AddField(ids[0], at(ids, 1))
	case OpAddValue:
		return 0, b.AddFieldValue(step.Name, step.Value)
	case OpAddExpr:
		return ids[0], b.AddFieldValueAsExpr(step.Name, ids[0])
	case OpAddTarget:
		return b.SelectAddTargetID(hint, ids[0], step.Alias)
	case OpJoin:
		kind, _ := sqlstmt.ParseJoinType(step.Type)
		return b.SelectJoinTargets(ids[0], ids[1], kind, at(ids, 2))
	case OpJoinField:
		return ids[0], b.JoinAddField(ids[0], step.Name)
	case OpOrderBy:
		return ids[0], b.SelectOrderBy(ids[0], !step.Desc, step.Collation)
	case OpDistinct:
		return at(ids, 0), b.SelectSetDistinct(true, at(ids, 0))
	case OpLimit:
		return ids[0], b.SelectSetLimit(ids[0], at(ids, 1))
	case OpHaving:
		return ids[0], b.SelectSetHaving(ids[0])
	case OpGroupBy:
		return at(ids, 0), b.SelectGroupBy(at(ids, 0))
	case OpWhere:
		return ids[0], b.SetWhere(ids[0])
	case OpTable:
		return 0, b.SetTable(step.Name)
	case OpOnConflict:
		return 0, b.InsertSetOnConflict(step.Name)
	case OpCompoundType:
		t, _ := sqlstmt.ParseCompoundType(step.Type)
		return 0, b.CompoundSetType(t)
	case OpCompoundAdd:
		stmt, err := r.h.build(step.Select.Kind, step.Select.SQL, step.Select.Steps, nil)
		if err != nil {
			return 0, err
		}
		return 0, b.CompoundAddSubSelect(stmt)
	}
	return 0, fmt.Errorf("unknown op %q", step.Op)
}

// resolve maps references to builder ids.
func (r *runner) resolve(refs []string) ([]sqlbuilder.ID, error) {
	ids := make([]sqlbuilder.ID, len(refs))
	for i, ref := range refs {
		id, err := r.ref(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (r *runner) ref(ref string) (sqlbuilder.ID, error) {
	if id, ok := r.labels[ref]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown reference %q", ref)
	}
	return sqlbuilder.ID(n), nil
}

func (r *runner) optional(ref string) (sqlbuilder.ID, error) {
	if ref == "" {
		return 0, nil
	}
	return r.ref(ref)
}

func at(ids []sqlbuilder.ID, i int) sqlbuilder.ID {
	if i < len(ids) {
		return ids[i]
	}
	return 0
}
