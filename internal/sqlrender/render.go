// Package sqlrender renders statement trees as SQLite SQL.
//
// Parameter placeholders become "?" and their bound values are returned as
// positional arguments in placeholder order, so values are never
// interpolated into the SQL text. Literal values already present in the
// tree are written verbatim.
//
// Only validated statements are rendered: Render runs sqlstmt.Validate
// first and refuses a statement that fails either pass.
package sqlrender

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

var (
	// ErrUnsupported is returned for constructs SQLite cannot express
	// (e.g., DISTINCT ON, INTERSECT ALL).
	ErrUnsupported = errors.New("not supported by SQLite")

	// ErrUnbound is returned when a parameter has no binding.
	ErrUnbound = errors.New("unbound parameter")
)

// Renderer renders statements to parameterized SQLite SQL.
type Renderer struct {
	// Bindings holds the values of named parameters.
	Bindings map[string]any

	allowUnbound bool
	skipValidate bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBindings sets the parameter values.
func WithBindings(b map[string]any) Option {
	return func(r *Renderer) {
		for k, v := range b {
			r.Bindings[k] = v
		}
	}
}

// WithAllowUnbound renders unbound parameters with a nil argument instead
// of failing. Used to show the shape of a statement before binding.
func WithAllowUnbound() Option {
	return func(r *Renderer) {
		r.allowUnbound = true
	}
}

// WithoutValidation skips sqlstmt.Validate. Intended for callers that have
// just validated the statement themselves.
func WithoutValidation() Option {
	return func(r *Renderer) {
		r.skipValidate = true
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{Bindings: make(map[string]any)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Params returns the parameter specifications of the tree in traversal
// order.
func Params(root sqlstmt.Part) []*sqlstmt.ParamSpec {
	var out []*sqlstmt.ParamSpec
	sqlstmt.Foreach(root, func(p sqlstmt.Part) bool {
		if ps, ok := p.(*sqlstmt.ParamSpec); ok {
			out = append(out, ps)
		}
		return true
	})
	return out
}

// Render converts stmt to SQL and its positional arguments.
func (r *Renderer) Render(stmt *sqlstmt.Statement) (string, []any, error) {
	if !r.skipValidate {
		if err := sqlstmt.Validate(stmt); err != nil {
			return "", nil, fmt.Errorf("refusing to render: %w", err)
		}
	}
	if err := r.checkBindings(stmt); err != nil {
		return "", nil, err
	}
	w := &writer{r: r}
	if err := w.contents(stmt.Contents); err != nil {
		return "", nil, err
	}
	return w.String(), w.args, nil
}

func (r *Renderer) checkBindings(stmt *sqlstmt.Statement) error {
	var missing []string
	for _, ps := range Params(stmt) {
		if _, ok := r.Bindings[ps.Name]; ok {
			continue
		}
		if r.allowUnbound {
			continue
		}
		missing = append(missing, ps.Name)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnbound, strings.Join(missing, ", "))
	}
	return nil
}

type writer struct {
	strings.Builder
	r    *Renderer
	args []any
}

func unsupported(what string) error {
	return fmt.Errorf("%s: %w", what, ErrUnsupported)
}

func (w *writer) contents(c sqlstmt.Contents) error {
	switch n := c.(type) {
	case *sqlstmt.Select:
		return w.selectStmt(n)
	case *sqlstmt.Insert:
		return w.insert(n)
	case *sqlstmt.Update:
		return w.update(n)
	case *sqlstmt.Delete:
		w.WriteString("DELETE FROM ")
		w.WriteString(ident(n.Table.Name))
		return w.where(n.Where)
	case *sqlstmt.Compound:
		return w.compound(n)
	case *sqlstmt.Trans:
		return w.trans(n)
	case *sqlstmt.Unknown:
		for i, e := range n.Exprs {
			if i > 0 {
				w.WriteByte(' ')
			}
			if err := w.expr(e); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("cannot render %T", c)
}

func (w *writer) selectStmt(s *sqlstmt.Select) error {
	w.WriteString("SELECT ")
	if s.DistinctOn != nil {
		return unsupported("DISTINCT ON")
	}
	if s.Distinct {
		w.WriteString("DISTINCT ")
	}
	for i, f := range s.Fields {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := w.expr(f.Expr); err != nil {
			return err
		}
		if f.As != "" {
			w.WriteString(" AS ")
			w.WriteString(ident(f.As))
		}
	}
	if s.From != nil {
		if err := w.from(s.From); err != nil {
			return err
		}
	}
	if err := w.where(s.Where); err != nil {
		return err
	}
	if len(s.GroupBy) > 0 {
		w.WriteString(" GROUP BY ")
		if err := w.exprList(s.GroupBy); err != nil {
			return err
		}
	}
	if s.Having != nil {
		w.WriteString(" HAVING ")
		if err := w.expr(s.Having); err != nil {
			return err
		}
	}
	if len(s.OrderBy) > 0 {
		w.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := w.expr(o.Expr); err != nil {
				return err
			}
			if o.Collation != "" {
				w.WriteString(" COLLATE ")
				w.WriteString(o.Collation)
			}
			if o.Asc {
				w.WriteString(" ASC")
			} else {
				w.WriteString(" DESC")
			}
		}
	}
	if s.Limit != nil {
		w.WriteString(" LIMIT ")
		if err := w.expr(s.Limit); err != nil {
			return err
		}
		if s.Offset != nil {
			w.WriteString(" OFFSET ")
			if err := w.expr(s.Offset); err != nil {
				return err
			}
		}
	}
	return nil
}

var joinKeywords = map[sqlstmt.JoinType]string{
	sqlstmt.JoinCross:   " CROSS JOIN ",
	sqlstmt.JoinNatural: " NATURAL JOIN ",
	sqlstmt.JoinInner:   " INNER JOIN ",
	sqlstmt.JoinLeft:    " LEFT JOIN ",
	sqlstmt.JoinRight:   " RIGHT JOIN ",
	sqlstmt.JoinFull:    " FULL JOIN ",
}

func (w *writer) from(f *sqlstmt.From) error {
	joins := make(map[int]*sqlstmt.Join, len(f.Joins))
	for _, j := range f.Joins {
		joins[j.Position] = j
	}
	w.WriteString(" FROM ")
	for i, t := range f.Targets {
		j := joins[i]
		switch {
		case i == 0:
		case j != nil:
			w.WriteString(joinKeywords[j.Type])
		default:
			w.WriteString(", ")
		}
		if err := w.target(t); err != nil {
			return err
		}
		if j == nil || i == 0 {
			continue
		}
		if j.Cond != nil {
			w.WriteString(" ON ")
			if err := w.expr(j.Cond); err != nil {
				return err
			}
		}
		if len(j.Using) > 0 {
			w.WriteString(" USING (")
			for k, u := range j.Using {
				if k > 0 {
					w.WriteString(", ")
				}
				w.WriteString(ident(u.Name))
			}
			w.WriteByte(')')
		}
	}
	return nil
}

func (w *writer) target(t *sqlstmt.SelectTarget) error {
	switch {
	case t.Expr.Select != nil:
		if err := w.subSelect(t.Expr.Select); err != nil {
			return err
		}
	case t.TableName != "":
		w.WriteString(ident(t.TableName))
	default:
		if err := w.expr(t.Expr); err != nil {
			return err
		}
	}
	if t.As != "" {
		w.WriteString(" AS ")
		w.WriteString(ident(t.As))
	}
	return nil
}

func (w *writer) where(cond *sqlstmt.Expr) error {
	if cond == nil {
		return nil
	}
	w.WriteString(" WHERE ")
	return w.expr(cond)
}

func (w *writer) insert(ins *sqlstmt.Insert) error {
	w.WriteString("INSERT ")
	if ins.OnConflict != "" {
		w.WriteString("OR ")
		w.WriteString(strings.ToUpper(ins.OnConflict))
		w.WriteByte(' ')
	}
	w.WriteString("INTO ")
	w.WriteString(ident(ins.Table.Name))
	if len(ins.Fields) > 0 {
		w.WriteString(" (")
		for i, f := range ins.Fields {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(ident(f.Name))
		}
		w.WriteByte(')')
	}
	if ins.Select != nil {
		w.WriteByte(' ')
		return w.contents(ins.Select)
	}
	w.WriteString(" VALUES ")
	for i, row := range ins.Values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteByte('(')
		if err := w.exprList(row); err != nil {
			return err
		}
		w.WriteByte(')')
	}
	return nil
}

func (w *writer) update(u *sqlstmt.Update) error {
	w.WriteString("UPDATE ")
	w.WriteString(ident(u.Table.Name))
	w.WriteString(" SET ")
	for i, f := range u.Fields {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(ident(f.Name))
		w.WriteString(" = ")
		if err := w.expr(u.Exprs[i]); err != nil {
			return err
		}
	}
	return w.where(u.Where)
}

var compoundKeywords = map[sqlstmt.CompoundType]string{
	sqlstmt.CompoundUnion:     " UNION ",
	sqlstmt.CompoundUnionAll:  " UNION ALL ",
	sqlstmt.CompoundIntersect: " INTERSECT ",
	sqlstmt.CompoundExcept:    " EXCEPT ",
}

func (w *writer) compound(c *sqlstmt.Compound) error {
	kw, ok := compoundKeywords[c.Type]
	if !ok {
		return unsupported(c.Type.String())
	}
	for i, s := range c.Statements {
		if i > 0 {
			w.WriteString(kw)
		}
		if _, nested := s.Contents.(*sqlstmt.Compound); nested {
			return unsupported("nested compound statement")
		}
		if err := w.contents(s.Contents); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) trans(t *sqlstmt.Trans) error {
	if t.Isolation != sqlstmt.IsolationUnknown {
		return unsupported("isolation level " + t.Isolation.String())
	}
	switch t.Type {
	case sqlstmt.StmtBegin:
		w.WriteString("BEGIN")
		if t.Mode != "" {
			w.WriteByte(' ')
			w.WriteString(strings.ToUpper(t.Mode))
		}
		w.WriteString(" TRANSACTION")
	case sqlstmt.StmtCommit:
		w.WriteString("COMMIT")
	case sqlstmt.StmtRollback:
		w.WriteString("ROLLBACK")
	case sqlstmt.StmtSavepoint:
		w.WriteString("SAVEPOINT ")
		w.WriteString(ident(t.Name))
	case sqlstmt.StmtRollbackSavepoint:
		w.WriteString("ROLLBACK TO SAVEPOINT ")
		w.WriteString(ident(t.Name))
	case sqlstmt.StmtDeleteSavepoint:
		w.WriteString("RELEASE SAVEPOINT ")
		w.WriteString(ident(t.Name))
	default:
		return fmt.Errorf("cannot render %s transaction", t.Type)
	}
	return nil
}

func (w *writer) exprList(list []*sqlstmt.Expr) error {
	for i, e := range list {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := w.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) subSelect(c sqlstmt.Contents) error {
	w.WriteByte('(')
	if err := w.contents(c); err != nil {
		return err
	}
	w.WriteByte(')')
	return nil
}

func (w *writer) expr(e *sqlstmt.Expr) error {
	if e == nil {
		return fmt.Errorf("cannot render a missing expression")
	}
	if e.CastAs != "" {
		w.WriteString("CAST(")
		defer func() {
			w.WriteString(" AS ")
			w.WriteString(e.CastAs)
			w.WriteByte(')')
		}()
	}
	switch {
	case e.Cond != nil:
		return w.operation(e.Cond)
	case e.Func != nil:
		w.WriteString(e.Func.Name)
		w.WriteByte('(')
		if err := w.exprList(e.Func.Args); err != nil {
			return err
		}
		w.WriteByte(')')
	case e.Select != nil:
		return w.subSelect(e.Select)
	case e.Case != nil:
		return w.caseExpr(e.Case)
	case e.ParamSpec != nil:
		w.WriteByte('?')
		w.args = append(w.args, w.r.Bindings[e.ParamSpec.Name])
	case e.Value != nil:
		if e.ValueIsIdent {
			w.WriteString(ident(*e.Value))
		} else {
			w.WriteString(*e.Value)
		}
	default:
		w.WriteString("NULL")
	}
	return nil
}

func (w *writer) caseExpr(c *sqlstmt.Case) error {
	w.WriteString("CASE")
	if c.Base != nil {
		w.WriteByte(' ')
		if err := w.expr(c.Base); err != nil {
			return err
		}
	}
	for i := range c.When {
		w.WriteString(" WHEN ")
		if err := w.expr(c.When[i]); err != nil {
			return err
		}
		w.WriteString(" THEN ")
		if err := w.expr(c.Then[i]); err != nil {
			return err
		}
	}
	if c.Else != nil {
		w.WriteString(" ELSE ")
		if err := w.expr(c.Else); err != nil {
			return err
		}
	}
	w.WriteString(" END")
	return nil
}

// ident renders an identifier, double-quoting it unless it is a plain
// (possibly dotted) name or '*'.
func ident(name string) string {
	if isPlain(name) {
		return name
	}
	if len(name) > 1 && (name[0] == '"' || name[0] == '`') && name[len(name)-1] == name[0] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isPlain(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "*" {
			continue
		}
		if part == "" || (part[0] >= '0' && part[0] <= '9') {
			return false
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if !(c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				return false
			}
		}
	}
	return true
}
