// Package sqlbuilder assembles sqlstmt statements from a flat id table.
//
// Callers register expressions (literals, parameters, conditions, function
// calls, sub-selects, CASE) and get back an ID. Later calls reference those
// IDs instead of tree nodes, so the caller never wires parent pointers or
// worries about sharing. Statement lowers the table into an owned tree,
// copying every referenced entry so that no node object appears twice.
//
// Example:
//
//	b := sqlbuilder.New(sqlstmt.StmtSelect)
//	b.AddField(b.MustLiteral(0, "name"), 0)
//	b.SelectAddTarget(b.MustLiteral(0, "mytable"), "")
//	stmt, err := b.Statement()
//
// A Builder is not safe for concurrent use.
package sqlbuilder

import (
	"fmt"
	"log/slog"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// ID identifies an entry of a builder's id table. Zero means "none" when
// passed as a reference and "allocate" when passed as an id hint.
type ID uint32

// DefaultMaxID bounds explicit id hints so that a stray hint cannot grow
// the table without limit.
const DefaultMaxID ID = 1 << 20

// slot is one arena entry: an expression, a FROM target, or a join.
type slot struct {
	expr   *sqlstmt.Expr
	target *targetRef
	join   *joinRef
}

type targetRef struct {
	exprID ID
	alias  string
}

type joinRef struct {
	typ    sqlstmt.JoinType
	left   ID
	right  ID
	cond   ID
	fields []string
}

type fieldRef struct {
	exprID ID
	alias  string
}

type columnRef struct {
	name    string
	valueID ID
}

type orderRef struct {
	exprID    ID
	asc       bool
	collation string
}

// Builder incrementally assembles one top-level statement.
//
// Explicit hints index slots from the bottom; ids allocated for hint 0 count
// down from maxID and live in auto, so caller-chosen small ids never land on
// an entry the builder handed out itself.
type Builder struct {
	kind   sqlstmt.StatementType
	slots  []*slot // indexed by ID; slots[0] is unused
	auto   []*slot // auto[i] holds id maxID-i
	maxID  ID
	sql    string
	logger *slog.Logger

	lowered bool

	// SELECT
	distinct   bool
	distinctOn ID
	selFields  []fieldRef
	targets    []ID
	joins      []ID
	where      ID
	groupBy    []ID
	having     ID
	orderBy    []orderRef
	limit      ID
	offset     ID

	// INSERT / UPDATE / DELETE
	table      string
	columns    []columnRef
	insSelect  ID
	onConflict string

	// COMPOUND
	compoundType sqlstmt.CompoundType
	subs         []*sqlstmt.Statement
}

// Option configures a Builder.
type Option func(*Builder)

// WithSQL records the original SQL text on every lowered statement.
func WithSQL(text string) Option {
	return func(b *Builder) {
		b.sql = text
	}
}

// WithMaxID overrides DefaultMaxID.
func WithMaxID(max ID) Option {
	return func(b *Builder) {
		b.maxID = max
	}
}

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// New creates an empty builder for a SELECT, INSERT, UPDATE, DELETE or
// COMPOUND statement.
func New(kind sqlstmt.StatementType, opts ...Option) (*Builder, error) {
	switch kind {
	case sqlstmt.StmtSelect, sqlstmt.StmtInsert, sqlstmt.StmtUpdate, sqlstmt.StmtDelete, sqlstmt.StmtCompound:
	default:
		return nil, invalidArg("cannot build %s statements", kind)
	}
	b := &Builder{
		kind:   kind,
		slots:  []*slot{nil},
		maxID:  DefaultMaxID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with a constant kind.
func MustNew(kind sqlstmt.StatementType, opts ...Option) *Builder {
	b, err := New(kind, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Kind returns the statement kind the builder targets.
func (b *Builder) Kind() sqlstmt.StatementType {
	return b.kind
}

// Len returns the number of registered table entries.
func (b *Builder) Len() int {
	n := 0
	for _, s := range b.slots {
		if s != nil {
			n++
		}
	}
	for _, s := range b.auto {
		if s != nil {
			n++
		}
	}
	return n
}

func (b *Builder) mutable() error {
	if b.lowered {
		return ErrLowered
	}
	return nil
}

// inAuto reports whether id (at most maxID) falls in the allocated top range.
func (b *Builder) inAuto(id ID) bool {
	return int64(b.maxID-id) < int64(len(b.auto))
}

// slotAt returns the entry registered at id, or nil.
func (b *Builder) slotAt(id ID) *slot {
	switch {
	case id == 0 || id > b.maxID:
		return nil
	case b.inAuto(id):
		return b.auto[b.maxID-id]
	case int(id) < len(b.slots):
		return b.slots[id]
	}
	return nil
}

// allocate reserves the next id counting down from maxID. An entry a hint
// already placed there moves into the top range with it.
func (b *Builder) allocate() (ID, error) {
	for {
		if ID(len(b.auto)) >= b.maxID {
			return 0, invalidArg("id table is full (maximum %d)", b.maxID)
		}
		id := b.maxID - ID(len(b.auto))
		var held *slot
		if int(id) < len(b.slots) {
			held = b.slots[id]
			b.slots[id] = nil
		}
		b.auto = append(b.auto, held)
		if held == nil {
			return id, nil
		}
	}
}

// put stores s at hint, or at a fresh id when hint is zero.
// A hint naming a target or join entry is rejected.
func (b *Builder) put(hint ID, s *slot) (ID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}
	if hint == 0 {
		id, err := b.allocate()
		if err != nil {
			return 0, err
		}
		b.auto[b.maxID-id] = s
		return id, nil
	}
	if hint > b.maxID {
		return 0, invalidArg("id %d exceeds the maximum of %d", hint, b.maxID)
	}
	if old := b.slotAt(hint); old != nil && old.expr == nil {
		return 0, &BuilderError{Code: ErrCodeInvalidArgument, Message: "id is held by a target or join", ID: hint}
	}
	if b.inAuto(hint) {
		b.auto[b.maxID-hint] = s
		return hint, nil
	}
	for int(hint) >= len(b.slots) {
		b.slots = append(b.slots, nil)
	}
	b.slots[hint] = s
	return hint, nil
}

// exprAt returns the expression registered at id.
func (b *Builder) exprAt(id ID) (*sqlstmt.Expr, error) {
	s := b.slotAt(id)
	if s == nil {
		return nil, unknownID(id)
	}
	if s.expr == nil {
		return nil, &BuilderError{Code: ErrCodeInvalidArgument, Message: "id does not name an expression", ID: id}
	}
	return s.expr, nil
}

// optExpr validates an optional expression reference (0 = none).
func (b *Builder) optExpr(id ID) error {
	if id == 0 {
		return nil
	}
	_, err := b.exprAt(id)
	return err
}

// copyAt returns an independent copy of the expression at id, or nil for 0.
func (b *Builder) copyAt(id ID) (*sqlstmt.Expr, error) {
	if id == 0 {
		return nil, nil
	}
	e, err := b.exprAt(id)
	if err != nil {
		return nil, err
	}
	return sqlstmt.Copy(e), nil
}

func (b *Builder) requireKind(op string, kinds ...sqlstmt.StatementType) error {
	if err := b.mutable(); err != nil {
		return err
	}
	for _, k := range kinds {
		if b.kind == k {
			return nil
		}
	}
	return wrongKind(op, b.kind)
}

// Statement lowers the id table into a fully owned Statement.
//
// Every call returns a new, independent tree: each referenced entry is
// deep-copied into place, so an id used at several positions yields
// several distinct nodes. Statement fails with ErrIncomplete when the
// statement has no fields (SELECT), no table (INSERT/UPDATE/DELETE) or no
// sub-select (COMPOUND). Optional clauses such as WHERE may be missing;
// run sqlstmt.Validate on the result to enforce per-kind shape.
func (b *Builder) Statement() (*sqlstmt.Statement, error) {
	contents, err := b.lower()
	if err != nil {
		return nil, err
	}
	stmt, err := sqlstmt.NewStatement(contents)
	if err != nil {
		return nil, fmt.Errorf("lower %s statement: %w", b.kind, err)
	}
	stmt.SQL = b.sql
	b.logger.Debug("lowered statement", "kind", b.kind.String(), "entries", b.Len())
	return stmt, nil
}

// Finalize lowers the statement and locks the builder: every later
// mutation fails with ErrLowered. Statement may still be called to obtain
// further independent copies.
func (b *Builder) Finalize() (*sqlstmt.Statement, error) {
	if b.lowered {
		return nil, ErrLowered
	}
	stmt, err := b.Statement()
	if err != nil {
		return nil, err
	}
	b.lowered = true
	return stmt, nil
}

// Lowered reports whether Finalize has run.
func (b *Builder) Lowered() bool {
	return b.lowered
}

func (b *Builder) lower() (sqlstmt.Contents, error) {
	switch b.kind {
	case sqlstmt.StmtSelect:
		return b.lowerSelect()
	case sqlstmt.StmtInsert:
		return b.lowerInsert()
	case sqlstmt.StmtUpdate:
		return b.lowerUpdate()
	case sqlstmt.StmtDelete:
		if b.table == "" {
			return nil, incomplete("DELETE statement has no table")
		}
		where, err := b.copyAt(b.where)
		if err != nil {
			return nil, err
		}
		return &sqlstmt.Delete{Table: &sqlstmt.Table{Name: b.table}, Where: where}, nil
	case sqlstmt.StmtCompound:
		if len(b.subs) == 0 {
			return nil, incomplete("COMPOUND statement has no sub-select")
		}
		c := &sqlstmt.Compound{Type: b.compoundType}
		for _, s := range b.subs {
			c.Statements = append(c.Statements, sqlstmt.Copy(s))
		}
		return c, nil
	}
	return nil, wrongKind("lowering", b.kind)
}

func (b *Builder) lowerSelect() (*sqlstmt.Select, error) {
	if len(b.selFields) == 0 {
		return nil, incomplete("SELECT statement has no field")
	}
	sel := &sqlstmt.Select{Distinct: b.distinct}
	var err error
	if sel.DistinctOn, err = b.copyAt(b.distinctOn); err != nil {
		return nil, err
	}
	for _, f := range b.selFields {
		e, err := b.copyAt(f.exprID)
		if err != nil {
			return nil, err
		}
		sel.Fields = append(sel.Fields, &sqlstmt.SelectField{Expr: e, As: f.alias})
	}
	if len(b.targets) > 0 {
		from := &sqlstmt.From{}
		for _, id := range b.targets {
			t := b.slotAt(id).target
			e, err := b.copyAt(t.exprID)
			if err != nil {
				return nil, err
			}
			from.Targets = append(from.Targets, &sqlstmt.SelectTarget{Expr: e, As: t.alias})
		}
		for _, id := range b.joins {
			j := b.slotAt(id).join
			cond, err := b.copyAt(j.cond)
			if err != nil {
				return nil, err
			}
			join := &sqlstmt.Join{Type: j.typ, Position: b.targetPos(j.right), Cond: cond}
			for _, name := range j.fields {
				join.Using = append(join.Using, &sqlstmt.Field{Name: name})
			}
			from.Joins = append(from.Joins, join)
		}
		sel.From = from
	}
	if sel.Where, err = b.copyAt(b.where); err != nil {
		return nil, err
	}
	for _, id := range b.groupBy {
		e, err := b.copyAt(id)
		if err != nil {
			return nil, err
		}
		sel.GroupBy = append(sel.GroupBy, e)
	}
	if sel.Having, err = b.copyAt(b.having); err != nil {
		return nil, err
	}
	for _, o := range b.orderBy {
		e, err := b.copyAt(o.exprID)
		if err != nil {
			return nil, err
		}
		sel.OrderBy = append(sel.OrderBy, &sqlstmt.Order{Expr: e, Asc: o.asc, Collation: o.collation})
	}
	if sel.Limit, err = b.copyAt(b.limit); err != nil {
		return nil, err
	}
	if sel.Offset, err = b.copyAt(b.offset); err != nil {
		return nil, err
	}
	return sel, nil
}

func (b *Builder) lowerInsert() (*sqlstmt.Insert, error) {
	if b.table == "" {
		return nil, incomplete("INSERT statement has no table")
	}
	ins := &sqlstmt.Insert{Table: &sqlstmt.Table{Name: b.table}}
	var row []*sqlstmt.Expr
	for _, c := range b.columns {
		ins.Fields = append(ins.Fields, &sqlstmt.Field{Name: c.name})
		if c.valueID == 0 {
			continue
		}
		e, err := b.copyAt(c.valueID)
		if err != nil {
			return nil, err
		}
		row = append(row, e)
	}
	if row != nil {
		ins.Values = [][]*sqlstmt.Expr{row}
	}
	if b.insSelect != 0 {
		e, err := b.exprAt(b.insSelect)
		if err != nil {
			return nil, err
		}
		ins.Select = sqlstmt.Copy(e.Select)
		sqlstmt.Detach(ins.Select)
	}
	ins.OnConflict = b.onConflict
	return ins, nil
}

func (b *Builder) lowerUpdate() (*sqlstmt.Update, error) {
	if b.table == "" {
		return nil, incomplete("UPDATE statement has no table")
	}
	upd := &sqlstmt.Update{Table: &sqlstmt.Table{Name: b.table}}
	for _, c := range b.columns {
		e, err := b.copyAt(c.valueID)
		if err != nil {
			return nil, err
		}
		upd.Fields = append(upd.Fields, &sqlstmt.Field{Name: c.name})
		upd.Exprs = append(upd.Exprs, e)
	}
	var err error
	if upd.Where, err = b.copyAt(b.where); err != nil {
		return nil, err
	}
	return upd, nil
}

// targetPos returns the position of a target id within the FROM list, or -1.
func (b *Builder) targetPos(id ID) int {
	for i, t := range b.targets {
		if t == id {
			return i
		}
	}
	return -1
}
