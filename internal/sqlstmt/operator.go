package sqlstmt

// Operator identifies the operator of an Operation.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
	OpEq
	OpIs
	OpLike
	OpBetween
	OpGt
	OpLt
	OpGeq
	OpLeq
	OpDiff
	OpRegexp
	OpRegexpCI
	OpNotRegexp
	OpNotRegexpCI
	OpSimilar
	OpIsNull
	OpIsNotNull
	OpNot
	OpIn
	OpNotIn
	OpConcat
	OpPlus
	OpMinus
	OpStar
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitNot
	OpILike
	OpNotLike
	OpNotILike
)

// operatorNames holds the canonical operator strings used by the serializer.
var operatorNames = map[Operator]string{
	OpAnd:         "AND",
	OpOr:          "OR",
	OpEq:          "=",
	OpIs:          "IS",
	OpLike:        "LIKE",
	OpBetween:     "BETWEEN",
	OpGt:          ">",
	OpLt:          "<",
	OpGeq:         ">=",
	OpLeq:         "<=",
	OpDiff:        "!=",
	OpRegexp:      "RE",
	OpRegexpCI:    "CI_RE",
	OpNotRegexp:   "!RE",
	OpNotRegexpCI: "!CI_RE",
	OpSimilar:     "SIMILAR TO",
	OpIsNull:      "IS NULL",
	OpIsNotNull:   "IS NOT NULL",
	OpNot:         "NOT",
	OpIn:          "IN",
	OpNotIn:       "NOT IN",
	OpConcat:      "||",
	OpPlus:        "+",
	OpMinus:       "-",
	OpStar:        "*",
	OpDiv:         "/",
	OpRem:         "%",
	OpBitAnd:      "&",
	OpBitOr:       "|",
	OpBitNot:      "~",
	OpILike:       "ILIKE",
	OpNotLike:     "NOT LIKE",
	OpNotILike:    "NOT ILIKE",
}

var operatorByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[name] = op
	}
	return m
}()

// operatorAliases accepts symbolic names in scenario files and CLI input.
var operatorAliases = map[string]Operator{
	"EQ":        OpEq,
	"NE":        OpDiff,
	"DIFF":      OpDiff,
	"GT":        OpGt,
	"LT":        OpLt,
	"GEQ":       OpGeq,
	"LEQ":       OpLeq,
	"ISNULL":    OpIsNull,
	"ISNOTNULL": OpIsNotNull,
	"NOTIN":     OpNotIn,
	"NOTLIKE":   OpNotLike,
	"NOTILIKE":  OpNotILike,
	"CONCAT":    OpConcat,
	"PLUS":      OpPlus,
	"MINUS":     OpMinus,
	"STAR":      OpStar,
	"DIV":       OpDiv,
	"REM":       OpRem,
	"BITAND":    OpBitAnd,
	"BITOR":     OpBitOr,
	"BITNOT":    OpBitNot,
	"SIMILAR":   OpSimilar,
	"REGEXP":    OpRegexp,
}

// String returns the canonical operator string (e.g., "=" or "NOT IN").
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "Operator(?)"
}

// ParseOperator resolves a canonical operator string or a symbolic alias
// such as "EQ" or "NOTIN".
func ParseOperator(s string) (Operator, bool) {
	if op, ok := operatorByName[s]; ok {
		return op, true
	}
	op, ok := operatorAliases[s]
	return op, ok
}

// arity returns the accepted operand count range; max < 0 means unbounded.
func (op Operator) arity() (min, max int, ok bool) {
	switch op {
	case OpEq, OpIs, OpLike, OpNotLike, OpILike, OpNotILike,
		OpGt, OpLt, OpGeq, OpLeq, OpDiff,
		OpRegexp, OpRegexpCI, OpNotRegexp, OpNotRegexpCI,
		OpSimilar, OpRem, OpDiv, OpBitAnd, OpBitOr:
		return 2, 2, true
	case OpBetween:
		return 3, 3, true
	case OpBitNot, OpIsNull, OpIsNotNull, OpNot:
		return 1, 1, true
	case OpAnd, OpOr, OpIn, OpNotIn, OpConcat, OpStar:
		return 2, -1, true
	case OpMinus, OpPlus:
		return 1, -1, true
	default:
		return 0, 0, false
	}
}
