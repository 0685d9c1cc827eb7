package sqlstmt

import "fmt"

// CheckSemantics runs the semantic pass over the tree rooted at p. Rules
// in this pass need sibling visibility: within every FROM clause, no two
// targets may share the same effective name.
//
// CheckSemantics assumes the structural pass succeeded; call Validate to
// run both in order.
func CheckSemantics(p Part) error {
	return walk(p, "", semanticNode)
}

func semanticNode(p Part, path string) error {
	sel, ok := p.(*Select)
	if !ok || sel.From == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(sel.From.Targets))
	for _, t := range sel.From.Targets {
		if t == nil {
			continue
		}
		name := t.EffectiveName()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return &SemanticError{
				Code:    ErrCodeDuplicateTarget,
				Message: fmt.Sprintf("Multiple targets named or aliased '%s'", name),
				Kind:    KindSelect,
				Path:    path,
			}
		}
		seen[name] = struct{}{}
	}
	return nil
}
