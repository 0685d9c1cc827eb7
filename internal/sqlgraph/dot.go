// Package sqlgraph exports statement trees as Graphviz DOT graphs.
//
// Each node becomes a table-shaped vertex showing its kind and scalar
// attributes; each owned child becomes an edge labeled by the field that
// holds it. Node names are assigned in traversal order, so the output is
// stable for a given tree.
package sqlgraph

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

type attr struct {
	name, value string
}

// WriteDOT writes the tree rooted at root as a DOT digraph.
func WriteDOT(w io.Writer, root sqlstmt.Part) error {
	var nodes []sqlstmt.Part
	ids := make(map[sqlstmt.Part]int)
	sqlstmt.Foreach(root, func(p sqlstmt.Part) bool {
		ids[p] = len(nodes)
		nodes = append(nodes, p)
		return true
	})

	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("\tnode [shape=plaintext];\n")
	for i, p := range nodes {
		writeNode(&b, i, p)
	}
	for i, p := range nodes {
		for _, c := range sqlstmt.Children(p) {
			fmt.Fprintf(&b, "\tn%d -> n%d [label=%s];\n", i, ids[c.Part], strconv.Quote(c.Label))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, id int, p sqlstmt.Part) {
	fmt.Fprintf(b, "\tn%d [label=<<TABLE BORDER=\"0\" CELLBORDER=\"1\" CELLSPACING=\"0\" CELLPADDING=\"4\"><TR><TD>%s</TD></TR>", id, p.Kind())
	if attrs := attributes(p); len(attrs) > 0 {
		b.WriteString("<TR><TD BALIGN=\"LEFT\">")
		for i, a := range attrs {
			if i > 0 {
				b.WriteString("<BR/>")
			}
			b.WriteString(a.name)
			b.WriteByte('=')
			b.WriteString(escape(a.value))
		}
		b.WriteString("</TD></TR>")
	}
	b.WriteString("</TABLE>>")
	if p.Kind() == sqlstmt.KindParamSpec {
		b.WriteString(",color=\"deepskyblue\"")
	}
	b.WriteString("];\n")
}

func boolAttr(name string, v bool) attr {
	if v {
		return attr{name, "TRUE"}
	}
	return attr{name, "FALSE"}
}

func attributes(p sqlstmt.Part) []attr {
	switch n := p.(type) {
	case *sqlstmt.Statement:
		attrs := []attr{{"type", n.Type().String()}}
		if n.SQL != "" {
			attrs = append(attrs, attr{"sql", n.SQL})
		}
		return attrs
	case *sqlstmt.Select:
		return []attr{boolAttr("distinct", n.Distinct)}
	case *sqlstmt.Insert:
		if n.OnConflict != "" {
			return []attr{{"on_conflict", n.OnConflict}}
		}
	case *sqlstmt.Compound:
		return []attr{{"type", n.Type.String()}}
	case *sqlstmt.Trans:
		var attrs []attr
		if n.Isolation != sqlstmt.IsolationUnknown {
			attrs = append(attrs, attr{"isolation", n.Isolation.String()})
		}
		if n.Mode != "" {
			attrs = append(attrs, attr{"mode", n.Mode})
		}
		if n.Name != "" {
			attrs = append(attrs, attr{"name", n.Name})
		}
		return attrs
	case *sqlstmt.Expr:
		var attrs []attr
		if v, ok := n.ValueString(); ok {
			attrs = append(attrs, attr{"value", v})
		}
		if n.ValueIsIdent {
			attrs = append(attrs, boolAttr("sqlident", true))
		}
		if n.CastAs != "" {
			attrs = append(attrs, attr{"cast_as", n.CastAs})
		}
		return attrs
	case *sqlstmt.ParamSpec:
		return []attr{
			{"name", n.Name},
			{"type", n.Type},
			boolAttr("is_param", n.IsParam),
			boolAttr("nullok", n.NullOK),
		}
	case *sqlstmt.Field:
		return []attr{{"name", n.Name}}
	case *sqlstmt.Table:
		return []attr{{"name", n.Name}}
	case *sqlstmt.Function:
		return []attr{{"name", n.Name}}
	case *sqlstmt.Operation:
		return []attr{{"operator", n.Operator.String()}}
	case *sqlstmt.SelectField:
		var attrs []attr
		if n.As != "" {
			attrs = append(attrs, attr{"as", n.As})
		}
		return attrs
	case *sqlstmt.SelectTarget:
		var attrs []attr
		if n.TableName != "" {
			attrs = append(attrs, attr{"table_name", n.TableName})
		}
		if n.As != "" {
			attrs = append(attrs, attr{"as", n.As})
		}
		return attrs
	case *sqlstmt.Join:
		return []attr{{"type", n.Type.String()}, {"position", strconv.Itoa(n.Position)}}
	case *sqlstmt.Order:
		attrs := []attr{boolAttr("asc", n.Asc)}
		if n.Collation != "" {
			attrs = append(attrs, attr{"collation", n.Collation})
		}
		return attrs
	}
	return nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
