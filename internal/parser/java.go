package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// javaStrategy extracts symbols from Java sources.
//
// Methods and constructors are qualified with their enclosing type
// ("Order.confirm") and registered under both the qualified and bare
// name, so ship() and this.ship() style invocations both resolve.
type javaStrategy struct{}

func (javaStrategy) extract(root *sitter.Node, e *extraction) {
	// The package declaration only counts at the top level.
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "package_declaration" {
			e.record.Package = childOfType(child, e.src, "scoped_identifier", "identifier")
			break
		}
	}

	javaWalk(root, e, "", "")
}

// javaWalk descends the tree carrying the enclosing type name and the
// symbol ID of the enclosing method, which owns any invocations found
// below it.
func javaWalk(n *sitter.Node, e *extraction, class, caller string) {
	switch n.Type() {
	case "class_declaration", "interface_declaration":
		if name := childOfType(n, e.src, "identifier"); name != "" {
			kind := KindClass
			if n.Type() == "interface_declaration" {
				kind = KindInterface
			}
			e.declare(e.newSymbol(name, kind, n, ""), name)
			e.record.Classes = append(e.record.Classes, name)

			for i := 0; i < int(n.ChildCount()); i++ {
				javaWalk(n.Child(i), e, name, caller)
			}
			return
		}

	case "method_declaration", "constructor_declaration":
		if name := childOfType(n, e.src, "identifier"); name != "" {
			full := name
			if class != "" {
				full = class + "." + name
			}
			sym := e.newSymbol(full, KindMethod, n, firstLine(n, e.src))
			e.declare(sym, full, name)
			e.record.Functions = append(e.record.Functions, full)

			for i := 0; i < int(n.ChildCount()); i++ {
				javaWalk(n.Child(i), e, class, sym.ID)
			}
			return
		}

	case "method_invocation":
		if caller != "" {
			if name := invokedName(n, e.src); name != "" {
				e.queueCall(name, class, caller)
			}
		}

	case "import_declaration":
		if path := importPath(n.Content(e.src)); path != "" {
			e.record.Imports = append(e.record.Imports, path)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		javaWalk(n.Child(i), e, class, caller)
	}
}

// invokedName returns the method name of a method_invocation node,
// skipping any receiver expression before the dot.
func invokedName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

// importPath strips the import keyword and trailing semicolon, keeping
// any static modifier: "import static a.B.c;" becomes "static a.B.c".
func importPath(raw string) string {
	path := strings.TrimPrefix(strings.TrimSpace(raw), "import")
	path = strings.TrimSuffix(strings.TrimSpace(path), ";")
	return strings.TrimSpace(path)
}
