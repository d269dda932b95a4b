package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// scriptStrategy extracts symbols from TypeScript and JavaScript
// sources. The grammars differ but agree on every node type used here,
// so one strategy serves .ts, .tsx, .js, and .jsx files.
//
// Class names are type_identifier nodes in the TypeScript grammar and
// identifier nodes in the JavaScript one; both are accepted. Methods
// are only emitted inside a class body. Import and export statements
// keep their full source text.
type scriptStrategy struct{}

func (scriptStrategy) extract(root *sitter.Node, e *extraction) {
	if e.record.Exports == nil {
		e.record.Exports = []string{}
	}
	scriptWalk(root, e, "", "")
}

// scriptWalk descends the tree carrying the symbol ID of the enclosing
// function or method (the owner of any calls below) and the enclosing
// class name.
func scriptWalk(n *sitter.Node, e *extraction, caller, class string) {
	switch n.Type() {
	case "function_declaration":
		if name := childOfType(n, e.src, "identifier"); name != "" {
			sym := e.newSymbol(name, KindFunction, n, firstLine(n, e.src))
			e.declare(sym, name)
			e.record.Functions = append(e.record.Functions, name)

			for i := 0; i < int(n.ChildCount()); i++ {
				scriptWalk(n.Child(i), e, sym.ID, class)
			}
			return
		}

	case "class_declaration":
		if name := childOfType(n, e.src, "identifier", "type_identifier"); name != "" {
			e.declare(e.newSymbol(name, KindClass, n, ""), name)
			e.record.Classes = append(e.record.Classes, name)

			for i := 0; i < int(n.ChildCount()); i++ {
				scriptWalk(n.Child(i), e, caller, name)
			}
			return
		}

	case "interface_declaration":
		if name := childOfType(n, e.src, "type_identifier"); name != "" {
			e.declare(e.newSymbol(name, KindInterface, n, ""), name)
			e.record.Classes = append(e.record.Classes, name)

			for i := 0; i < int(n.ChildCount()); i++ {
				scriptWalk(n.Child(i), e, caller, name)
			}
			return
		}

	case "method_definition":
		name := childOfType(n, e.src, "property_identifier")
		if name != "" && class != "" {
			full := class + "." + name
			sym := e.newSymbol(full, KindMethod, n, firstLine(n, e.src))
			e.declare(sym, full, name)
			e.record.Functions = append(e.record.Functions, full)

			for i := 0; i < int(n.ChildCount()); i++ {
				scriptWalk(n.Child(i), e, sym.ID, class)
			}
			return
		}

	case "call_expression":
		if caller != "" {
			if name := calledName(n, e.src); name != "" {
				e.queueCall(name, class, caller)
			}
		}

	case "import_statement":
		e.record.Imports = append(e.record.Imports, n.Content(e.src))

	case "export_statement", "export_default_declaration":
		e.record.Exports = append(e.record.Exports, n.Content(e.src))
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		scriptWalk(n.Child(i), e, caller, class)
	}
}

// calledName returns the callee of a call_expression: a bare identifier,
// or the property name of a member call like user.save().
func calledName(n *sitter.Node, src []byte) string {
	fn := n.Child(0)
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src)
	case "member_expression":
		return childOfType(fn, src, "property_identifier")
	}
	return ""
}
