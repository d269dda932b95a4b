package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// strategy extracts declarations from a parse tree. Implementations are
// stateless; all per-file state lives in the extraction.
type strategy interface {
	extract(root *sitter.Node, e *extraction)
}

// pendingCall is a call site waiting for resolution. class is the
// enclosing type at the call site, callerID the enclosing method or
// function.
type pendingCall struct {
	name     string
	class    string
	callerID string
}

// extraction accumulates the results of one parse.
type extraction struct {
	relPath string
	src     []byte
	record  *FileRecord
	out     *FileAnalysis
	byID    map[string]*Symbol
	pending []pendingCall

	// lookup maps declared names to symbol IDs for call resolution.
	// Methods register under both their qualified and bare name; a
	// later declaration of the same name takes over the slot.
	lookup map[string]string
}

func newExtraction(relPath string, src []byte, out *FileAnalysis) *extraction {
	return &extraction{
		relPath: relPath,
		src:     src,
		record:  &out.Record,
		out:     out,
		byID:    make(map[string]*Symbol),
		lookup:  make(map[string]string),
	}
}

// declare records a symbol and registers it for call resolution under
// each of the given names.
func (e *extraction) declare(sym *Symbol, names ...string) {
	e.out.Symbols = append(e.out.Symbols, sym)
	e.byID[sym.ID] = sym
	for _, name := range names {
		e.lookup[name] = sym.ID
	}
}

// queueCall records a call site for later resolution. Deferring until
// the whole file is walked lets calls reach declarations that appear
// further down the file; cross-file calls never resolve.
func (e *extraction) queueCall(name, class, callerID string) {
	e.pending = append(e.pending, pendingCall{name: name, class: class, callerID: callerID})
}

// resolve links queued calls against the completed lookup table. A name
// qualified with the caller's enclosing type wins over a bare one, so a
// call to m() inside class A prefers A.m over some other class's m.
// Names that match nothing are dropped.
func (e *extraction) resolve() {
	for _, call := range e.pending {
		var id string
		var ok bool
		if call.class != "" {
			id, ok = e.lookup[call.class+"."+call.name]
		}
		if !ok {
			id, ok = e.lookup[call.name]
		}
		if !ok {
			continue
		}
		e.byID[id].addCaller(call.callerID)
	}
}

// newSymbol builds a symbol anchored at the node's first line.
func (e *extraction) newSymbol(name string, kind SymbolKind, node *sitter.Node, signature string) *Symbol {
	return &Symbol{
		ID:        MakeSymbolID(e.relPath, name),
		Name:      name,
		Kind:      kind,
		File:      e.relPath,
		Line:      int(node.StartPoint().Row) + 1,
		Signature: signature,
		CalledBy:  []string{},
	}
}

// childOfType returns the text of the first direct child whose type is
// one of types.
func childOfType(n *sitter.Node, src []byte, types ...string) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		for _, t := range types {
			if child.Type() == t {
				return child.Content(src)
			}
		}
	}
	return ""
}

// firstLine returns the first source line of a node, trimmed. Methods
// and functions use it as their signature.
func firstLine(n *sitter.Node, src []byte) string {
	text := n.Content(src)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
