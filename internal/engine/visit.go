package engine

import (
	"github.com/beevik/etree"

	"github.com/roach88/domfuzz/internal/grammar"
)

// Expander materializes a named grammar definition as a detached element,
// sharing the generation context of the current document.
type Expander interface {
	ExpandDefine(name string) (*etree.Element, error)
}

// Visit describes one node visit. It is passed by value; handlers must not
// modify Stack.
//
// For element visits DocPath already names the visited element while Stack
// still ends at its parent. Attribute visits append the attribute name to
// DocPath; patterns inside an attribute value carry the owning element's
// path and name the attribute in Attribute. In every case Current is the
// element the visited node contributes to.
type Visit struct {
	DocPath    string
	StructPath string

	// Attribute is the attribute whose value is being generated, or "" for
	// element content and for the attribute visit itself.
	Attribute string

	Node  *grammar.Node
	Stack []*etree.Element

	// Ctx may be nil. The visit then runs as raw and choice rules defer;
	// handlers that draw values or read facts need a Context.
	Ctx      *Context
	Expander Expander
}

// Current returns the innermost materialized element, or nil.
func (v Visit) Current() *etree.Element {
	return v.Ancestor(0)
}

// Parent returns the element enclosing Current, or nil.
func (v Visit) Parent() *etree.Element {
	return v.Ancestor(1)
}

// Ancestor returns the n-th element above Current (0 is Current itself),
// or nil when the stack is not that deep.
func (v Visit) Ancestor(n int) *etree.Element {
	i := len(v.Stack) - 1 - n
	if i < 0 || i >= len(v.Stack) {
		return nil
	}
	return v.Stack[i]
}

// Root returns the document root element, or nil.
func (v Visit) Root() *etree.Element {
	if len(v.Stack) == 0 {
		return nil
	}
	return v.Stack[0]
}

// Mode returns the validity mode of the generation.
func (v Visit) Mode() Mode {
	if v.Ctx == nil {
		return ModeRaw
	}
	return v.Ctx.Mode()
}
