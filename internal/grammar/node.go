package grammar

import (
	"github.com/beevik/etree"
)

// Kind identifies a RELAX NG pattern.
type Kind int

const (
	KindOther Kind = iota
	KindElement
	KindAttribute
	KindData
	KindValue
	KindText
	KindChoice
	KindOptional
	KindZeroOrMore
	KindOneOrMore
	KindGroup
	KindInterleave
	KindMixed
	KindList
	KindRef
	KindParentRef
	KindDefine
	KindStart
	KindEmpty
	KindNotAllowed
	KindParam
	KindExcept
	KindName
	KindAnyName
	KindNsName
)

var kindTags = map[Kind]string{
	KindElement:    "element",
	KindAttribute:  "attribute",
	KindData:       "data",
	KindValue:      "value",
	KindText:       "text",
	KindChoice:     "choice",
	KindOptional:   "optional",
	KindZeroOrMore: "zeroOrMore",
	KindOneOrMore:  "oneOrMore",
	KindGroup:      "group",
	KindInterleave: "interleave",
	KindMixed:      "mixed",
	KindList:       "list",
	KindRef:        "ref",
	KindParentRef:  "parentRef",
	KindDefine:     "define",
	KindStart:      "start",
	KindEmpty:      "empty",
	KindNotAllowed: "notAllowed",
	KindParam:      "param",
	KindExcept:     "except",
	KindName:       "name",
	KindAnyName:    "anyName",
	KindNsName:     "nsName",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// KindOf maps a schema tag to its Kind. Unknown tags map to KindOther.
func KindOf(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return KindOther
}

// String returns the schema tag of the kind.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "other"
}

// Node is one pattern of a resolved grammar. Nodes are read-only once the
// grammar is loaded and may be shared between concurrent generations.
type Node struct {
	Kind Kind

	// Tag is the schema tag the node was parsed from.
	Tag string

	// Name is the name attribute (element, attribute, define, ref, param),
	// or the text of a <name> child for element and attribute patterns.
	Name string

	// Text is the whitespace-trimmed content of value and param patterns.
	Text string

	Children []*Node

	parent *Node
	src    *etree.Element
	g      *Grammar
}

// Parent returns the enclosing pattern, or nil for top-level definitions.
func (n *Node) Parent() *Node {
	return n.parent
}

// Grammar returns the grammar the node belongs to.
func (n *Node) Grammar() *Grammar {
	return n.g
}

// Attr returns the value of a schema attribute of the pattern, such as the
// type of a data pattern.
func (n *Node) Attr(name string) (string, bool) {
	a := n.src.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// Find returns the first pattern matching an etree path relative to n, for
// example "./group/attribute/value" or "./optional/ref[@name='x']/..".
func (n *Node) Find(path string) *Node {
	e := n.src.FindElement(path)
	if e == nil {
		return nil
	}
	return n.g.nodes[e]
}

// FindAll returns every pattern matching an etree path relative to n.
func (n *Node) FindAll(path string) []*Node {
	var out []*Node
	for _, e := range n.src.FindElements(path) {
		if node, ok := n.g.nodes[e]; ok {
			out = append(out, node)
		}
	}
	return out
}

// HasChild reports whether c is one of n's direct children.
func (n *Node) HasChild(c *Node) bool {
	for _, child := range n.Children {
		if child == c {
			return true
		}
	}
	return false
}

// Child returns the first direct child of the given kind, and with the given
// name when name is not empty.
func (n *Node) Child(kind Kind, name string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind && (name == "" || c.Name == name) {
			return c
		}
	}
	return nil
}

// Param returns the text of a data pattern's named param.
func (n *Node) Param(name string) (string, bool) {
	for _, c := range n.Children {
		if c.Kind == KindParam && c.Name == name {
			return c.Text, true
		}
	}
	return "", false
}
