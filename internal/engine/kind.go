package engine

import (
	"fmt"

	"github.com/roach88/domfuzz/internal/grammar"
)

// NodeKind is one of the grammar node kinds the engine takes decisions for.
// The set is closed: every kind needs at least one registered rule.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindAttribute
	KindData
	KindOptional
	KindZeroOrMore
	KindOneOrMore
	KindChoice

	numKinds
)

var nodeKindNames = [numKinds]string{
	KindElement:    "element",
	KindAttribute:  "attribute",
	KindData:       "data",
	KindOptional:   "optional",
	KindZeroOrMore: "zeroOrMore",
	KindOneOrMore:  "oneOrMore",
	KindChoice:     "choice",
}

// Kinds returns every node kind in declaration order.
func Kinds() []NodeKind {
	out := make([]NodeKind, numKinds)
	for i := range out {
		out[i] = NodeKind(i)
	}
	return out
}

// String returns the grammar tag of the kind.
func (k NodeKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return nodeKindNames[k]
}

func (k NodeKind) valid() bool {
	return k >= 0 && k < numKinds
}

// KindFor maps a grammar pattern kind to the engine kind that decides it.
// Patterns the engine takes no decision for report false.
func KindFor(k grammar.Kind) (NodeKind, bool) {
	switch k {
	case grammar.KindElement:
		return KindElement, true
	case grammar.KindAttribute:
		return KindAttribute, true
	case grammar.KindData:
		return KindData, true
	case grammar.KindOptional:
		return KindOptional, true
	case grammar.KindZeroOrMore:
		return KindZeroOrMore, true
	case grammar.KindOneOrMore:
		return KindOneOrMore, true
	case grammar.KindChoice:
		return KindChoice, true
	}
	return 0, false
}
