package engine

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/domfuzz/internal/grammar"
)

// ValueKind discriminates the payload of a Value.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueCount
	ValuePresence
	ValueBranch
	ValueIDSet
)

func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueCount:
		return "count"
	case ValuePresence:
		return "presence"
	case ValueBranch:
		return "branch"
	case ValueIDSet:
		return "idset"
	}
	return fmt.Sprintf("value(%d)", int(k))
}

// Value is the decision a handler takes for a node. Exactly one payload
// field is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind

	// Str is the attribute value or text content (ValueText).
	Str string

	// N is the repetition count (ValueCount).
	N int

	// Present tells whether the node is materialized (ValuePresence).
	Present bool

	// Branch is the chosen child of a choice pattern (ValueBranch).
	Branch *grammar.Node

	// IDs is a set of integer ids, serialized by the walker (ValueIDSet).
	IDs *roaring.Bitmap
}

func (v Value) String() string {
	switch v.Kind {
	case ValueText:
		return fmt.Sprintf("text(%q)", v.Str)
	case ValueCount:
		return fmt.Sprintf("count(%d)", v.N)
	case ValuePresence:
		return fmt.Sprintf("presence(%t)", v.Present)
	case ValueBranch:
		if v.Branch == nil {
			return "branch(nil)"
		}
		return fmt.Sprintf("branch(%s)", v.Branch.Tag)
	case ValueIDSet:
		if v.IDs == nil {
			return "idset(nil)"
		}
		return fmt.Sprintf("idset(%v)", v.IDs.ToArray())
	}
	return v.Kind.String()
}

// Outcome is the result of a visit: either Defer, leaving the decision to
// the walker's grammar default, or a Value. The zero Outcome defers.
type Outcome struct {
	emitted bool
	value   Value
}

// Defer returns the "no opinion" outcome.
func Defer() Outcome {
	return Outcome{}
}

// Emit returns an outcome carrying v.
func Emit(v Value) Outcome {
	return Outcome{emitted: true, value: v}
}

// IsDefer reports whether the outcome leaves the decision to the walker.
func (o Outcome) IsDefer() bool {
	return !o.emitted
}

// Value returns the emitted value. ok is false for Defer.
func (o Outcome) Value() (v Value, ok bool) {
	return o.value, o.emitted
}

func (o Outcome) String() string {
	if !o.emitted {
		return "defer"
	}
	return o.value.String()
}

// Text emits an attribute value or text content.
func Text(s string) Outcome {
	return Emit(Value{Kind: ValueText, Str: s})
}

// Count emits a repetition count.
func Count(n int) Outcome {
	return Emit(Value{Kind: ValueCount, N: n})
}

// Presence emits whether a node is materialized.
func Presence(present bool) Outcome {
	return Emit(Value{Kind: ValuePresence, Present: present})
}

// Omit is shorthand for Presence(false).
func Omit() Outcome {
	return Presence(false)
}

// Branch emits the chosen child of a choice pattern.
func Branch(n *grammar.Node) Outcome {
	return Emit(Value{Kind: ValueBranch, Branch: n})
}

// IDSet emits a set of integer ids.
func IDSet(ids *roaring.Bitmap) Outcome {
	return Emit(Value{Kind: ValueIDSet, IDs: ids})
}
