package engine

import "fmt"

// family validates the outcomes of one handler family against the shapes
// its node kind accepts.
type family struct {
	accepts []ValueKind
	shape   func(v Visit, val Value) error
}

func (f family) check(v Visit, val Value) error {
	ok := false
	for _, k := range f.accepts {
		if val.Kind == k {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("outcome %s not accepted (want %v)", val, f.accepts)
	}
	if f.shape != nil {
		return f.shape(v, val)
	}
	return nil
}

var families = [numKinds]family{
	KindElement:  {accepts: []ValueKind{ValuePresence}},
	KindOptional: {accepts: []ValueKind{ValuePresence}},
	KindAttribute: {
		accepts: []ValueKind{ValueText, ValuePresence},
		shape: func(_ Visit, val Value) error {
			if val.Kind == ValuePresence && val.Present {
				return fmt.Errorf("attribute presence without a value")
			}
			return nil
		},
	},
	KindData: {
		accepts: []ValueKind{ValueText, ValueIDSet},
		shape: func(_ Visit, val Value) error {
			if val.Kind == ValueIDSet && (val.IDs == nil || val.IDs.IsEmpty()) {
				return fmt.Errorf("empty id set")
			}
			return nil
		},
	},
	KindZeroOrMore: {
		accepts: []ValueKind{ValueCount},
		shape: func(_ Visit, val Value) error {
			if val.N < 0 {
				return fmt.Errorf("negative count %d", val.N)
			}
			return nil
		},
	},
	KindOneOrMore: {
		accepts: []ValueKind{ValueCount},
		shape: func(_ Visit, val Value) error {
			if val.N < 1 {
				return fmt.Errorf("count %d below one", val.N)
			}
			return nil
		},
	},
	KindChoice: {
		accepts: []ValueKind{ValueBranch},
		shape: func(v Visit, val Value) error {
			if val.Branch == nil || v.Node == nil || !v.Node.HasChild(val.Branch) {
				return fmt.Errorf("branch is not a child of the visited choice")
			}
			return nil
		},
	},
}
