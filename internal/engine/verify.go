package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/domfuzz/internal/grammar"
)

// VerifyOrder checks a registry against a grammar: for every fact a rule
// reads, a rule writing that fact must fire strictly earlier in the
// pre-order walk of the grammar on at least one path. The walk covers every
// branch of every choice and the content of every optional and repetition,
// since the generator may take any of them.
//
// Content the walker never generates is not walked: the subtree of an
// element the deciding rule always omits, and the content of an attribute
// whose deciding rule always emits a value or omits it (see Rule.Effect).
//
// Only rules active under mode are considered. All violations are returned
// together.
func VerifyOrder(reg *Registry, g *grammar.Grammar, mode Mode) error {
	w := &orderWalk{
		reg:        reg,
		g:          g,
		mode:       mode,
		firstWrite: make(map[Fact]int),
		lastRead:   make(map[ruleFact]readSite),
		entered:    make(map[string]bool),
		done:       make(map[string]bool),
	}
	if start := g.Start(); start != nil {
		for _, c := range start.Children {
			w.walk(c, "", StartPath().Descend(c.Tag))
		}
	}

	var errs []error
	for _, rule := range reg.Active(mode) {
		for _, f := range rule.Reads {
			site, ok := w.lastRead[ruleFact{rule.Name, f}]
			if !ok {
				continue
			}
			if first, written := w.firstWrite[f]; written && first < site.pos {
				continue
			}
			errs = append(errs, &RegistryError{
				Code:    ErrCodeReadBeforeWrite,
				Message: fmt.Sprintf("read at %s before any rule writes it", site.docPath),
				Rule:    rule.Name,
				Fact:    f,
			})
		}
	}
	return errors.Join(errs...)
}

type ruleFact struct {
	rule string
	fact Fact
}

type readSite struct {
	pos     int
	docPath string
}

type orderWalk struct {
	reg  *Registry
	g    *grammar.Grammar
	mode Mode

	pos        int
	firstWrite map[Fact]int
	lastRead   map[ruleFact]readSite

	// entered holds the definitions on the current path; done holds the
	// (definition, document path) pairs already walked. A repeated pair
	// fires the same rules later, so it cannot move a first write earlier.
	entered map[string]bool
	done    map[string]bool
}

func (w *orderWalk) walk(n *grammar.Node, doc string, sp StructPath) {
	switch n.Kind {
	case grammar.KindRef:
		def, ok := w.g.Define(n.Name)
		key := n.Name + "\x00" + doc
		if !ok || w.entered[n.Name] || w.done[key] {
			return
		}
		w.entered[n.Name] = true
		w.done[key] = true
		defer delete(w.entered, n.Name)

		dp := DefinePath(n.Name)
		for _, c := range def.Children {
			w.walk(c, doc, dp.Descend(c.Tag))
		}
		return

	case grammar.KindElement:
		doc = JoinDoc(doc, elementName(n))
		if w.fire(KindElement, doc, sp) == EffectOmit {
			return
		}

	case grammar.KindAttribute:
		if w.fire(KindAttribute, JoinDoc(doc, n.Name), sp) != EffectVaries {
			return
		}

	default:
		if k, ok := KindFor(n.Kind); ok {
			w.fire(k, doc, sp)
		}
	}

	for _, c := range n.Children {
		w.walk(c, doc, sp.Descend(c.Tag))
	}
}

// fire records the reads and writes of the active rules matching a node and
// returns the effect of the rule that decides it. A gated-off match defers,
// so it resets the effect like any rule that may defer.
func (w *orderWalk) fire(kind NodeKind, doc string, sp StructPath) Effect {
	effect := EffectVaries
	for _, rule := range w.reg.matching(kind, doc, sp.String()) {
		if !w.mode.Allows(rule.Requires) {
			effect = EffectVaries
			continue
		}
		effect = rule.Effect
		w.pos++
		for _, f := range rule.Reads {
			w.lastRead[ruleFact{rule.Name, f}] = readSite{pos: w.pos, docPath: doc}
		}
		for _, f := range rule.Writes {
			if _, ok := w.firstWrite[f]; !ok {
				w.firstWrite[f] = w.pos
			}
		}
	}
	return effect
}

// elementName returns the name of an element pattern, or "*" for elements
// named by a name class.
func elementName(n *grammar.Node) string {
	if n.Name == "" {
		return "*"
	}
	return n.Name
}
