package xmlgen

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

// walker holds the state of one document generation.
type walker struct {
	gen   *Generator
	ctx   *engine.Context
	src   *rnd.Source
	quota *quota
	doc   *etree.Document

	// stack holds the open elements, outermost first.
	stack []*etree.Element

	// value collects the text of the attribute being generated; nil outside
	// attribute values.
	value *strings.Builder
}

func (w *walker) visit(kind engine.NodeKind, n *grammar.Node, doc string, sp engine.StructPath, attr string) engine.Outcome {
	return w.gen.reg.Visit(kind, engine.Visit{
		DocPath:    doc,
		StructPath: sp.String(),
		Attribute:  attr,
		Node:       n,
		Stack:      w.stack[:len(w.stack):len(w.stack)],
		Ctx:        w.ctx,
		Expander:   w,
	})
}

func (w *walker) current() *etree.Element {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// children walks the child patterns of n in order.
func (w *walker) children(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	for _, c := range n.Children {
		if err := w.walk(c, doc, sp.Descend(c.Tag), attr); err != nil {
			return err
		}
	}
	return nil
}

// walk generates the pattern n. doc is the document path of the enclosing
// element, sp the structural path of n and attr the attribute whose value
// is being generated, if any.
func (w *walker) walk(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	switch n.Kind {
	case grammar.KindElement:
		return w.element(n, doc, sp, attr)
	case grammar.KindAttribute:
		return w.attribute(n, doc, sp, attr)
	case grammar.KindData:
		return w.data(n, doc, sp, attr)
	case grammar.KindValue:
		w.emit(n.Text)
		return nil
	case grammar.KindText:
		w.emit(defaultText(w.src))
		return nil
	case grammar.KindChoice:
		return w.choice(n, doc, sp, attr)
	case grammar.KindOptional:
		return w.optional(n, doc, sp, attr)
	case grammar.KindZeroOrMore, grammar.KindOneOrMore:
		return w.repeat(n, doc, sp, attr)
	case grammar.KindGroup, grammar.KindInterleave, grammar.KindMixed, grammar.KindList:
		return w.children(n, doc, sp, attr)
	case grammar.KindRef:
		def, ok := w.gen.grammar.Resolve(n)
		if !ok {
			return fmt.Errorf("reference to undefined pattern %q", n.Name)
		}
		return w.children(def, doc, engine.DefinePath(n.Name), attr)
	}
	// empty, notAllowed, params and name classes generate nothing.
	return nil
}

func (w *walker) element(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	if attr != "" {
		// Elements cannot appear inside attribute values.
		return nil
	}
	name := n.Name
	if name == "" {
		name = defaultText(w.src)
	}
	path := engine.JoinDoc(doc, name)

	out := w.visit(engine.KindElement, n, path, sp, "")
	if v, ok := out.Value(); ok && !v.Present {
		return nil
	}

	if len(w.stack) >= w.gen.opts.MaxDepth {
		return &LimitError{Limit: "max_depth", Value: len(w.stack) + 1, Max: w.gen.opts.MaxDepth}
	}
	if err := w.quota.Check(); err != nil {
		return err
	}

	el := etree.NewElement(name)
	if parent := w.current(); parent != nil {
		parent.AddChild(el)
	} else if w.doc.Root() == nil {
		w.doc.SetRoot(el)
	} else {
		return nil
	}

	w.stack = append(w.stack, el)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()
	return w.children(n, path, sp, "")
}

func (w *walker) attribute(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	owner := w.current()
	if attr != "" || owner == nil {
		return nil
	}

	out := w.visit(engine.KindAttribute, n, engine.JoinDoc(doc, n.Name), sp, "")
	if v, ok := out.Value(); ok {
		if v.Kind == engine.ValuePresence {
			return nil
		}
		if err := w.quota.Check(); err != nil {
			return err
		}
		owner.CreateAttr(n.Name, v.Str)
		return nil
	}

	if err := w.quota.Check(); err != nil {
		return err
	}
	var value strings.Builder
	w.value = &value
	defer func() { w.value = nil }()

	if len(n.Children) == 0 {
		value.WriteString(defaultText(w.src))
	} else if err := w.children(n, doc, sp, n.Name); err != nil {
		return err
	}
	owner.CreateAttr(n.Name, value.String())
	return nil
}

func (w *walker) data(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	out := w.visit(engine.KindData, n, doc, sp, attr)
	if v, ok := out.Value(); ok {
		switch v.Kind {
		case engine.ValueIDSet:
			w.emit(FormatIDSet(v.IDs))
		default:
			w.emit(v.Str)
		}
		return nil
	}

	s, err := defaultData(w.src, n)
	if err != nil {
		return fmt.Errorf("data at %s: %w", doc, err)
	}
	w.emit(s)
	return nil
}

func (w *walker) choice(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	if len(n.Children) == 0 {
		return nil
	}
	var branch *grammar.Node
	if v, ok := w.visit(engine.KindChoice, n, doc, sp, attr).Value(); ok {
		branch = v.Branch
	} else {
		branch = rnd.Pick(w.src, n.Children)
	}
	return w.walk(branch, doc, sp.Descend(branch.Tag), attr)
}

func (w *walker) optional(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	var present bool
	if v, ok := w.visit(engine.KindOptional, n, doc, sp, attr).Value(); ok {
		present = v.Present
	} else {
		present = w.src.Bool()
	}
	if !present {
		return nil
	}
	return w.children(n, doc, sp, attr)
}

func (w *walker) repeat(n *grammar.Node, doc string, sp engine.StructPath, attr string) error {
	kind := engine.KindZeroOrMore
	if n.Kind == grammar.KindOneOrMore {
		kind = engine.KindOneOrMore
	}

	var count int
	if v, ok := w.visit(kind, n, doc, sp, attr).Value(); ok {
		count = v.N
	} else if kind == engine.KindOneOrMore {
		count = 1 + w.src.Exp(1, w.gen.opts.MaxRepeat-1)
	} else {
		count = w.src.Exp(1, w.gen.opts.MaxRepeat)
	}

	for i := 0; i < count; i++ {
		if attr != "" && i > 0 {
			w.emit(" ")
		}
		if err := w.children(n, doc, sp, attr); err != nil {
			return err
		}
	}
	return nil
}

// emit appends generated text to the attribute value being built, or to the
// content of the current element.
func (w *walker) emit(s string) {
	if w.value != nil {
		w.value.WriteString(s)
		return
	}
	if el := w.current(); el != nil {
		el.SetText(el.Text() + s)
	}
}

// ExpandDefine generates the named definition outside the document, sharing
// the context, random source and quota of the current generation. The
// definition must produce exactly one element.
func (w *walker) ExpandDefine(name string) (*etree.Element, error) {
	def, ok := w.gen.grammar.Define(name)
	if !ok {
		return nil, fmt.Errorf("expand: undefined pattern %q", name)
	}

	holder := etree.NewElement(name)
	savedStack, savedValue := w.stack, w.value
	w.stack, w.value = []*etree.Element{holder}, nil
	defer func() { w.stack, w.value = savedStack, savedValue }()

	if err := w.children(def, "", engine.DefinePath(name), ""); err != nil {
		return nil, err
	}

	els := holder.ChildElements()
	if len(els) != 1 {
		return nil, fmt.Errorf("expand: pattern %q produced %d elements, want 1", name, len(els))
	}
	el := els[0]
	holder.RemoveChild(el)
	return el, nil
}
