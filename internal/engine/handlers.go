package engine

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

// Helpers shared by the handler families. All of them accept nil elements
// so that handlers can query optional parts of the document directly.

func attr(el *etree.Element, name string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(name, "")
}

func find(el *etree.Element, path string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElement(path)
}

func findAll(el *etree.Element, path string) []*etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElements(path)
}

func tag(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return el.Tag
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func oneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// remaining returns the labels of all not present in used, in order.
func remaining(all []string, used []string) []string {
	var out []string
	for _, a := range all {
		if !oneOf(a, used...) {
			out = append(out, a)
		}
	}
	return out
}

// pick chooses a candidate branch. It defers when there is none or when the
// visit has no Context to draw from.
func pick(v Visit, candidates []*grammar.Node) Outcome {
	if len(candidates) == 0 || v.Ctx == nil {
		return Defer()
	}
	return Branch(rnd.Pick(v.Ctx.Rand(), candidates))
}

// typedBranches returns the children of a choice whose "./attribute/value"
// is want, the usual shape of a typed address alternative.
func typedBranches(choice *grammar.Node, want string) []*grammar.Node {
	var out []*grammar.Node
	for _, c := range choice.Children {
		if val := c.Find("./attribute/value"); val != nil && val.Text == want {
			out = append(out, c)
		}
	}
	return out
}

// valueBranches returns the value children of a choice accepted by keep.
func valueBranches(choice *grammar.Node, keep func(text string) bool) []*grammar.Node {
	var out []*grammar.Node
	for _, c := range choice.Children {
		if c.Kind == grammar.KindValue && keep(c.Text) {
			out = append(out, c)
		}
	}
	return out
}
