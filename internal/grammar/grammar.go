// Package grammar loads RELAX NG schemas into a read-only pattern tree.
//
// Loading resolves <include> directives relative to the including file,
// flattens <div> blocks, merges combined definitions and finally applies the
// override overlay: a sibling file named "<schema>_overides.xml" whose
// top-level definitions replace or extend those of the base schema.
package grammar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// OverlaySuffix is appended to a schema file name to locate its overlay.
const OverlaySuffix = "_overides.xml"

// Load error codes.
const (
	ErrCodeRead         = "READ_FAILED"
	ErrCodeParse        = "PARSE_FAILED"
	ErrCodeIncludeCycle = "INCLUDE_CYCLE"
	ErrCodeNoStart      = "NO_START"
	ErrCodeUndefinedRef = "UNDEFINED_REF"
	ErrCodeUnsupported  = "UNSUPPORTED_PATTERN"
)

// LoadError reports a schema that could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Grammar is a resolved schema.
type Grammar struct {
	start   *Node
	defines map[string]*Node
	nodes   map[*etree.Element]*Node
}

// Start returns the start pattern.
func (g *Grammar) Start() *Node {
	return g.start
}

// Define returns the named definition.
func (g *Grammar) Define(name string) (*Node, bool) {
	d, ok := g.defines[name]
	return d, ok
}

// Resolve returns the definition a ref pattern points to. Loading rejects
// parentRef, so ref is the only reference kind.
func (g *Grammar) Resolve(ref *Node) (*Node, bool) {
	if ref == nil || ref.Kind != KindRef {
		return nil, false
	}
	return g.Define(ref.Name)
}

// Defines returns the names of all definitions in sorted order.
func (g *Grammar) Defines() []string {
	names := make([]string, 0, len(g.defines))
	for name := range g.defines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile loads a schema from the local filesystem.
func LoadFile(path string) (*Grammar, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return Load(osfs.New(dir), base)
}

// Load loads the schema at path from fs, resolving includes and applying the
// overlay file if one exists next to it.
func Load(fs billy.Filesystem, path string) (*Grammar, error) {
	root, err := loadTree(fs, path, map[string]bool{})
	if err != nil {
		return nil, err
	}

	overlayPath := path + OverlaySuffix
	overlay, err := loadTree(fs, overlayPath, map[string]bool{})
	switch {
	case err == nil:
		applyOverlay(root, overlay)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	return build(root, path)
}

// Parse builds a grammar from a single self-contained schema document.
// Include directives are not supported.
func Parse(data []byte) (*Grammar, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: "invalid schema document", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: "empty schema document"}
	}
	flattenDivs(root)
	return build(root, "")
}

// loadTree reads one schema file and splices its includes in place.
func loadTree(fs billy.Filesystem, path string, active map[string]bool) (*etree.Element, error) {
	if active[path] {
		return nil, &LoadError{Code: ErrCodeIncludeCycle, Path: path, Message: "schema includes itself"}
	}
	active[path] = true
	defer delete(active, path)

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Path: path, Message: "cannot read schema", Err: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Path: path, Message: "invalid schema document", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &LoadError{Code: ErrCodeParse, Path: path, Message: "empty schema document"}
	}
	flattenDivs(root)

	dir := filepath.Dir(path)
	for _, inc := range root.SelectElements("include") {
		href := inc.SelectAttrValue("href", "")
		incPath := fs.Join(dir, href)

		included, err := loadTree(fs, incPath, active)
		if err != nil {
			return nil, err
		}

		// Included definitions go first so that the including file, and the
		// overriding definitions nested in <include>, take precedence.
		pos := 0
		for _, child := range included.ChildElements() {
			root.InsertChildAt(pos, child)
			pos++
		}
		for _, child := range inc.ChildElements() {
			root.AddChild(child)
		}
		root.RemoveChild(inc)
	}

	return root, nil
}

// applyOverlay inserts the overlay's top-level definitions into root,
// replacing same-named ones.
func applyOverlay(root, overlay *etree.Element) {
	for _, el := range overlay.ChildElements() {
		if el.Space != "" {
			continue
		}
		if el.Tag == "define" {
			name := el.SelectAttrValue("name", "")
			for _, existing := range root.SelectElements("define") {
				if existing.SelectAttrValue("name", "") == name {
					root.RemoveChild(existing)
				}
			}
		}
		if el.Tag == "start" {
			for _, existing := range root.SelectElements("start") {
				root.RemoveChild(existing)
			}
		}
		root.InsertChildAt(0, el)
	}
}

// flattenDivs replaces every <div> below root with its children.
func flattenDivs(root *etree.Element) {
	for {
		div := root.FindElement(".//div")
		if div == nil {
			return
		}
		parent := div.Parent()
		pos := div.Index()
		for _, child := range div.ChildElements() {
			parent.InsertChildAt(pos, child)
			pos++
		}
		parent.RemoveChild(div)
	}
}

// build merges top-level definitions and converts the tree into Nodes.
func build(root *etree.Element, path string) (*Grammar, error) {
	g := &Grammar{
		defines: make(map[string]*Node),
		nodes:   make(map[*etree.Element]*Node),
	}

	defs := make(map[string]*etree.Element)
	var order []string
	var start *etree.Element

	for _, el := range root.ChildElements() {
		if el.Space != "" {
			continue
		}
		switch el.Tag {
		case "define":
			name := el.SelectAttrValue("name", "")
			if prev, ok := defs[name]; ok {
				defs[name] = combine(prev, el)
				continue
			}
			defs[name] = el
			order = append(order, name)
		case "start":
			if start != nil {
				start = combine(start, el)
				continue
			}
			start = el
		}
	}

	if start == nil {
		return nil, &LoadError{Code: ErrCodeNoStart, Path: path, Message: "schema has no start pattern"}
	}

	for _, name := range order {
		g.defines[name] = g.convert(defs[name], nil)
	}
	g.start = g.convert(start, nil)

	var undefined []string
	for _, n := range g.nodes {
		switch n.Kind {
		case KindRef:
			if _, ok := g.defines[n.Name]; !ok {
				undefined = append(undefined, n.Name)
			}
		case KindParentRef:
			// Definitions share one scope; there is no parent grammar to
			// resolve against.
			return nil, &LoadError{
				Code:    ErrCodeUnsupported,
				Path:    path,
				Message: fmt.Sprintf("parentRef %q: nested grammars are not supported", n.Name),
			}
		}
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		return nil, &LoadError{
			Code:    ErrCodeUndefinedRef,
			Path:    path,
			Message: "undefined references: " + strings.Join(undefined, ", "),
		}
	}

	return g, nil
}

// combine merges a later definition into an earlier one. Without a combine
// attribute the later definition replaces the earlier one.
func combine(prev, next *etree.Element) *etree.Element {
	method := next.SelectAttrValue("combine", prev.SelectAttrValue("combine", ""))
	if method != "choice" && method != "interleave" {
		return next
	}

	merged := etree.NewElement(prev.Tag)
	for _, a := range prev.Attr {
		merged.CreateAttr(a.Key, a.Value)
	}
	// Keep the merged definition attached to the schema so that path
	// queries such as "..", which climb above it, still work.
	if parent := prev.Parent(); parent != nil {
		parent.InsertChildAt(prev.Index(), merged)
	}

	wrapper := merged.CreateElement(method)
	for _, src := range []*etree.Element{prev, next} {
		group := wrapper.CreateElement("group")
		for _, child := range src.ChildElements() {
			group.AddChild(child)
		}
		if parent := src.Parent(); parent != nil {
			parent.RemoveChild(src)
		}
	}
	return merged
}

func (g *Grammar) convert(el *etree.Element, parent *Node) *Node {
	n := &Node{
		Kind:   KindOf(el.Tag),
		Tag:    el.Tag,
		Name:   el.SelectAttrValue("name", ""),
		parent: parent,
		src:    el,
		g:      g,
	}
	if n.Kind == KindValue || n.Kind == KindParam {
		n.Text = strings.TrimSpace(el.Text())
	}
	g.nodes[el] = n

	for _, child := range el.ChildElements() {
		if child.Space != "" {
			continue
		}
		if (n.Kind == KindElement || n.Kind == KindAttribute) && child.Tag == "name" && n.Name == "" {
			n.Name = strings.TrimSpace(child.Text())
			continue
		}
		n.Children = append(n.Children, g.convert(child, n))
	}
	return n
}
