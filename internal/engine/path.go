package engine

import "strings"

// StructPath is the structural position of a walk in the grammar: the
// innermost definition entered, followed by one segment per pattern
// descended since. It renders as
//
//	/define[@name="cpuset"]/data
//
// or, below the start pattern, as /start/element/... .
//
// StructPath values are immutable; Descend returns a new path.
type StructPath struct {
	define string
	segs   []string
}

// StartPath returns the path of the start pattern.
func StartPath() StructPath {
	return StructPath{}
}

// DefinePath returns the path of the named definition.
func DefinePath(name string) StructPath {
	return StructPath{define: name}
}

// Descend returns the path of a child pattern of the given tag.
func (p StructPath) Descend(tag string) StructPath {
	segs := make([]string, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return StructPath{define: p.define, segs: append(segs, tag)}
}

// Define returns the innermost definition name, or "" below start.
func (p StructPath) Define() string {
	return p.define
}

func (p StructPath) String() string {
	var b strings.Builder
	if p.define == "" {
		b.WriteString("/start")
	} else {
		b.WriteString(`/define[@name="`)
		b.WriteString(p.define)
		b.WriteString(`"]`)
	}
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// JoinDoc appends an element or attribute name to a document path.
func JoinDoc(doc, name string) string {
	return doc + "/" + name
}
