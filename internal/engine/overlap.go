package engine

import "fmt"

// OverlapWarning reports two rules of one kind with identical patterns. Both
// run on every node they match and the later one decides; the warning makes
// such pairs visible without rejecting them.
type OverlapWarning struct {
	Kind    NodeKind
	First   string
	Second  string
	Pattern string
}

func (w OverlapWarning) String() string {
	return fmt.Sprintf("%s rules %s and %s share pattern %s; %s wins", w.Kind, w.First, w.Second, w.Pattern, w.Second)
}

// AnalyzeOverlaps returns a warning for every pair of rules of the same kind
// whose document and structural patterns are textually identical, in
// declaration order.
func AnalyzeOverlaps(rules []Rule) []OverlapWarning {
	type key struct {
		kind      NodeKind
		doc, stru string
	}
	seen := make(map[key][]string)
	var out []OverlapWarning
	for _, r := range rules {
		k := key{r.Kind, r.DocPattern, r.StructPattern}
		for _, prev := range seen[k] {
			out = append(out, OverlapWarning{
				Kind:    r.Kind,
				First:   prev,
				Second:  r.Name,
				Pattern: fmt.Sprintf("doc=%s struct=%s", orDash(r.DocPattern), orDash(r.StructPattern)),
			})
		}
		seen[k] = append(seen[k], r.Name)
	}
	return out
}
