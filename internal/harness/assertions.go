package harness

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/beevik/etree"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/xmlgen"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Seed     uint64 // Seed of the failing document
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Document string // Serialized document, when available
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (seed %d)\n", e.Type, e.Seed)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Document != "" {
		fmt.Fprintf(&buf, "\nDocument:\n%s", e.Document)
	}

	return buf.String()
}

func failure(doc Document, typ, expected, actual string) *AssertionError {
	e := &AssertionError{Type: typ, Seed: doc.Seed, Expected: expected, Actual: actual}
	if doc.Root != nil {
		d := etree.NewDocument()
		d.SetRoot(doc.Root.Copy())
		d.Indent(2)
		e.Document, _ = d.WriteToString()
	}
	return e
}

// quantity returns the size in bytes of a memory amount. A missing unit
// means KiB.
func quantity(value, unitName string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative amount %d", n)
	}
	if unitName == "" {
		unitName = "kib"
	}
	unit, ok := engine.LookupUnit(unitName)
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unitName)
	}
	if n > math.MaxInt64/unit.Multiplier {
		return 0, fmt.Errorf("%d %s overflows", n, unit.Name)
	}
	return n * unit.Multiplier, nil
}

// elementBytes returns the memory amount held by el, read from attr or from
// the element text when attr is empty.
func elementBytes(el *etree.Element, attr string) (int64, error) {
	value := el.Text()
	if attr != "" {
		a := el.SelectAttr(attr)
		if a == nil {
			return 0, fmt.Errorf("<%s> has no %s attribute", el.Tag, attr)
		}
		value = a.Value
	}
	return quantity(value, el.SelectAttrValue("unit", ""))
}

// assertMemoryChain checks maxMemory >= memory >= currentMemory for the
// elements present.
func assertMemoryChain(doc Document, _ Assertion) error {
	chain := []string{"maxMemory", "memory", "currentMemory"}

	prevName, prev := "", int64(-1)
	for _, name := range chain {
		el := doc.Root.FindElement("./" + name)
		if el == nil {
			continue
		}
		n, err := elementBytes(el, "")
		if err != nil {
			return failure(doc, AssertMemoryChain, "a valid "+name, err.Error())
		}
		if prev >= 0 && n > prev {
			return failure(doc, AssertMemoryChain,
				fmt.Sprintf("%s <= %s (%d bytes)", name, prevName, prev),
				fmt.Sprintf("%s is %d bytes", name, n))
		}
		prevName, prev = name, n
	}
	return nil
}

// assertNumaBudget checks that the NUMA cells' memory fits in maxMemory.
func assertNumaBudget(doc Document, _ Assertion) error {
	maxEl := doc.Root.FindElement("./maxMemory")
	if maxEl == nil {
		return nil
	}
	budget, err := elementBytes(maxEl, "")
	if err != nil {
		return failure(doc, AssertNumaBudget, "a valid maxMemory", err.Error())
	}

	var total int64
	for _, cell := range doc.Root.FindElements("./cpu/numa/cell") {
		n, err := elementBytes(cell, "memory")
		if err != nil {
			return failure(doc, AssertNumaBudget, "valid cell memory", err.Error())
		}
		total += n
		if total > budget {
			return failure(doc, AssertNumaBudget,
				fmt.Sprintf("cell memory within maxMemory (%d bytes)", budget),
				fmt.Sprintf("cells use at least %d bytes", total))
		}
	}
	return nil
}

// assertUniqueCells checks that NUMA cell ids are distinct.
func assertUniqueCells(doc Document, _ Assertion) error {
	seen := make(map[string]bool)
	for _, cell := range doc.Root.FindElements("./cpu/numa/cell") {
		id := cell.SelectAttrValue("id", "")
		if seen[id] {
			return failure(doc, AssertUniqueCells, "distinct cell ids", "duplicate cell id "+id)
		}
		seen[id] = true
	}
	return nil
}

// assertVcpupinUnique checks that pinned vcpu ids are distinct and below
// the vcpu count.
func assertVcpupinUnique(doc Document, _ Assertion) error {
	pins := doc.Root.FindElements("./cputune/vcpupin")
	if len(pins) == 0 {
		return nil
	}

	vcpuEl := doc.Root.FindElement("./vcpu")
	if vcpuEl == nil {
		return failure(doc, AssertVcpupinUnique, "a vcpu element", "none")
	}
	maxVcpu, err := strconv.ParseUint(strings.TrimSpace(vcpuEl.Text()), 10, 32)
	if err != nil {
		return failure(doc, AssertVcpupinUnique, "a numeric vcpu count", vcpuEl.Text())
	}

	seen := make(map[uint64]bool)
	for _, pin := range pins {
		raw := pin.SelectAttrValue("vcpu", "")
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return failure(doc, AssertVcpupinUnique, "a numeric vcpu id", raw)
		}
		if id >= maxVcpu {
			return failure(doc, AssertVcpupinUnique,
				fmt.Sprintf("vcpu ids below %d", maxVcpu),
				fmt.Sprintf("vcpu id %d", id))
		}
		if seen[id] {
			return failure(doc, AssertVcpupinUnique, "distinct vcpu ids", fmt.Sprintf("vcpu %d pinned twice", id))
		}
		seen[id] = true
	}
	return nil
}

// assertUnitScaling scales every quantity at the path to bytes and checks
// it against the domain's maxMemory, or the maximum memory bound when the
// document has none. Quantities in different units compare by bytes.
func assertUnitScaling(doc Document, a Assertion) error {
	ceiling, ceilingName := int64(engine.MaxMemoryBound), "the memory bound"
	maxEl := doc.Root.FindElement("./maxMemory")
	if maxEl != nil {
		n, err := elementBytes(maxEl, "")
		if err != nil {
			return failure(doc, AssertUnitScaling, "a valid maxMemory", err.Error())
		}
		if n > ceiling {
			return failure(doc, AssertUnitScaling,
				fmt.Sprintf("maxMemory <= %d bytes", ceiling),
				fmt.Sprintf("maxMemory is %d bytes", n))
		}
		ceiling, ceilingName = n, "maxMemory"
	}

	for _, el := range doc.Root.FindElements(a.Path) {
		n, err := elementBytes(el, a.Attr)
		if err != nil {
			return failure(doc, AssertUnitScaling, "a valid quantity at "+a.Path, err.Error())
		}
		if el != maxEl && n > ceiling {
			return failure(doc, AssertUnitScaling,
				fmt.Sprintf("at most %d bytes (%s)", ceiling, ceilingName),
				fmt.Sprintf("%d bytes at %s", n, a.Path))
		}
	}
	return nil
}

// assertCpusetDisjoint checks that the id sets of the selected elements are
// pairwise disjoint.
func assertCpusetDisjoint(doc Document, a Assertion) error {
	els := doc.Root.FindElements(a.Path)
	sets := make([]*roaring.Bitmap, len(els))
	for i, el := range els {
		set, err := xmlgen.ParseIDSet(el.SelectAttrValue(a.Attr, ""))
		if err != nil {
			return failure(doc, AssertCpusetDisjoint, "a valid id set", err.Error())
		}
		for j := 0; j < i; j++ {
			if set.Intersects(sets[j]) {
				return failure(doc, AssertCpusetDisjoint,
					fmt.Sprintf("disjoint %s sets", a.Attr),
					fmt.Sprintf("%s overlaps %s",
						el.SelectAttrValue(a.Attr, ""), els[j].SelectAttrValue(a.Attr, "")))
			}
		}
		sets[i] = set
	}
	return nil
}

// assertElementAbsent checks that the path selects nothing.
func assertElementAbsent(doc Document, a Assertion) error {
	if el := doc.Root.FindElement(a.Path); el != nil {
		return failure(doc, AssertElementAbsent, "no element at "+a.Path, "found <"+el.Tag+">")
	}
	return nil
}

// assertElementPresent checks that enough documents contain the path.
func assertElementPresent(docs []Document, a Assertion) error {
	want := a.Count
	if want == 0 {
		want = len(docs)
	}

	found := 0
	var missing *Document
	for i := range docs {
		if docs[i].Root.FindElement(a.Path) != nil {
			found++
		} else if missing == nil {
			missing = &docs[i]
		}
	}
	if found >= want {
		return nil
	}

	doc := Document{}
	if missing != nil {
		doc = *missing
	}
	return failure(doc, AssertElementPresent,
		fmt.Sprintf("%s in at least %d documents", a.Path, want),
		fmt.Sprintf("found in %d of %d", found, len(docs)))
}

var perDocument = map[string]func(Document, Assertion) error{
	AssertMemoryChain:    assertMemoryChain,
	AssertNumaBudget:     assertNumaBudget,
	AssertUniqueCells:    assertUniqueCells,
	AssertVcpupinUnique:  assertVcpupinUnique,
	AssertUnitScaling:    assertUnitScaling,
	AssertCpusetDisjoint: assertCpusetDisjoint,
	AssertElementAbsent:  assertElementAbsent,
}

// EvaluateAssertions evaluates all assertions against the documents.
// Returns a slice of error messages for failed assertions, at most one per
// assertion. Documents without a root element are skipped.
func EvaluateAssertions(docs []Document, assertions []Assertion) []string {
	var rooted []Document
	for _, d := range docs {
		if d.Root != nil {
			rooted = append(rooted, d)
		}
	}

	var errors []string
	for i, assertion := range assertions {
		var err error

		if assertion.Type == AssertElementPresent {
			err = assertElementPresent(rooted, assertion)
		} else if check, ok := perDocument[assertion.Type]; ok {
			for _, doc := range rooted {
				if err = check(doc, assertion); err != nil {
					break
				}
			}
		} else {
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
