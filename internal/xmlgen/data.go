package xmlgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

// FormatIDSet renders ids as a cpuset expression: ascending, with runs of
// consecutive ids collapsed into ranges, e.g. "0-3,5".
func FormatIDSet(ids *roaring.Bitmap) string {
	if ids == nil || ids.IsEmpty() {
		return ""
	}
	var b strings.Builder
	it := ids.Iterator()
	first := true
	start := it.Next()
	prev := start
	flush := func() {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.FormatUint(uint64(start), 10))
		if prev != start {
			b.WriteByte('-')
			b.WriteString(strconv.FormatUint(uint64(prev), 10))
		}
	}
	for it.HasNext() {
		n := it.Next()
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return b.String()
}

// ParseIDSet parses a cpuset expression of ids and inclusive ranges. Excluded
// ids ("^3") are removed from the ids listed before them.
func ParseIDSet(s string) (*roaring.Bitmap, error) {
	ids := roaring.New()
	if strings.TrimSpace(s) == "" {
		return ids, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "^"); ok {
			n, err := strconv.ParseUint(rest, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("id set %q: %w", s, err)
			}
			ids.Remove(uint32(n))
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("id set %q: %w", s, err)
		}
		last := first
		if isRange {
			if last, err = strconv.ParseUint(hi, 10, 32); err != nil {
				return nil, fmt.Errorf("id set %q: %w", s, err)
			}
			if last < first {
				return nil, fmt.Errorf("id set %q: range %s is reversed", s, part)
			}
		}
		ids.AddRange(first, last+1)
	}
	return ids, nil
}

type numericRange struct {
	lo, hi int64
}

// Ranges of the XML Schema integer types. Unbounded types are clipped so
// that defaults stay readable.
var integerTypes = map[string]numericRange{
	"byte":               {math.MinInt8, math.MaxInt8},
	"unsignedByte":       {0, math.MaxUint8},
	"short":              {math.MinInt16, math.MaxInt16},
	"unsignedShort":      {0, math.MaxUint16},
	"int":                {math.MinInt32, math.MaxInt32},
	"unsignedInt":        {0, math.MaxUint32},
	"long":               {math.MinInt32, math.MaxInt32},
	"unsignedLong":       {0, math.MaxUint32},
	"integer":            {math.MinInt32, math.MaxInt32},
	"nonNegativeInteger": {0, math.MaxUint32},
	"positiveInteger":    {1, math.MaxUint32},
}

const (
	defaultStringPattern = `[a-zA-Z0-9_]{1,12}`
	defaultTextPattern   = `[a-z]{1,12}`
	patternLimit         = 8
)

// defaultData generates a value for a data pattern the rules left to the
// grammar. Integer types honor minInclusive and maxInclusive; other types
// honor pattern.
func defaultData(src *rnd.Source, n *grammar.Node) (string, error) {
	typ, _ := n.Attr("type")

	if r, ok := integerTypes[typ]; ok {
		if s, ok := n.Param("minInclusive"); ok {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > r.lo {
				r.lo = v
			}
		}
		if s, ok := n.Param("maxInclusive"); ok {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil && v < r.hi {
				r.hi = v
			}
		}
		if r.hi < r.lo {
			r.hi = r.lo
		}
		return strconv.FormatInt(src.Int64(r.lo, r.hi), 10), nil
	}

	switch typ {
	case "boolean":
		return strconv.FormatBool(src.Bool()), nil
	case "double", "float", "decimal":
		return strconv.FormatFloat(src.Float64()*1000, 'f', 3, 64), nil
	}

	pattern := defaultStringPattern
	if p, ok := n.Param("pattern"); ok {
		pattern = p
	}
	return src.Regex(pattern, patternLimit)
}

func defaultText(src *rnd.Source) string {
	s, err := src.Regex(defaultTextPattern, patternLimit)
	if err != nil {
		return "x"
	}
	return s
}
