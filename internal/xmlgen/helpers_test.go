package xmlgen

import (
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/testutil"
)

func newGenerator(t testing.TB, mode engine.Mode, opts Options) *Generator {
	t.Helper()
	reg, err := engine.Build(engine.DefaultRules())
	require.NoError(t, err)
	return New(testutil.Grammar(t), reg, mode, opts)
}

// memoryBytes returns the size in bytes of a memory-like element whose text
// is the amount and whose unit attribute names the unit.
func memoryBytes(t testing.TB, el *etree.Element) int64 {
	t.Helper()
	unitName := el.SelectAttrValue("unit", "")
	require.NotEmpty(t, unitName, "<%s> has no unit", el.Tag)
	unit, ok := engine.LookupUnit(unitName)
	require.True(t, ok, "unknown unit %q", unitName)
	n, err := strconv.ParseInt(strings.TrimSpace(el.Text()), 10, 64)
	require.NoError(t, err)
	return n * unit.Multiplier
}

// parseIDSet parses a cpuset expression of ids and ranges.
func parseIDSet(t testing.TB, s string) []uint32 {
	t.Helper()
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.ParseUint(lo, 10, 32)
		require.NoError(t, err, "cpuset %q", s)
		b := a
		if isRange {
			b, err = strconv.ParseUint(hi, 10, 32)
			require.NoError(t, err, "cpuset %q", s)
		}
		for i := a; i <= b; i++ {
			out = append(out, uint32(i))
		}
	}
	return out
}
