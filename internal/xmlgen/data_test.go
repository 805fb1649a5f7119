package xmlgen

import (
	"strconv"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/testutil"
)

func TestFormatIDSet(t *testing.T) {
	tests := []struct {
		name string
		ids  []uint32
		want string
	}{
		{"empty", nil, ""},
		{"single", []uint32{4}, "4"},
		{"range", []uint32{0, 1, 2, 3}, "0-3"},
		{"range and single", []uint32{0, 1, 2, 3, 5}, "0-3,5"},
		{"singles", []uint32{1, 3, 5}, "1,3,5"},
		{"two ranges", []uint32{7, 8, 2, 3}, "2-3,7-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatIDSet(roaring.BitmapOf(tt.ids...)))
		})
	}
	assert.Equal(t, "", FormatIDSet(nil))
}

func TestParseIDSet(t *testing.T) {
	tests := []struct {
		in   string
		want []uint32
	}{
		{"", nil},
		{"4", []uint32{4}},
		{"0-3,5", []uint32{0, 1, 2, 3, 5}},
		{"2-3, 7-8", []uint32{2, 3, 7, 8}},
		{"0-5,^2", []uint32{0, 1, 3, 4, 5}},
	}
	for _, tt := range tests {
		ids, err := ParseIDSet(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, nilIfEmpty(ids.ToArray()), tt.in)
	}

	for _, bad := range []string{"a", "3-1", "1-", "^x"} {
		_, err := ParseIDSet(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseIDSet_InvertsFormat(t *testing.T) {
	ids := roaring.BitmapOf(0, 1, 2, 9, 11, 12)
	back, err := ParseIDSet(FormatIDSet(ids))
	require.NoError(t, err)
	assert.True(t, ids.Equals(back))
}

func nilIfEmpty(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

const dataSchema = `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><element name="root"><empty/></element></start>
  <define name="bounded">
    <data type="unsignedInt">
      <param name="minInclusive">3</param>
      <param name="maxInclusive">5</param>
    </data>
  </define>
  <define name="patterned">
    <data type="string"><param name="pattern">ab[0-9]{2}</param></data>
  </define>
  <define name="flag"><data type="boolean"/></define>
  <define name="plain"><data type="string"/></define>
</grammar>`

func dataNode(t *testing.T, g *grammar.Grammar, define string) *grammar.Node {
	t.Helper()
	def, ok := g.Define(define)
	require.True(t, ok)
	n := def.Child(grammar.KindData, "")
	require.NotNil(t, n)
	return n
}

func TestDefaultData(t *testing.T) {
	g, err := grammar.Parse([]byte(dataSchema))
	require.NoError(t, err)
	src := testutil.Source(9)

	for i := 0; i < 50; i++ {
		s, err := defaultData(src, dataNode(t, g, "bounded"))
		require.NoError(t, err)
		n, err := strconv.Atoi(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)

		s, err = defaultData(src, dataNode(t, g, "patterned"))
		require.NoError(t, err)
		assert.Regexp(t, `^ab[0-9]{2}$`, s)

		s, err = defaultData(src, dataNode(t, g, "flag"))
		require.NoError(t, err)
		assert.Contains(t, []string{"true", "false"}, s)

		s, err = defaultData(src, dataNode(t, g, "plain"))
		require.NoError(t, err)
		assert.Regexp(t, `^[a-zA-Z0-9_]{1,12}$`, s)
	}
}

func TestQuota(t *testing.T) {
	q := newQuota(2)
	require.NoError(t, q.Check())
	require.NoError(t, q.Check())

	err := q.Check()
	require.Error(t, err)
	assert.True(t, IsLimitError(err))
	assert.Equal(t, 3, q.Current())
	assert.Contains(t, err.Error(), "max_nodes")

	unlimited := newQuota(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Check())
	}
}
