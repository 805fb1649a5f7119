package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/grammar"
)

func TestGrammar_LoadsFixtureWithIncludeAndOverlay(t *testing.T) {
	g := Grammar(t)

	require.NotNil(t, g.Start())
	// basictypes.rng
	_, ok := g.Define("cpuset")
	assert.True(t, ok)
	// overlay insert
	_, ok = g.Define("pciController")
	assert.True(t, ok)

	// overlay replacement of the placeholder command line
	cmd, ok := g.Define("qemucmdline")
	require.True(t, ok)
	assert.NotNil(t, cmd.Find(".//element[@name='arg']"))
	assert.Nil(t, cmd.Find(".//notAllowed"))
}

func TestWriteSchema_LoadsFromDisk(t *testing.T) {
	path := WriteSchema(t, t.TempDir())

	g, err := grammar.LoadFile(path)
	require.NoError(t, err)
	_, ok := g.Define("domain")
	assert.True(t, ok)
}

func TestSeeds(t *testing.T) {
	assert.Equal(t, []uint64{7, 8, 9}, Seeds(7, 3))
	assert.Empty(t, Seeds(1, 0))
}

func TestSource_Deterministic(t *testing.T) {
	a, b := Source(42), Source(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Int(0, 1000), b.Int(0, 1000))
	}
}

func TestElement(t *testing.T) {
	el := Element("cell", "id", "3", "memory", "1024")
	assert.Equal(t, "cell", el.Tag)
	assert.Equal(t, int64(3), IntAttr(t, el, "id"))
	assert.Equal(t, int64(1024), IntAttr(t, el, "memory"))
}

func TestParseDocument(t *testing.T) {
	root := ParseDocument(t, `<domain type="kvm"><memory unit="k">4</memory></domain>`)
	assert.Equal(t, "domain", root.Tag)
	assert.Equal(t, "4", root.FindElement("./memory").Text())
}
