package xmlgen

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/testutil"
)

func newWalker(t *testing.T, seed uint64) *walker {
	t.Helper()
	gen := newGenerator(t, engine.ModeDefinable, Options{})
	src := testutil.Source(seed)
	return &walker{
		gen:   gen,
		ctx:   engine.NewContext(gen.Mode(), src),
		src:   src,
		quota: newQuota(0),
		doc:   etree.NewDocument(),
	}
}

func TestExpandDefine_DetachedElement(t *testing.T) {
	w := newWalker(t, 5)

	el, err := w.ExpandDefine("pciController")
	require.NoError(t, err)
	assert.Equal(t, "controller", el.Tag)
	assert.Equal(t, "pci", el.SelectAttrValue("type", ""))
	assert.Nil(t, el.Parent())
	assert.Empty(t, w.stack)
	assert.Nil(t, w.value)
	assert.Positive(t, w.quota.Current())
}

func TestExpandDefine_Errors(t *testing.T) {
	w := newWalker(t, 5)

	_, err := w.ExpandDefine("noSuchPattern")
	assert.ErrorContains(t, err, "undefined pattern")

	// idmapAttrs only holds attributes.
	_, err = w.ExpandDefine("idmapAttrs")
	assert.ErrorContains(t, err, "produced 0 elements")
}
