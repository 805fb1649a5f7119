package testutil

import (
	"strconv"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

// ParseDocument parses an XML document and returns its root element.
func ParseDocument(t testing.TB, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	require.NotNil(t, doc.Root(), "document has no root")
	return doc.Root()
}

// Element builds a detached element with the given attributes, given as
// name/value pairs.
func Element(tag string, attrs ...string) *etree.Element {
	el := etree.NewElement(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		el.CreateAttr(attrs[i], attrs[i+1])
	}
	return el
}

// IntAttr returns the integer value of an attribute, failing the test when
// it is missing or malformed.
func IntAttr(t testing.TB, el *etree.Element, name string) int64 {
	t.Helper()
	a := el.SelectAttr(name)
	require.NotNil(t, a, "<%s> has no attribute %q", el.Tag, name)
	n, err := strconv.ParseInt(a.Value, 10, 64)
	require.NoError(t, err)
	return n
}
