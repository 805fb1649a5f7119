package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSchema = `<?xml version="1.0"?>
<grammar xmlns="http://relaxng.org/ns/structure/1.0"
         xmlns:a="http://relaxng.org/ns/compatibility/annotations/1.0"
         datatypeLibrary="http://www.w3.org/2001/XMLSchema-datatypes">
  <include href="common.rng"/>
  <start>
    <ref name="domain"/>
  </start>
  <define name="domain">
    <a:documentation>the root</a:documentation>
    <element name="domain">
      <attribute name="type">
        <choice>
          <value>qemu</value>
          <value>kvm</value>
        </choice>
      </attribute>
      <optional>
        <element name="vcpu"><ref name="countCPU"/></element>
      </optional>
      <ref name="address"/>
    </element>
  </define>
</grammar>`

const commonSchema = `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <include href="sub/types.rng"/>
  <define name="address">
    <element name="address">
      <attribute name="slot"><ref name="pciSlot"/></attribute>
    </element>
  </define>
  <define name="countCPU">
    <data type="unsignedShort">
      <param name="minInclusive">1</param>
    </data>
  </define>
</grammar>`

const typesSchema = `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <define name="pciSlot">
    <data type="string"><param name="pattern">(0x)?[0-9a-fA-F]{1,2}</param></data>
  </define>
</grammar>`

func TestLoad_ResolvesNestedIncludes(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "domain.rng", []byte(baseSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "common.rng", []byte(commonSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "sub/types.rng", []byte(typesSchema), 0o644))

	g, err := Load(fs, "domain.rng")
	require.NoError(t, err)

	assert.Equal(t, []string{"address", "countCPU", "domain", "pciSlot"}, g.Defines())

	start := g.Start()
	require.NotNil(t, start)
	assert.Equal(t, KindStart, start.Kind)
	require.Len(t, start.Children, 1)

	ref := start.Children[0]
	assert.Equal(t, KindRef, ref.Kind)
	domain, ok := g.Resolve(ref)
	require.True(t, ok)
	assert.Equal(t, "domain", domain.Name)

	// Annotations are dropped from the pattern tree.
	require.Len(t, domain.Children, 1)
	el := domain.Children[0]
	assert.Equal(t, KindElement, el.Kind)
	assert.Equal(t, "domain", el.Name)
}

func TestLoad_IncludeRelativeToIncludingFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "schemas/domain.rng", []byte(baseSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "schemas/common.rng", []byte(commonSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "schemas/sub/types.rng", []byte(typesSchema), 0o644))

	g, err := Load(fs, "schemas/domain.rng")
	require.NoError(t, err)

	slot, ok := g.Define("pciSlot")
	require.True(t, ok)
	data := slot.Child(KindData, "")
	require.NotNil(t, data)
	typ, ok := data.Attr("type")
	assert.True(t, ok)
	assert.Equal(t, "string", typ)
	pattern, ok := data.Param("pattern")
	assert.True(t, ok)
	assert.Equal(t, "(0x)?[0-9a-fA-F]{1,2}", pattern)
}

func TestLoad_OverlayReplacesDefinitions(t *testing.T) {
	overlay := `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <define name="countCPU">
    <data type="unsignedShort">
      <param name="minInclusive">1</param>
      <param name="maxInclusive">8</param>
    </data>
  </define>
  <define name="extra">
    <element name="extra"><empty/></element>
  </define>
</grammar>`

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "domain.rng", []byte(baseSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "common.rng", []byte(commonSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "sub/types.rng", []byte(typesSchema), 0o644))
	require.NoError(t, util.WriteFile(fs, "domain.rng"+OverlaySuffix, []byte(overlay), 0o644))

	g, err := Load(fs, "domain.rng")
	require.NoError(t, err)

	count, ok := g.Define("countCPU")
	require.True(t, ok)
	maxInc, ok := count.Child(KindData, "").Param("maxInclusive")
	require.True(t, ok)
	assert.Equal(t, "8", maxInc)

	_, ok = g.Define("extra")
	assert.True(t, ok)
}

func TestLoad_IncludeCycle(t *testing.T) {
	a := `<grammar xmlns="http://relaxng.org/ns/structure/1.0"><include href="b.rng"/><start><empty/></start></grammar>`
	b := `<grammar xmlns="http://relaxng.org/ns/structure/1.0"><include href="a.rng"/></grammar>`

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a.rng", []byte(a), 0o644))
	require.NoError(t, util.WriteFile(fs, "b.rng", []byte(b), 0o644))

	_, err := Load(fs, "a.rng")
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeIncludeCycle, le.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(memfs.New(), "missing.rng")
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeRead, le.Code)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_UndefinedRef(t *testing.T) {
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0"><start><ref name="nope"/></start></grammar>`
	_, err := Parse([]byte(schema))
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeUndefinedRef, le.Code)
	assert.Contains(t, le.Message, "nope")
}

func TestParse_ParentRefRejected(t *testing.T) {
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><element name="domain"><parentRef name="domain"/></element></start>
  <define name="domain"><element name="inner"><empty/></element></define>
</grammar>`
	_, err := Parse([]byte(schema))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeUnsupported, le.Code)
	assert.Contains(t, le.Message, `parentRef "domain"`)
}

func TestParse_NoStart(t *testing.T) {
	_, err := Parse([]byte(`<grammar xmlns="http://relaxng.org/ns/structure/1.0"/>`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNoStart, le.Code)
}

func TestParse_CombineChoice(t *testing.T) {
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><ref name="x"/></start>
  <define name="x"><element name="a"><empty/></element></define>
  <define name="x" combine="choice"><element name="b"><empty/></element></define>
</grammar>`

	g, err := Parse([]byte(schema))
	require.NoError(t, err)

	x, ok := g.Define("x")
	require.True(t, ok)
	require.Len(t, x.Children, 1)
	choice := x.Children[0]
	assert.Equal(t, KindChoice, choice.Kind)
	require.Len(t, choice.Children, 2)
	assert.Equal(t, "a", choice.Children[0].Find("./element").Name)
	assert.Equal(t, "b", choice.Children[1].Find("./element").Name)
}

func TestParse_DivFlattened(t *testing.T) {
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><ref name="x"/></start>
  <div><define name="x"><element name="a"><text/></element></define></div>
</grammar>`

	g, err := Parse([]byte(schema))
	require.NoError(t, err)
	_, ok := g.Define("x")
	assert.True(t, ok)
}

func TestNode_Queries(t *testing.T) {
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><ref name="addr"/></start>
  <define name="addr">
    <choice>
      <group>
        <attribute name="type"><value>pci</value></attribute>
        <ref name="slot"/>
      </group>
      <group>
        <attribute name="type"><value>usb</value></attribute>
      </group>
    </choice>
  </define>
  <define name="slot"><attribute name="slot"><data type="string"/></attribute></define>
</grammar>`

	g, err := Parse([]byte(schema))
	require.NoError(t, err)

	addr, _ := g.Define("addr")
	choice := addr.Children[0]

	values := choice.FindAll("./group/attribute/value")
	require.Len(t, values, 2)
	assert.Equal(t, "pci", values[0].Text)
	assert.Equal(t, "usb", values[1].Text)

	group := choice.Find("./group/ref[@name='slot']/..")
	require.NotNil(t, group)
	assert.Equal(t, KindGroup, group.Kind)
	assert.True(t, choice.HasChild(group))
	assert.False(t, choice.HasChild(values[0]))
	assert.Same(t, choice, group.Parent())

	assert.Nil(t, choice.Find("./element"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindZeroOrMore, KindOf("zeroOrMore"))
	assert.Equal(t, KindOther, KindOf("bogus"))
	assert.Equal(t, "oneOrMore", KindOneOrMore.String())
	assert.Equal(t, "other", KindOther.String())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	schema := `<grammar xmlns="http://relaxng.org/ns/structure/1.0"><start><element name="a"><empty/></element></start></grammar>`
	path := filepath.Join(dir, "a.rng")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", g.Start().Children[0].Name)
}
