// Package testutil provides shared fixtures for package tests: a small
// libvirt-like domain schema split across an include and an overlay, seeded
// random sources, document helpers and a resettable sequence.
package testutil

import (
	"embed"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

//go:embed testdata/schema
var schemaFiles embed.FS

const schemaDir = "testdata/schema"

// SchemaPath is the name of the fixture schema's main file.
const SchemaPath = "domain.rng"

// SchemaFS returns an in-memory filesystem with the fixture schema files at
// its root.
func SchemaFS(t testing.TB) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	copySchema(t, fs)
	return fs
}

// WriteSchema writes the fixture schema files into dir and returns the path
// of the main file.
func WriteSchema(t testing.TB, dir string) string {
	t.Helper()
	copySchema(t, osfs.New(dir))
	return filepath.Join(dir, SchemaPath)
}

func copySchema(t testing.TB, fs billy.Filesystem) {
	t.Helper()
	entries, err := schemaFiles.ReadDir(schemaDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := schemaFiles.ReadFile(path.Join(schemaDir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, util.WriteFile(fs, e.Name(), data, 0o644))
	}
}

// Grammar loads the fixture schema.
func Grammar(t testing.TB) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Load(SchemaFS(t), SchemaPath)
	require.NoError(t, err)
	return g
}

// Source returns a random source seeded with seed.
func Source(seed uint64) *rnd.Source {
	return rnd.New(seed)
}

// Seeds returns n consecutive seeds starting at base.
func Seeds(base uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = base + uint64(i)
	}
	return out
}
