package xmlgen

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/testutil"
)

func TestGenerate_Deterministic(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	for _, seed := range testutil.Seeds(1, 20) {
		a, err := gen.Generate(seed)
		require.NoError(t, err)
		b, err := gen.Generate(seed)
		require.NoError(t, err)
		assert.Equal(t, a.String(), b.String(), "seed %d", seed)
	}
}

func TestGenerate_RootIsDomain(t *testing.T) {
	for _, mode := range []engine.Mode{engine.ModeRaw, engine.ModeDefinable, engine.ModeStartable} {
		gen := newGenerator(t, mode, Options{})
		res, err := gen.Generate(7)
		require.NoError(t, err)

		require.NotNil(t, res.Root())
		assert.Equal(t, "domain", res.Root().Tag)
		assert.Equal(t, mode, res.Mode)
		assert.Equal(t, uint64(7), res.Seed)
		assert.Positive(t, res.Nodes)
		assert.False(t, res.Truncated)
	}
}

func TestGenerate_MemoryChain(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 1000, 8)
	require.NoError(t, err)
	require.Len(t, results, 1000)

	for _, res := range results {
		root := res.Root()
		actual := memoryBytes(t, root.FindElement("./memory"))
		assert.GreaterOrEqual(t, actual, int64(1), "seed %d", res.Seed)

		if maxEl := root.FindElement("./maxMemory"); maxEl != nil {
			assert.LessOrEqual(t, actual, memoryBytes(t, maxEl), "seed %d", res.Seed)
		}
		if curEl := root.FindElement("./currentMemory"); curEl != nil {
			assert.LessOrEqual(t, memoryBytes(t, curEl), actual, "seed %d", res.Seed)
		}
	}
}

func TestGenerate_MemoryValuesArePositive(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 100, 200, 4)
	require.NoError(t, err)

	for _, res := range results {
		root := res.Root()
		for _, path := range []string{"./maxMemory", "./memory", "./currentMemory"} {
			el := root.FindElement(path)
			if el == nil {
				continue
			}
			n, err := strconv.ParseInt(strings.TrimSpace(el.Text()), 10, 64)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, int64(1), "seed %d %s", res.Seed, path)
		}
	}
}

func TestGenerate_NumaCells(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 300, 4)
	require.NoError(t, err)

	for _, res := range results {
		root := res.Root()
		cells := root.FindElements("./cpu/numa/cell")
		if len(cells) == 0 {
			continue
		}

		ids := make(map[int64]bool)
		cpus := make(map[uint32]bool)
		var total int64
		for _, cell := range cells {
			id := testutil.IntAttr(t, cell, "id")
			assert.False(t, ids[id], "seed %d: duplicate cell id %d", res.Seed, id)
			ids[id] = true

			for _, c := range parseIDSet(t, cell.SelectAttrValue("cpus", "")) {
				assert.False(t, cpus[c], "seed %d: cpu %d in two cells", res.Seed, c)
				cpus[c] = true
			}

			unit, ok := engine.LookupUnit(cell.SelectAttrValue("unit", ""))
			require.True(t, ok, "seed %d: cell unit", res.Seed)
			total += testutil.IntAttr(t, cell, "memory") * unit.Multiplier
		}

		if maxEl := root.FindElement("./maxMemory"); maxEl != nil {
			assert.LessOrEqual(t, total, memoryBytes(t, maxEl), "seed %d", res.Seed)
		}
	}
}

func TestGenerate_VcpupinUniqueAndInRange(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 300, 4)
	require.NoError(t, err)

	for _, res := range results {
		root := res.Root()
		maxVcpu, err := strconv.ParseInt(strings.TrimSpace(root.FindElement("./vcpu").Text()), 10, 64)
		require.NoError(t, err)

		seen := make(map[int64]bool)
		for _, pin := range root.FindElements("./cputune/vcpupin") {
			id := testutil.IntAttr(t, pin, "vcpu")
			assert.False(t, seen[id], "seed %d: vcpu %d pinned twice", res.Seed, id)
			assert.GreaterOrEqual(t, id, int64(0))
			assert.Less(t, id, maxVcpu, "seed %d", res.Seed)
			seen[id] = true
		}
	}
}

func TestGenerate_VcpuschedDisjoint(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 300, 4)
	require.NoError(t, err)

	for _, res := range results {
		for _, path := range []string{"./cputune/vcpusched", "./cputune/iothreadsched"} {
			attr := "vcpus"
			if strings.HasSuffix(path, "iothreadsched") {
				attr = "iothreads"
			}
			seen := make(map[uint32]bool)
			for _, el := range res.Root().FindElements(path) {
				ids := parseIDSet(t, el.SelectAttrValue(attr, ""))
				assert.NotEmpty(t, ids)
				for _, id := range ids {
					assert.False(t, seen[id], "seed %d: id %d in two %s sets", res.Seed, id, path)
					seen[id] = true
				}
			}
		}
	}
}

func TestGenerate_HugepageNodesetsDistinct(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 300, 4)
	require.NoError(t, err)

	for _, res := range results {
		seen := make(map[string]bool)
		for _, page := range res.Root().FindElements("./memoryBacking/hugepages/page[@nodeset]") {
			ns := page.SelectAttrValue("nodeset", "")
			assert.False(t, seen[ns], "seed %d: nodeset %s repeated", res.Seed, ns)
			seen[ns] = true
		}
	}
}

func TestGenerate_StartableSeclabelModels(t *testing.T) {
	gen := newGenerator(t, engine.ModeStartable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 300, 4)
	require.NoError(t, err)

	for _, res := range results {
		owners := append(res.Root().FindElements(".//source"), res.Root())
		for _, owner := range owners {
			seen := make(map[string]bool)
			for _, label := range owner.SelectElements("seclabel") {
				model := label.SelectAttrValue("model", "")
				if model == "" {
					continue
				}
				assert.Contains(t, []string{"none", "dac"}, model, "seed %d", res.Seed)
				assert.False(t, seen[model], "seed %d: model %s repeated", res.Seed, model)
				seen[model] = true
			}
		}
	}
}

func TestGenerate_DefinableExpandsPCIController(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 100, 4)
	require.NoError(t, err)

	for _, res := range results {
		root := res.Root()
		assert.Nil(t, root.FindElement("./commandline"), "seed %d", res.Seed)
		assert.Nil(t, root.FindElement("./metadata"), "seed %d", res.Seed)
		assert.Nil(t, root.FindElement("./bootloader"), "seed %d", res.Seed)
		assert.NotNil(t, root.FindElement("./devices/controller[@type='pci']"), "seed %d", res.Seed)
	}
}

func TestGenerate_RawModeAppliesOnlyRawRules(t *testing.T) {
	gen := newGenerator(t, engine.ModeRaw, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 100, 4)
	require.NoError(t, err)

	sawCommandline := false
	for _, res := range results {
		root := res.Root()
		assert.Nil(t, root.FindElement("./metadata"), "seed %d", res.Seed)
		if root.FindElement("./commandline") != nil {
			sawCommandline = true
		}
		if typ := root.SelectAttrValue("type", ""); typ == "qemu" || typ == "kvm" {
			assert.Nil(t, root.FindElement("./devices/hostdev[@mode='capabilities']"), "seed %d", res.Seed)
		}
	}
	assert.True(t, sawCommandline, "raw generation never kept the qemu command line")
}

func TestGenerateBatch_MatchesSequential(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	batch, err := gen.GenerateBatch(context.Background(), 40, 16, 4)
	require.NoError(t, err)
	require.Len(t, batch, 16)

	for i, res := range batch {
		require.Equal(t, uint64(40+i), res.Seed)
		seq, err := gen.Generate(res.Seed)
		require.NoError(t, err)
		assert.Equal(t, seq.String(), res.String())
	}
}

func TestGenerateSeeds_KeepsOrder(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	seeds := []uint64{9, 2, 30, 2}
	results, err := gen.GenerateSeeds(context.Background(), seeds, 3)
	require.NoError(t, err)
	require.Len(t, results, len(seeds))

	for i, res := range results {
		assert.Equal(t, seeds[i], res.Seed)
	}
	assert.Equal(t, results[1].String(), results[3].String())
}

func TestGenerateBatch_Canceled(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.GenerateBatch(ctx, 1, 10, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateBatch_Empty(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{})

	results, err := gen.GenerateBatch(context.Background(), 1, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGenerate_NodeQuotaTruncates(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{MaxNodes: 5})

	res, err := gen.Generate(3)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 6, res.Nodes)
}

func TestGenerate_DepthLimitTruncates(t *testing.T) {
	gen := newGenerator(t, engine.ModeDefinable, Options{MaxDepth: 1})

	res, err := gen.Generate(3)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "domain", res.Root().Tag)
	assert.Empty(t, res.Root().ChildElements())
}
