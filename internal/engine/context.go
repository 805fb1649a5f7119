package engine

import (
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring"
	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/roach88/domfuzz/internal/rnd"
)

// Fact names a piece of generation state shared between rules. Rules declare
// the facts they read and write so that a registry can be verified before
// any document is generated.
type Fact string

const (
	FactMaxVcpu       Fact = "max_vcpu"
	FactMaxIOThread   Fact = "max_iothread"
	FactIOThreads     Fact = "iothreads"
	FactMaxMemory     Fact = "maxmem"
	FactActualMemory  Fact = "actmem"
	FactCurrentMemory Fact = "curmem"
	FactLeftNumaMem   Fact = "left_numa_mem"
	FactNumaMaxID     Fact = "numa_maxid"
	FactCellMemory    Fact = "cell_mem"
	FactDomainUUID    Fact = "domain_uuid"

	// Id-set accumulators.
	FactPinnedCPUs    Fact = "unpinned_cpus"
	FactHugeCPUs      Fact = "hugecpus"
	FactIOThreadIDs   Fact = "iothreadids"
	FactCellVcpus     Fact = "cell_vcpus"
	FactVcpuSched     Fact = "vcpusched"
	FactIOThreadSched Fact = "iothreadsched"
)

// Diagnostic records a rule that misbehaved during generation. The visit it
// occurred in was treated as Defer.
type Diagnostic struct {
	Rule    string
	Kind    NodeKind
	DocPath string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s at %s: %s", d.Kind, d.Rule, d.DocPath, d.Message)
}

type memo[T any] struct {
	v  T
	ok bool
}

func (m *memo[T]) get(compute func() T) T {
	if !m.ok {
		m.v = compute()
		m.ok = true
	}
	return m.v
}

// Context is the state of one document generation. Scalar facts are
// computed on first use and never redrawn; id-set accumulators only grow.
//
// A Context is owned by a single generation and is not safe for concurrent
// use.
type Context struct {
	mode Mode
	src  *rnd.Source

	maxVcpu     memo[int]
	maxIOThread memo[int]
	ioThreads   memo[int]
	maxMem      memo[Quantity]
	actMem      memo[Quantity]
	curMem      memo[Quantity]
	leftNumaMem memo[int64]
	domainUUID  memo[string]

	numaMaxID int
	numaCells int

	cellMem map[*etree.Element]Quantity
	used    map[Fact]*roaring.Bitmap

	// rule is the name of the rule being dispatched, for diagnostics.
	rule  string
	diags []Diagnostic
}

// NewContext creates the context for one document generation.
func NewContext(mode Mode, src *rnd.Source) *Context {
	return &Context{
		mode:    mode,
		src:     src,
		cellMem: make(map[*etree.Element]Quantity),
		used:    make(map[Fact]*roaring.Bitmap),
	}
}

// Mode returns the validity mode of the generation.
func (c *Context) Mode() Mode {
	return c.mode
}

// Rand returns the random source of the generation.
func (c *Context) Rand() *rnd.Source {
	return c.src
}

// Diagnostics returns the diagnostics recorded so far.
func (c *Context) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Reportf records a diagnostic for the rule currently being dispatched.
func (c *Context) Reportf(v Visit, kind NodeKind, format string, args ...any) {
	d := Diagnostic{
		Rule:    c.rule,
		Kind:    kind,
		DocPath: v.DocPath,
		Message: fmt.Sprintf(format, args...),
	}
	c.diags = append(c.diags, d)
	slog.Error("rule misbehaved",
		"rule", d.Rule,
		"kind", d.Kind.String(),
		"doc_path", d.DocPath,
		"message", d.Message,
	)
}

// MaxVcpu returns the maximum vcpu count of the domain, at least 1.
func (c *Context) MaxVcpu() int {
	return c.maxVcpu.get(func() int {
		return 1 + c.src.Exp(1, rnd.NoBound)
	})
}

// MaxIOThread returns the iothread bound used for iothread scheduling.
func (c *Context) MaxIOThread() int {
	return c.maxIOThread.get(func() int {
		return 1 + c.src.Exp(1, rnd.NoBound)
	})
}

// InitIOThreads returns the iothread count, drawing it on first use.
func (c *Context) InitIOThreads() int {
	return c.ioThreads.get(func() int {
		return c.src.Int(1, 1000)
	})
}

// IOThreads returns the iothread count, if it has been drawn.
func (c *Context) IOThreads() (int, bool) {
	return c.ioThreads.v, c.ioThreads.ok
}

// MaxMemory returns the maximum memory of the domain.
func (c *Context) MaxMemory() Quantity {
	return c.maxMem.get(func() Quantity {
		return drawQuantity(c.src, MaxMemoryBound)
	})
}

// ActualMemory returns the boot memory, bounded by MaxMemory.
func (c *Context) ActualMemory() Quantity {
	return c.actMem.get(func() Quantity {
		return drawQuantity(c.src, c.MaxMemory().Bytes)
	})
}

// CurrentMemory returns the current memory, bounded by ActualMemory.
func (c *Context) CurrentMemory() Quantity {
	return c.curMem.get(func() Quantity {
		return drawQuantity(c.src, c.ActualMemory().Bytes)
	})
}

// NumaMemoryLeft returns the memory not yet assigned to NUMA cells.
func (c *Context) NumaMemoryLeft() int64 {
	return c.leftNumaMem.get(func() int64 {
		return c.MaxMemory().Bytes
	})
}

// CellMemory returns the memory of a NUMA cell, drawing it from the
// remaining budget on first use for that cell. It reports false when the
// budget is exhausted.
func (c *Context) CellMemory(cell *etree.Element) (Quantity, bool) {
	if q, ok := c.cellMem[cell]; ok {
		return q, true
	}
	left := c.NumaMemoryLeft()
	if left < 2 {
		return Quantity{}, false
	}
	q := drawQuantity(c.src, left)
	c.leftNumaMem.v = left - q.Bytes
	c.cellMem[cell] = q
	return q, true
}

// NextNumaID returns the next NUMA cell id, starting at 0.
func (c *Context) NextNumaID() int {
	id := c.numaCells
	c.numaMaxID = id
	c.numaCells++
	return id
}

// NumaMaxID returns the largest NUMA cell id handed out so far.
func (c *Context) NumaMaxID() (int, bool) {
	return c.numaMaxID, c.numaCells > 0
}

// DomainUUID returns the domain uuid, shared by every element that
// repeats it.
func (c *Context) DomainUUID() string {
	return c.domainUUID.get(func() string {
		id, err := uuid.NewRandomFromReader(c.src)
		if err != nil {
			// Source.Read never fails.
			panic(fmt.Sprintf("engine: uuid from random source: %v", err))
		}
		return id.String()
	})
}

func (c *Context) usedSet(f Fact) *roaring.Bitmap {
	b, ok := c.used[f]
	if !ok {
		b = roaring.New()
		c.used[f] = b
	}
	return b
}

// UsedCount returns how many ids of the category have been handed out.
func (c *Context) UsedCount(f Fact) int {
	return int(c.usedSet(f).GetCardinality())
}

// UsedIDs returns a copy of the ids of the category handed out so far.
func (c *Context) UsedIDs(f Fact) *roaring.Bitmap {
	return c.usedSet(f).Clone()
}

// Claim records id as used in the category. It reports false if the id was
// already used.
func (c *Context) Claim(f Fact, id uint32) bool {
	return c.usedSet(f).CheckedAdd(id)
}

// FreeIDs returns the ids of [lo, hi] not yet used in the category, in
// ascending order.
func (c *Context) FreeIDs(f Fact, lo, hi int) []uint32 {
	if hi < lo || hi < 0 {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	free := roaring.New()
	free.AddRange(uint64(lo), uint64(hi)+1)
	if f != "" {
		free.AndNot(c.usedSet(f))
	}
	return free.ToArray()
}

// AllocateIDs draws a non-empty random subset of the free ids of [lo, hi]
// and records it as used. An empty category allocates without recording.
// It reports false when no id is free.
func (c *Context) AllocateIDs(f Fact, lo, hi int) (*roaring.Bitmap, bool) {
	free := c.FreeIDs(f, lo, hi)
	if len(free) == 0 {
		return nil, false
	}
	ids := roaring.BitmapOf(c.src.Subset(free)...)
	if f != "" {
		c.usedSet(f).Or(ids)
	}
	return ids, true
}
