// Package xmlgen generates XML documents from a RELAX NG grammar, asking a
// rule registry how to decide each node on the way.
//
// The walker visits the grammar in pre-order from its start pattern. For
// every element, attribute, data, optional, repetition and choice pattern
// it dispatches a visit to the registry; when the registry defers, the
// grammar default applies:
//
//	optional    present with probability 1/2
//	zeroOrMore  exponential count, capped by MaxRepeat
//	oneOrMore   1 + exponential count, capped by MaxRepeat
//	choice      uniform branch
//	data        typed default honoring the pattern's params
//
// Generation is deterministic: a document is a function of the grammar,
// the registry, the mode and the seed.
package xmlgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

// Options bound the size of generated documents.
type Options struct {
	// MaxRepeat caps repetition counts drawn by the grammar default. Counts
	// decided by rules are not capped.
	MaxRepeat int

	// MaxDepth is the deepest element nesting generated.
	MaxDepth int

	// MaxNodes is the largest number of elements and attributes in one
	// document. Zero disables the limit.
	MaxNodes int
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxRepeat: 4,
		MaxDepth:  32,
		MaxNodes:  20000,
	}
}

// Generator produces documents. It holds no per-document state and may be
// used from several goroutines at once.
type Generator struct {
	grammar *grammar.Grammar
	reg     *engine.Registry
	mode    engine.Mode
	opts    Options
}

// New creates a generator. Zero fields of opts take their default values.
func New(g *grammar.Grammar, reg *engine.Registry, mode engine.Mode, opts Options) *Generator {
	def := DefaultOptions()
	if opts.MaxRepeat <= 0 {
		opts.MaxRepeat = def.MaxRepeat
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	return &Generator{grammar: g, reg: reg, mode: mode, opts: opts}
}

// Mode returns the validity mode documents are generated in.
func (g *Generator) Mode() engine.Mode {
	return g.mode
}

// Result is one generated document.
type Result struct {
	Seed     uint64
	Mode     engine.Mode
	Document *etree.Document

	// Diagnostics lists the rules that misbehaved during generation.
	Diagnostics []engine.Diagnostic

	// Truncated is set when a size limit cut the document short.
	Truncated bool

	// Nodes is the number of elements and attributes generated.
	Nodes int
}

// Root returns the root element of the document, or nil.
func (r *Result) Root() *etree.Element {
	return r.Document.Root()
}

// String serializes the document with two-space indentation.
func (r *Result) String() string {
	doc := r.Document.Copy()
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// Generate generates the document for seed.
func (g *Generator) Generate(seed uint64) (*Result, error) {
	src := rnd.New(seed)
	w := &walker{
		gen:   g,
		ctx:   engine.NewContext(g.mode, src),
		src:   src,
		quota: newQuota(g.opts.MaxNodes),
		doc:   etree.NewDocument(),
	}

	res := &Result{Seed: seed, Mode: g.mode, Document: w.doc}

	start := g.grammar.Start()
	if start == nil {
		return nil, fmt.Errorf("generate: grammar has no start pattern")
	}
	err := w.children(start, "", engine.StartPath(), "")
	switch {
	case err == nil:
	case IsLimitError(err):
		slog.Warn("document truncated", "seed", seed, "error", err)
		res.Truncated = true
	default:
		return nil, fmt.Errorf("generate seed %d: %w", seed, err)
	}

	res.Diagnostics = w.ctx.Diagnostics()
	res.Nodes = w.quota.Current()
	slog.Debug("document generated",
		"seed", seed,
		"mode", g.mode.String(),
		"nodes", res.Nodes,
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}

// GenerateBatch generates count documents for seeds seed, seed+1, ... using
// at most jobs goroutines. Results are in seed order. The first error
// cancels the remaining work.
func (g *Generator) GenerateBatch(ctx context.Context, seed uint64, count, jobs int) ([]*Result, error) {
	if count <= 0 {
		return nil, nil
	}
	seeds := make([]uint64, count)
	for i := range seeds {
		seeds[i] = seed + uint64(i)
	}
	return g.GenerateSeeds(ctx, seeds, jobs)
}

// GenerateSeeds generates one document per seed using at most jobs
// goroutines. Results are in the order of seeds.
func (g *Generator) GenerateSeeds(ctx context.Context, seeds []uint64, jobs int) ([]*Result, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = 1
	}

	results := make([]*Result, len(seeds))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, seed := range seeds {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := g.Generate(seed)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
