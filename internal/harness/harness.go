package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/domfuzz/internal/corpus"
	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/store"
	"github.com/roach88/domfuzz/internal/xmlgen"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the grammar and build the default rule registry
// 2. Verify that no rule reads a fact before its writer
// 3. Generate the documents
// 4. Store them as a corpus run
// 5. Evaluate the assertions
//
// Errors are returned for setup failures; failed assertions are reported in
// the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode, err := engine.ParseMode(scenario.Mode)
	if err != nil {
		return nil, err
	}

	g, err := grammar.LoadFile(scenario.Grammar)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar: %w", err)
	}

	reg, err := engine.Build(engine.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	if err := engine.VerifyOrder(reg, g, mode); err != nil {
		return nil, fmt.Errorf("rule order: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	gen := xmlgen.New(g, reg, mode, xmlgen.Options{
		MaxRepeat: scenario.MaxRepeat,
		MaxDepth:  scenario.MaxDepth,
		MaxNodes:  scenario.MaxNodes,
	})
	results, err := gen.GenerateBatch(ctx, scenario.Seed, scenario.Count, 1)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	run := corpus.NewRun(scenario.Grammar, mode, scenario.Seed, scenario.Count)
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	if _, err := st.WriteRecords(ctx, corpus.FromResults(run, results, corpus.NewCounter(0))); err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = run.ID
	if result.Records, err = st.ListRecords(ctx, run.ID); err != nil {
		return nil, err
	}
	if result.Documents, err = st.Count(ctx); err != nil {
		return nil, err
	}

	docs := make([]Document, len(results))
	for i, res := range results {
		docs[i] = Document{Seed: res.Seed, Root: res.Root()}
		result.Diagnostics += len(res.Diagnostics)
		if res.Truncated {
			result.Truncated++
		}
	}

	for _, msg := range EvaluateAssertions(docs, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Info("scenario finished",
		"scenario", scenario.Name,
		"documents", result.Documents,
		"diagnostics", result.Diagnostics,
		"pass", result.Pass,
	)
	return result, nil
}
