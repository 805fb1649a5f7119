package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/roach88/domfuzz/internal/config"
	"github.com/roach88/domfuzz/internal/corpus"
	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/store"
	"github.com/roach88/domfuzz/internal/xmlgen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	ConfigPath string
	Config     config.Config
}

// GenerateResult summarizes a generate invocation.
type GenerateResult struct {
	RunID       string `json:"run_id"`
	Grammar     string `json:"grammar"`
	Mode        string `json:"mode"`
	Seed        uint64 `json:"seed"`
	Count       int    `json:"count"`
	Generated   int    `json:"generated"`
	Skipped     int    `json:"skipped"`
	Stored      int    `json:"stored"`
	Diagnostics int    `json:"diagnostics"`
	Truncated   int    `json:"truncated"`
	OutDir      string `json:"out_dir,omitempty"`
	Database    string `json:"database,omitempty"`

	// Records holds the documents when they are neither written to a
	// directory nor stored.
	Records []corpus.Record `json:"records,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts, Config: config.Default()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate domain documents",
		Long: `Generate a batch of documents from a RELAX NG grammar.

Settings come from the defaults, then the --config file (.yaml or .cue),
then the flags given on the command line. Document i of the batch uses
seed+i, so a batch is reproducible from its settings.

With --out each document is written to <out>/domain-<seed>.xml. With --db
the run is recorded in a SQLite corpus; running the same batch again only
generates the documents still missing. Without either, the documents are
printed.

Exit codes:
  0 - Documents generated
  1 - Rule order verification failed
  2 - Command error (bad configuration, grammar or database)

Examples:
  domfuzz generate --grammar domain.rng --count 100 --out ./corpus
  domfuzz generate --config run.yaml --seed 42 --db ./corpus.db
  domfuzz generate --grammar domain.rng --mode raw --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (.yaml, .yml or .cue)")
	f.StringVarP(&opts.Config.Grammar, "grammar", "g", "", "main RELAX NG file")
	f.StringVarP(&opts.Config.Mode, "mode", "m", opts.Config.Mode, "validity mode (raw|definable|startable)")
	f.Uint64VarP(&opts.Config.Seed, "seed", "s", 0, "seed of the first document")
	f.IntVarP(&opts.Config.Count, "count", "n", opts.Config.Count, "number of documents")
	f.IntVarP(&opts.Config.Jobs, "jobs", "j", opts.Config.Jobs, "documents generated concurrently")
	f.IntVar(&opts.Config.MaxRepeat, "max-repeat", opts.Config.MaxRepeat, "largest default repetition count")
	f.IntVar(&opts.Config.MaxDepth, "max-depth", opts.Config.MaxDepth, "deepest element nesting")
	f.IntVar(&opts.Config.MaxNodes, "max-nodes", opts.Config.MaxNodes, "largest document size in nodes (0 for no limit)")
	f.StringVarP(&opts.Config.OutDir, "out", "o", "", "directory to write documents to")
	f.StringVar(&opts.Config.Database, "db", "", "SQLite corpus database")

	return cmd
}

// flagFields maps flag names to the configuration fields they override.
var flagFields = map[string]func(dst *config.Config, src config.Config){
	"grammar":    func(d *config.Config, s config.Config) { d.Grammar = s.Grammar },
	"mode":       func(d *config.Config, s config.Config) { d.Mode = s.Mode },
	"seed":       func(d *config.Config, s config.Config) { d.Seed = s.Seed },
	"count":      func(d *config.Config, s config.Config) { d.Count = s.Count },
	"jobs":       func(d *config.Config, s config.Config) { d.Jobs = s.Jobs },
	"max-repeat": func(d *config.Config, s config.Config) { d.MaxRepeat = s.MaxRepeat },
	"max-depth":  func(d *config.Config, s config.Config) { d.MaxDepth = s.MaxDepth },
	"max-nodes":  func(d *config.Config, s config.Config) { d.MaxNodes = s.MaxNodes },
	"out":        func(d *config.Config, s config.Config) { d.OutDir = s.OutDir },
	"db":         func(d *config.Config, s config.Config) { d.Database = s.Database },
}

// resolveConfig layers the flags set on the command line over the
// configuration file, if any.
func resolveConfig(opts *GenerateOptions, cmd *cobra.Command) (config.Config, error) {
	if opts.ConfigPath == "" {
		return opts.Config, nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	for name, apply := range flagFields {
		if cmd.Flags().Changed(name) {
			apply(&cfg, opts.Config)
		}
	}
	return cfg, nil
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	if err := cfg.Err(); err != nil {
		return out.Error(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	if abs, err := filepath.Abs(cfg.Grammar); err == nil {
		cfg.Grammar = abs
	}
	mode := cfg.ParsedMode()

	g, err := grammar.LoadFile(cfg.Grammar)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeGrammar, "failed to load grammar", err)
	}
	reg, err := buildRegistry(g, mode)
	if err != nil {
		return out.Error(ExitFailure, ErrCodeRules, "rule verification failed", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	run := corpus.NewRun(cfg.Grammar, mode, cfg.Seed, cfg.Count)
	result := GenerateResult{
		RunID:    run.ID,
		Grammar:  cfg.Grammar,
		Mode:     run.Mode,
		Seed:     run.Seed,
		Count:    run.Count,
		OutDir:   cfg.OutDir,
		Database: cfg.Database,
	}

	seeds := make([]uint64, cfg.Count)
	for i := range seeds {
		seeds[i] = cfg.Seed + uint64(i)
	}
	var seq corpus.Sequencer = corpus.NewCounter(0)

	var st *store.Store
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		seeds, seq, err = resumeRun(ctx, st, run, seeds)
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to read run state", err)
		}
		result.Skipped = cfg.Count - len(seeds)
	}

	gen := xmlgen.New(g, reg, mode, cfg.Options())
	results, err := gen.GenerateSeeds(ctx, seeds, cfg.Jobs)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeGenerate, "generation failed", err)
	}

	records := corpus.FromResults(run, results, seq)
	for i, rec := range records {
		slog.Info("document generated",
			"seed", rec.Seed,
			"seq", rec.Seq,
			"id", rec.ID,
			"nodes", results[i].Nodes,
			"diagnostics", len(rec.Diagnostics),
			"truncated", rec.Truncated,
		)
		result.Diagnostics += len(rec.Diagnostics)
		if rec.Truncated {
			result.Truncated++
		}
	}
	result.Generated = len(records)

	if cfg.OutDir != "" {
		if err := writeDocuments(osfs.New(cfg.OutDir), records); err != nil {
			return out.Error(ExitCommandError, ErrCodeGenerate, "failed to write documents", err)
		}
	}
	if st != nil {
		if result.Stored, err = st.WriteRecords(ctx, records); err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to store documents", err)
		}
	}

	if cfg.OutDir == "" && st == nil {
		result.Records = records
		return out.Success(result, func(w io.Writer) {
			for _, rec := range records {
				fmt.Fprint(w, rec.Body)
			}
		})
	}
	return out.Success(result, func(w io.Writer) { printGenerateText(w, result) })
}

// buildRegistry builds the default rules and checks their fact order
// against the grammar.
func buildRegistry(g *grammar.Grammar, mode engine.Mode) (*engine.Registry, error) {
	rules := engine.DefaultRules()
	for _, w := range engine.AnalyzeOverlaps(rules) {
		slog.Warn("overlapping rules", "warning", w.String())
	}
	reg, err := engine.Build(rules)
	if err != nil {
		return nil, err
	}
	if err := engine.VerifyOrder(reg, g, mode); err != nil {
		return nil, err
	}
	return reg, nil
}

// resumeRun records run in st, or returns only the seeds still missing
// when st already holds part of it. Sequence numbers continue after the
// last one in the store.
func resumeRun(ctx context.Context, st *store.Store, run corpus.Run, seeds []uint64) ([]uint64, corpus.Sequencer, error) {
	state, err := st.GetRunState(ctx, run.ID)
	switch {
	case err == nil:
		slog.Info("resuming run", "run", run.ID, "stored", len(state.Records), "missing", len(state.Missing))
		seeds = state.Missing
	case errors.Is(err, sql.ErrNoRows):
		if err := st.WriteRun(ctx, run); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	last, err := st.GetLastSeq(ctx)
	if err != nil {
		return nil, nil, err
	}
	return seeds, corpus.NewCounter(last), nil
}

// documentName is the file name of a generated document.
func documentName(seed uint64) string {
	return fmt.Sprintf("domain-%d.xml", seed)
}

// writeDocuments writes one file per record at the root of fs.
func writeDocuments(fs billy.Filesystem, records []corpus.Record) error {
	for _, rec := range records {
		if err := util.WriteFile(fs, documentName(rec.Seed), []byte(rec.Body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", documentName(rec.Seed), err)
		}
	}
	return nil
}

// signalContext returns the command context, canceled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func printGenerateText(w io.Writer, r GenerateResult) {
	fmt.Fprintf(w, "Run %s (%s mode, seeds %d..%d)\n", r.RunID[:12], r.Mode, r.Seed, r.Seed+uint64(r.Count)-1)
	fmt.Fprintf(w, "  Generated: %d\n", r.Generated)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:   %d (already stored)\n", r.Skipped)
	}
	if r.Database != "" {
		fmt.Fprintf(w, "  Stored:    %d new records in %s\n", r.Stored, r.Database)
	}
	if r.OutDir != "" {
		fmt.Fprintf(w, "  Written:   %s\n", r.OutDir)
	}
	if r.Diagnostics > 0 {
		fmt.Fprintf(w, "  Diagnostics: %d\n", r.Diagnostics)
	}
	if r.Truncated > 0 {
		fmt.Fprintf(w, "  Truncated: %d\n", r.Truncated)
	}
}
