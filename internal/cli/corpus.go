package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/domfuzz/internal/corpus"
	"github.com/roach88/domfuzz/internal/store"
)

// CorpusOptions holds flags for the corpus command.
type CorpusOptions struct {
	*RootOptions
	Database string
	RunID    string // list the records of this run
	Document string // print this document
}

// RunSummary describes a stored run.
type RunSummary struct {
	corpus.Run
	Stored   int  `json:"stored"`
	Complete bool `json:"complete"`
}

// CorpusResult holds the corpus listing.
type CorpusResult struct {
	Documents int             `json:"documents"`
	Runs      []RunSummary    `json:"runs,omitempty"`
	Records   []corpus.Record `json:"records,omitempty"`
	Document  *corpus.Record  `json:"document,omitempty"`
}

// NewCorpusCommand creates the corpus command.
func NewCorpusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CorpusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect a stored corpus",
		Long: `Inspect a SQLite corpus written by generate --db.

Without further flags the runs are listed with how many of their
documents are stored. --run lists the records of one run in sequence
order; --show prints one document by id.

Examples:
  domfuzz corpus --db ./corpus.db
  domfuzz corpus --db ./corpus.db --run 3f82...
  domfuzz corpus --db ./corpus.db --show f6a3... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "list the records of a run")
	cmd.Flags().StringVar(&opts.Document, "show", "", "print a document by id")

	return cmd
}

func runCorpus(opts *CorpusOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	ctx := cmd.Context()

	// Opening creates missing files; an inspection command must not.
	if _, err := os.Stat(opts.Database); err != nil {
		return out.Error(ExitCommandError, ErrCodeStore, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var result CorpusResult
	if result.Documents, err = st.Count(ctx); err != nil {
		return out.Error(ExitCommandError, ErrCodeStore, "failed to count documents", err)
	}

	switch {
	case opts.Document != "":
		rec, err := st.ReadRecord(ctx, opts.Document)
		if errors.Is(err, sql.ErrNoRows) {
			return out.Error(ExitFailure, ErrCodeStore, fmt.Sprintf("document %s not found", opts.Document), nil)
		}
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to read document", err)
		}
		result.Document = &rec
		return out.Success(result, func(w io.Writer) { fmt.Fprint(w, rec.Body) })

	case opts.RunID != "":
		state, err := st.GetRunState(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return out.Error(ExitFailure, ErrCodeStore, fmt.Sprintf("run %s not found", opts.RunID), nil)
		}
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		result.Records = state.Records
		return out.Success(result, func(w io.Writer) { printRecords(w, state) })
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	for _, run := range runs {
		state, err := st.GetRunState(ctx, run.ID)
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		result.Runs = append(result.Runs, RunSummary{
			Run:      run,
			Stored:   len(state.Records),
			Complete: state.IsComplete(),
		})
	}
	return out.Success(result, func(w io.Writer) { printRuns(w, result) })
}

func printRuns(w io.Writer, result CorpusResult) {
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	for _, r := range result.Runs {
		status := "complete"
		if !r.Complete {
			status = "incomplete"
		}
		fmt.Fprintf(w, "%s  %-9s seed=%d count=%d stored=%d %s\n",
			r.ID, r.Mode, r.Seed, r.Count, r.Stored, status)
		fmt.Fprintf(w, "  grammar: %s\n", r.Grammar)
	}
	fmt.Fprintf(w, "%d runs, %d distinct documents\n", len(result.Runs), result.Documents)
}

func printRecords(w io.Writer, state store.RunState) {
	for _, rec := range state.Records {
		fmt.Fprintf(w, "%6d  seed=%-20d %s diagnostics=%d", rec.Seq, rec.Seed, rec.ID, len(rec.Diagnostics))
		if rec.Truncated {
			fmt.Fprint(w, " truncated")
		}
		fmt.Fprintln(w)
	}
	if !state.IsComplete() {
		fmt.Fprintf(w, "%d of %d seeds missing\n", len(state.Missing), state.Run.Count)
	}
}
