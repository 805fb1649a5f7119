package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/grammar"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Mode string // empty checks every mode
}

// ModeCheck is the verification outcome for one mode.
type ModeCheck struct {
	Mode   string   `json:"mode"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// VerifyResult holds the verification results.
type VerifyResult struct {
	Grammar string      `json:"grammar"`
	Valid   bool        `json:"valid"`
	Modes   []ModeCheck `json:"modes"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <grammar>",
		Short: "Check rule fact order against a grammar",
		Long: `Check that no active rule reads a fact before a rule that writes it
can run, walking the grammar in generation order.

Exit codes:
  0 - Every checked mode is valid
  1 - A rule reads a fact before its writer
  2 - Command error (unreadable grammar, unknown mode)

Examples:
  domfuzz verify domain.rng
  domfuzz verify domain.rng --mode startable --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "check a single mode (raw|definable|startable)")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	modes := []engine.Mode{engine.ModeRaw, engine.ModeDefinable, engine.ModeStartable}
	if opts.Mode != "" {
		m, err := engine.ParseMode(opts.Mode)
		if err != nil {
			return out.Error(ExitCommandError, ErrCodeConfig, "invalid mode", err)
		}
		modes = []engine.Mode{m}
	}

	g, err := grammar.LoadFile(path)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeGrammar, "failed to load grammar", err)
	}
	reg, err := engine.Build(engine.DefaultRules())
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeRules, "invalid rule table", err)
	}

	result := VerifyResult{Grammar: path, Valid: true, Modes: make([]ModeCheck, 0, len(modes))}
	for _, m := range modes {
		check := ModeCheck{Mode: m.String(), Valid: true}
		if err := engine.VerifyOrder(reg, g, m); err != nil {
			check.Valid = false
			result.Valid = false
			check.Errors = splitJoined(err)
		}
		result.Modes = append(result.Modes, check)
	}

	text := func(w io.Writer) {
		for _, c := range result.Modes {
			if c.Valid {
				fmt.Fprintf(w, "✓ %s\n", c.Mode)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", c.Mode)
			for _, e := range c.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	if !result.Valid {
		return out.Failure(ExitFailure, string(engine.ErrCodeReadBeforeWrite), "rule order verification failed", result, text)
	}
	return out.Success(result, text)
}

// splitJoined returns the messages of an errors.Join result, or the single
// message of any other error.
func splitJoined(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var msgs []string
	for _, e := range joined.Unwrap() {
		msgs = append(msgs, splitJoined(e)...)
	}
	return msgs
}
