package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/domfuzz/internal/engine"
)

// RuleInfo describes one rule of the registry.
type RuleInfo struct {
	Kind     string   `json:"kind"`
	Requires string   `json:"requires"`
	Name     string   `json:"name"`
	Doc      string   `json:"doc_pattern,omitempty"`
	Struct   string   `json:"struct_pattern,omitempty"`
	Reads    []string `json:"reads,omitempty"`
	Writes   []string `json:"writes,omitempty"`
}

// RulesResult holds the rule listing.
type RulesResult struct {
	Rules    []RuleInfo `json:"rules"`
	Warnings []string   `json:"warnings"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the generation rules",
		Long: `List the built-in generation rules with their patterns, the lowest
mode they run in and the facts they read and write.

Rules of one kind sharing identical patterns are reported as warnings:
both run and the later one decides.

Examples:
  domfuzz rules
  domfuzz rules --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}

	return cmd
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout())

	rules := engine.DefaultRules()
	reg, err := engine.Build(rules)
	if err != nil {
		return out.Error(ExitCommandError, ErrCodeRules, "invalid rule table", err)
	}

	result := RulesResult{Rules: make([]RuleInfo, 0, len(rules)), Warnings: []string{}}
	for _, r := range reg.Rules() {
		result.Rules = append(result.Rules, RuleInfo{
			Kind:     r.Kind.String(),
			Requires: r.Requires.String(),
			Name:     r.Name,
			Doc:      r.DocPattern,
			Struct:   r.StructPattern,
			Reads:    factNames(r.Reads),
			Writes:   factNames(r.Writes),
		})
	}
	for _, w := range engine.AnalyzeOverlaps(rules) {
		result.Warnings = append(result.Warnings, w.String())
	}

	return out.Success(result, func(w io.Writer) {
		_ = reg.Describe(w)
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		fmt.Fprintf(w, "%d rules, %d warnings\n", len(result.Rules), len(result.Warnings))
	})
}

func factNames(facts []engine.Fact) []string {
	if len(facts) == 0 {
		return nil
	}
	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = string(f)
	}
	return names
}
