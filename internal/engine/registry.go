package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Handler decides a visited node. Handlers read and write generation state
// through v.Ctx and return Defer when they have no opinion.
type Handler func(v Visit) Outcome

// Rule binds a handler to the nodes of one kind whose paths match.
type Rule struct {
	Kind NodeKind

	// DocPattern matches the document path; empty matches every path.
	DocPattern string

	// StructPattern matches the structural path; empty matches every path.
	StructPattern string

	// Name identifies the handler in listings and diagnostics.
	Name string

	Handler Handler

	// Requires is the lowest mode the rule runs in. ModeRaw rules always run.
	Requires Mode

	// Reads and Writes declare the facts the handler depends on and
	// produces. A get-or-compute accessor counts as a write.
	Reads  []Fact
	Writes []Fact

	// Effect states what the handler does on every call. VerifyOrder uses
	// it to skip grammar content the walker never reaches.
	Effect Effect
}

// Effect is what a handler does on every call, as far as static analysis
// is concerned.
type Effect int

const (
	// EffectVaries is a handler that may defer.
	EffectVaries Effect = iota

	// EffectOmit is a handler that always omits the node.
	EffectOmit

	// EffectValue is a handler that always emits a value, so the grammar
	// content below the node is never generated.
	EffectValue
)

type compiledRule struct {
	Rule
	doc    *regexp.Regexp
	struc  *regexp.Regexp
	family family
}

func (r *compiledRule) matches(docPath, structPath string) bool {
	if r.doc != nil && !r.doc.MatchString(docPath) {
		return false
	}
	if r.struc != nil && !r.struc.MatchString(structPath) {
		return false
	}
	return true
}

// Registry is an immutable rule table indexed by node kind. It is safe for
// concurrent use by any number of generations.
type Registry struct {
	rules  []Rule
	byKind [numKinds][]*compiledRule
}

// Build compiles rules into a registry, preserving declaration order within
// each kind. It fails when a kind has no rule, a pattern does not compile,
// a rule has no handler, or a rule reads a fact no rule writes. All defects
// are reported together.
func Build(rules []Rule) (*Registry, error) {
	reg := &Registry{rules: make([]Rule, len(rules))}
	copy(reg.rules, rules)

	var errs []error
	written := make(map[Fact]bool)
	for _, r := range rules {
		for _, f := range r.Writes {
			written[f] = true
		}
	}

	for _, r := range reg.rules {
		if !r.Kind.valid() {
			errs = append(errs, &RegistryError{
				Code:    ErrCodeUncoveredKind,
				Message: fmt.Sprintf("rule has unknown kind %s", r.Kind),
				Rule:    r.Name,
			})
			continue
		}
		if r.Handler == nil {
			errs = append(errs, &RegistryError{
				Code:    ErrCodeMissingHandler,
				Message: "rule has no handler",
				Rule:    r.Name,
			})
		}
		cr := &compiledRule{Rule: r, family: families[r.Kind]}
		var err error
		if cr.doc, err = compilePattern(r.DocPattern); err != nil {
			errs = append(errs, &RegistryError{
				Code:    ErrCodeBadPattern,
				Message: fmt.Sprintf("document pattern %q: %v", r.DocPattern, err),
				Rule:    r.Name,
			})
		}
		if cr.struc, err = compilePattern(r.StructPattern); err != nil {
			errs = append(errs, &RegistryError{
				Code:    ErrCodeBadPattern,
				Message: fmt.Sprintf("structural pattern %q: %v", r.StructPattern, err),
				Rule:    r.Name,
			})
		}
		for _, f := range r.Reads {
			if !written[f] {
				errs = append(errs, &RegistryError{
					Code:    ErrCodeUnwrittenFact,
					Message: "fact is read but no rule writes it",
					Rule:    r.Name,
					Fact:    f,
				})
			}
		}
		reg.byKind[r.Kind] = append(reg.byKind[r.Kind], cr)
	}

	for _, k := range Kinds() {
		if len(reg.byKind[k]) == 0 {
			errs = append(errs, &RegistryError{
				Code:    ErrCodeUncoveredKind,
				Message: fmt.Sprintf("no rule registered for %s", k),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	return regexp.Compile("^(?:" + p + ")$")
}

// Visit dispatches a visit of the given kind. Every matching rule runs in
// declaration order and the last match decides: a later match overwrites an
// earlier outcome, including with the Defer of a rule gated off by the mode.
// Outcomes of the wrong shape are reported on the context and become Defer.
//
// Visit panics if kind is not one of the engine's node kinds.
func (r *Registry) Visit(kind NodeKind, v Visit) Outcome {
	if !kind.valid() {
		panic(fmt.Sprintf("engine: visit of unknown node kind %d", int(kind)))
	}

	out := Defer()
	for _, rule := range r.byKind[kind] {
		if !rule.matches(v.DocPath, v.StructPath) {
			continue
		}
		if !v.Mode().Allows(rule.Requires) {
			slog.Debug("rule gated off",
				"rule", rule.Name,
				"requires", rule.Requires.String(),
				"doc_path", v.DocPath,
			)
			out = Defer()
			continue
		}

		out = r.run(rule, v)
	}
	return out
}

func (r *Registry) run(rule *compiledRule, v Visit) Outcome {
	if v.Ctx != nil {
		v.Ctx.rule = rule.Name
		defer func() { v.Ctx.rule = "" }()
	}

	out := rule.Handler(v)
	slog.Debug("rule fired",
		"rule", rule.Name,
		"kind", rule.Kind.String(),
		"doc_path", v.DocPath,
		"struct_path", v.StructPath,
		"outcome", out.String(),
	)

	val, ok := out.Value()
	if !ok {
		return out
	}
	if err := rule.family.check(v, val); err != nil {
		if v.Ctx != nil {
			v.Ctx.Reportf(v, rule.Kind, "%v", err)
		}
		return Defer()
	}
	return out
}

// Rules returns the rules in declaration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Active returns the rules that run under mode, in declaration order.
func (r *Registry) Active(mode Mode) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if mode.Allows(rule.Requires) {
			out = append(out, rule)
		}
	}
	return out
}

// matching returns the rules of kind whose patterns match, including gated
// ones, in declaration order.
func (r *Registry) matching(kind NodeKind, docPath, structPath string) []*compiledRule {
	var out []*compiledRule
	for _, rule := range r.byKind[kind] {
		if rule.matches(docPath, structPath) {
			out = append(out, rule)
		}
	}
	return out
}

// Describe writes one line per rule, grouped by kind in kind order:
//
//	kind requires name doc=<pattern> struct=<pattern> reads=<facts> writes=<facts>
func (r *Registry) Describe(w io.Writer) error {
	for _, k := range Kinds() {
		for _, rule := range r.byKind[k] {
			_, err := fmt.Fprintf(w, "%s %s %s doc=%s struct=%s reads=%s writes=%s\n",
				rule.Kind, rule.Requires, rule.Name,
				orDash(rule.DocPattern), orDash(rule.StructPattern),
				joinFacts(rule.Reads), joinFacts(rule.Writes),
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinFacts(facts []Fact) string {
	if len(facts) == 0 {
		return "-"
	}
	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
