// Package engine implements the semantic override engine of the domain
// generator.
//
// The grammar alone describes the legal shape of a domain; it cannot express
// rules spanning several nodes, such as memory budgets shared by NUMA cells,
// cpu ids that must not be pinned twice, or attributes that only make sense
// next to a sibling's value. The engine adds those rules on top of a generic
// grammar walker.
//
// ARCHITECTURE:
//
// Registry:
// Rules are compiled once by Build into an immutable Registry indexed by the
// seven node kinds the walker asks about (element, attribute, data,
// optional, zeroOrMore, oneOrMore, choice). A registry may be shared by any
// number of concurrent generations.
//
// Dispatch:
// For every visited node the walker calls Registry.Visit with the node kind
// and a Visit value (document path, structural path, grammar node, ancestor
// stack, generation context). Every rule whose patterns match runs in
// declaration order; the last one decides. The result is an Outcome: Defer,
// leaving the decision to the grammar default, or a Value whose shape
// depends on the kind.
//
// Context:
// A Context holds the facts of one document generation. Facts are computed
// on first use and never redrawn, so a fact's first reader is its writer.
// The few facts that are read without being computed are declared by the
// rules that read them and checked by Build and VerifyOrder.
//
// Modes:
// Rules require a Mode. ModeRaw rules always run, ModeDefinable rules run in
// definable and startable generations, ModeStartable rules only in startable
// ones. A rule gated off by the mode yields Defer.
package engine
