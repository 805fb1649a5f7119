package engine

import "fmt"

// Mode is the validity intent of a generation run. Modes are ordered: every
// rule active in a mode is also active in every higher mode.
type Mode int

const (
	// ModeRaw generates grammar shape only; only ungated rules run.
	ModeRaw Mode = iota

	// ModeDefinable generates documents the manager accepts for definition.
	ModeDefinable

	// ModeStartable generates documents that can also be started.
	ModeStartable
)

var modeNames = [...]string{
	ModeRaw:       "raw",
	ModeDefinable: "definable",
	ModeStartable: "startable",
}

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Allows reports whether a rule requiring req runs under m.
func (m Mode) Allows(req Mode) bool {
	return m >= req
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return ModeRaw, fmt.Errorf("unknown mode %q (want raw, definable or startable)", s)
}
