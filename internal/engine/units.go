package engine

import (
	"strings"

	"github.com/roach88/domfuzz/internal/rnd"
)

// MaxMemoryBound is the upper bound, in bytes, of the maximum memory draw.
const MaxMemoryBound int64 = 1 << 34

// Unit is a memory unit and its size in bytes.
type Unit struct {
	Name       string
	Multiplier int64
}

// Units is the unit table, in the order units are drawn from.
var Units = []Unit{
	{"b", 1},
	{"byte", 1},
	{"k", 1000},
	{"m", 1000 * 1000},
	{"g", 1000 * 1000 * 1000},
	{"t", 1000 * 1000 * 1000 * 1000},
	{"p", 1000 * 1000 * 1000 * 1000 * 1000},
	{"e", 1000 * 1000 * 1000 * 1000 * 1000 * 1000},
	{"kb", 1000},
	{"mb", 1000 * 1000},
	{"gb", 1000 * 1000 * 1000},
	{"tb", 1000 * 1000 * 1000 * 1000},
	{"pb", 1000 * 1000 * 1000 * 1000 * 1000},
	{"eb", 1000 * 1000 * 1000 * 1000 * 1000 * 1000},
	{"kib", 1 << 10},
	{"mib", 1 << 20},
	{"gib", 1 << 30},
	{"tib", 1 << 40},
	{"pib", 1 << 50},
	{"eib", 1 << 60},
}

// LookupUnit returns the unit with the given name, ignoring case.
func LookupUnit(name string) (Unit, bool) {
	name = strings.ToLower(name)
	for _, u := range Units {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// Quantity is a unit-scaled memory amount.
type Quantity struct {
	// Drawn is the raw magnitude in bytes before truncation.
	Drawn int64

	// Bytes is Drawn truncated to a multiple of the unit.
	Bytes int64

	Unit Unit
}

// Value returns the amount expressed in Unit.
func (q Quantity) Value() int64 {
	return q.Bytes / q.Unit.Multiplier
}

// drawQuantity draws a magnitude uniformly from [2, upper] and picks a unit
// strictly finer than it. The lower bound of 2 guarantees that the byte unit
// always qualifies.
func drawQuantity(src *rnd.Source, upper int64) Quantity {
	drawn := src.Int64(2, upper)
	return scaleQuantity(src, drawn)
}

func scaleQuantity(src *rnd.Source, drawn int64) Quantity {
	unit := rnd.Pick(src, Units)
	for unit.Multiplier >= drawn {
		unit = rnd.Pick(src, Units)
	}
	return Quantity{
		Drawn: drawn,
		Bytes: drawn / unit.Multiplier * unit.Multiplier,
		Unit:  unit,
	}
}
