package engine

import (
	"strconv"
	"strings"

	"github.com/roach88/domfuzz/internal/rnd"
)

// Data handlers return the text of a data pattern, or an id set the walker
// renders as a cpuset expression.

// cpuset allocates ids from the category the enclosing element draws from.
// Categories other than the three scheduling ones draw without recording.
func cpuset(v Visit) Outcome {
	var (
		category Fact
		lo, hi   = 0, v.Ctx.MaxVcpu() - 1
	)
	switch v.DocPath {
	case "/domain/cputune/vcpusched":
		category = FactVcpuSched
	case "/domain/cpu/numa/cell":
		category = FactCellVcpus
	case "/domain/cputune/iothreadsched":
		category = FactIOThreadSched
		lo, hi = 1, v.Ctx.MaxIOThread()
	}
	ids, ok := v.Ctx.AllocateIDs(category, lo, hi)
	if !ok {
		return Defer()
	}
	return IDSet(ids)
}

func maxVcpu(v Visit) Outcome {
	return Text(itoa(v.Ctx.MaxVcpu()))
}

type numberRange struct {
	marker  string
	lo, hi  int
	decOnly bool
}

// addressRanges are matched in order against the structural path.
var addressRanges = []numberRange{
	{marker: "pciDomain", lo: 0, hi: 9999},
	{marker: "pciBus", lo: 0, hi: 99},
	{marker: "pciSlot", lo: 1, hi: 19},
	{marker: "pciFunc", lo: 0, hi: 7},
	{marker: "usbAddr", lo: 0, hi: 999, decOnly: true},
	{marker: "usbClass", lo: 0, hi: 99},
	{marker: "usbId", lo: 0, hi: 9999},
}

// hexdec draws an address component and renders it in decimal or hex.
func hexdec(v Visit) Outcome {
	r := numberRange{lo: 0, hi: 9999}
	for _, ar := range addressRanges {
		if strings.Contains(v.StructPath, ar.marker) {
			r = ar
			break
		}
	}
	n := v.Ctx.Rand().Int(r.lo, r.hi)
	if !r.decOnly && v.Ctx.Rand().Bool() {
		return Text("0x" + strconv.FormatInt(int64(n), 16))
	}
	return Text(itoa(n))
}

func usbPort(v Visit) Outcome {
	parts := make([]string, v.Ctx.Rand().Int(1, 4))
	for i := range parts {
		parts[i] = itoa(v.Ctx.Rand().Int(0, 999))
	}
	return Text(strings.Join(parts, "."))
}

func timeDelta(v Visit) Outcome {
	n := v.Ctx.Rand().Exp(10, rnd.NoBound)
	if v.Ctx.Rand().Bool() {
		n = -n
	}
	return Text(itoa(n))
}

// Memory, iothread and sysinfo handlers decide element content only; data
// inside attributes of the same elements is left to other rules.

func maxIOThread(v Visit) Outcome {
	if v.Attribute != "" {
		return Defer()
	}
	return Text(itoa(v.Ctx.MaxIOThread()))
}

func ioThreads(v Visit) Outcome {
	if v.Attribute != "" {
		return Defer()
	}
	return Text(itoa(v.Ctx.InitIOThreads()))
}

func memoryText(v Visit, q Quantity) Outcome {
	if v.Attribute != "" {
		return Defer()
	}
	if cur := v.Current(); cur != nil {
		cur.CreateAttr("unit", q.Unit.Name)
	}
	return Text(strconv.FormatInt(q.Value(), 10))
}

func maxMemory(v Visit) Outcome {
	return memoryText(v, v.Ctx.MaxMemory())
}

func actualMemory(v Visit) Outcome {
	return memoryText(v, v.Ctx.ActualMemory())
}

func currentMemory(v Visit) Outcome {
	return memoryText(v, v.Ctx.CurrentMemory())
}

func diskTarget(v Visit) Outcome {
	if v.Attribute != "dev" {
		return Defer()
	}
	var pattern string
	switch attr(v.Parent(), "device") {
	case "floppy":
		pattern = `(ioemu:)?fd[a-zA-Z0-9_]+`
	case "lun", "disk":
		pattern = `(ioemu:)?(hd|sd|vd|xvd|ubd)[a-zA-Z0-9_]+`
	default:
		return Defer()
	}
	s, err := v.Ctx.Rand().Regex(pattern, 8)
	if err != nil {
		v.Ctx.Reportf(v, KindData, "%v", err)
		return Defer()
	}
	return Text(s)
}

func sysinfoEntry(v Visit) Outcome {
	if v.Attribute != "" {
		return Defer()
	}
	switch attr(v.Current(), "name") {
	case "date":
		return Text("01/01/1970")
	case "uuid":
		return Text(v.Ctx.DomainUUID())
	}
	return Defer()
}

func emulatorPath(Visit) Outcome {
	return Text("/usr/bin/qemu-kvm")
}

func domainUUID(v Visit) Outcome {
	if v.Attribute != "" {
		return Defer()
	}
	return Text(v.Ctx.DomainUUID())
}
