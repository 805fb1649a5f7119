package engine

import "github.com/roach88/domfuzz/internal/rnd"

// Optional, zeroOrMore and oneOrMore handlers. Optional handlers return
// Presence; repetition handlers return the number of times the pattern's
// content is generated.

// qemuCommandline leaves out the qemu command line block of the domain and
// makes sure the domain has a pci controller instead.
func qemuCommandline(v Visit) Outcome {
	if v.Node.Find("./ref[@name='qemucmdline']") == nil {
		return Defer()
	}

	devices := find(v.Root(), "./devices")
	if devices == nil || find(devices, "./controller[@type='pci']") != nil || v.Expander == nil {
		return Omit()
	}
	ctl, err := v.Expander.ExpandDefine("pciController")
	if err != nil {
		v.Ctx.Reportf(v, KindOptional, "expand pci controller: %v", err)
		return Omit()
	}
	devices.AddChild(ctl)
	return Omit()
}

func vcpupinCount(v Visit) Outcome {
	if v.Node.Find("./element[@name='vcpupin']") == nil {
		return Defer()
	}
	return Count(v.Ctx.Rand().Int(0, v.Ctx.MaxVcpu()))
}

// idmapCount generates exactly one mapping per id kind.
func idmapCount(Visit) Outcome {
	return Count(1)
}

var sourcedCharTypes = []string{"dev", "file", "unix", "pipe", "udp", "tcp", "spiceport"}

func charSourceCount(v Visit) Outcome {
	if !oneOf(attr(v.Current(), "type"), sourcedCharTypes...) {
		return Defer()
	}
	return Count(v.Ctx.Rand().Exp(1, rnd.NoBound))
}

func numaCellCount(v Visit) Outcome {
	return Count(v.Ctx.Rand().Int(1, v.Ctx.MaxVcpu()))
}
