package engine

import (
	"strings"

	"github.com/beevik/etree"
)

// Element handlers decide whether an element is materialized. They only
// ever omit; Defer keeps the element.

func omitAlways(Visit) Outcome {
	return Omit()
}

func onlyWithCPUModel(v Visit) Outcome {
	model := find(v.Root(), "./cpu/model")
	if model != nil && strings.TrimSpace(model.Text()) != "" {
		return Defer()
	}
	return Omit()
}

func omitIfOSBoot(v Visit) Outcome {
	if find(v.Root(), "./os/boot") == nil {
		return Defer()
	}
	return Omit()
}

// onlyWithStrictPlacement keeps memnode when the domain memory policy is
// strict and the placement is not automatic.
func onlyWithStrictPlacement(v Visit) Outcome {
	mem := find(v.Root(), "./numatune/memory")
	if mem != nil && attr(mem, "mode") == "strict" && attr(mem, "placement") != "auto" {
		return Defer()
	}
	return Omit()
}

func vcpuschedIfVcpuLeft(v Visit) Outcome {
	if v.Ctx.UsedCount(FactVcpuSched) < v.Ctx.MaxVcpu() {
		return Defer()
	}
	return Omit()
}

func cellIfResourcesLeft(v Visit) Outcome {
	if v.Ctx.UsedCount(FactCellVcpus) < v.Ctx.MaxVcpu() && v.Ctx.NumaMemoryLeft() >= 2 {
		return Defer()
	}
	return Omit()
}

func iothreadschedIfIOThreadLeft(v Visit) Outcome {
	if v.Ctx.UsedCount(FactIOThreadSched) < v.Ctx.MaxIOThread() {
		return Defer()
	}
	return Omit()
}

func cipherUnlessBoth(v Visit) Outcome {
	cur := v.Current()
	if find(cur, "./cipher[@name='aes']") != nil && find(cur, "./cipher[@name='dea']") != nil {
		return Omit()
	}
	return Defer()
}

var seclabelModels = []string{"none", "dac"}

// seclabelModelsIn returns the models of the seclabel children of el.
func seclabelModelsIn(el *etree.Element) []string {
	var out []string
	for _, label := range findAll(el, "./seclabel") {
		if m := attr(label, "model"); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func seclabelIfModelLeft(v Visit) Outcome {
	if len(remaining(seclabelModels, seclabelModelsIn(v.Current()))) == 0 {
		return Omit()
	}
	return Defer()
}
