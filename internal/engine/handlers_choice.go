package engine

import (
	"strings"

	"github.com/roach88/domfuzz/internal/grammar"
	"github.com/roach88/domfuzz/internal/rnd"
)

// Choice handlers build the set of admissible branches of a choice and pick
// one uniformly. An empty set defers to the walker.

func usbAddress(v Visit) Outcome {
	return pick(v, typedBranches(v.Node, "usb"))
}

func inputAddress(v Visit) Outcome {
	if attr(v.Parent(), "bus") != "usb" {
		return Defer()
	}
	return pick(v, typedBranches(v.Node, "usb"))
}

// domainSeclabel excludes the "none" label type once devices carry their own
// seclabels.
func domainSeclabel(v Visit) Outcome {
	if len(findAll(v.Root(), "./devices//seclabel")) == 0 {
		return Defer()
	}
	var out []*grammar.Node
	for _, c := range v.Node.Children {
		if typ := c.Find(".//attribute[@name='type']/value"); typ != nil {
			if typ.Text == "none" {
				continue
			}
		} else if c.Kind == grammar.KindValue && c.Text == "no" {
			continue
		}
		out = append(out, c)
	}
	return pick(v, out)
}

func pciAddress(v Visit) Outcome {
	if v.Node.Find("./group/attribute/value") == nil {
		return Defer()
	}
	return pick(v, typedBranches(v.Node, "pci"))
}

// controllerModel settles the root pci controller: it drops any address,
// forces index 0 and restricts the model to the root the other devices
// expect.
func controllerModel(v Visit) Outcome {
	first := v.Node.Find("./value")
	if first == nil || first.Text != "pci-root" {
		return Defer()
	}

	ctl := v.Current()
	if addr := find(ctl, "./address"); addr != nil {
		ctl.RemoveChild(addr)
	}
	if ctl != nil {
		ctl.CreateAttr("index", "0")
	}

	var expect string
	if find(v.Root(), "./devices//address[@type='pci']") != nil {
		expect = "pci-root"
	}
	if find(v.Root(), "./devices/controller[@model='dmi-to-pci-bridge']") != nil {
		expect = "pcie-root"
	}
	return pick(v, valueBranches(v.Node, func(text string) bool {
		return expect == "" || text == expect
	}))
}

func serialAddress(v Visit) Outcome {
	if v.Node.Find("./group/attribute/value") == nil {
		return Defer()
	}
	if find(v.Parent(), "./target[@type='usb-serial']") == nil {
		return Defer()
	}
	return pick(v, typedBranches(v.Node, "usb"))
}

func diskAddress(v Visit) Outcome {
	if v.Node.Find("./group/attribute/value") == nil {
		return Defer()
	}
	if find(v.Parent(), "./target[@bus='virtio']") == nil {
		return Defer()
	}
	return pick(v, typedBranches(v.Node, "pci"))
}

func hostdevAddress(v Visit) Outcome {
	if v.Node.Find("./group/attribute/value") == nil {
		return Defer()
	}
	if attr(v.Parent(), "type") != "pci" {
		return Defer()
	}
	return pick(v, typedBranches(v.Node, "pci"))
}

// charTarget selects the target type group matching the character device.
func charTarget(v Visit) Outcome {
	if v.Node.Find("./optional/ref[@name='qemucdevConsoleTgtType']") == nil {
		return Defer()
	}
	var branch *grammar.Node
	switch tag(v.Parent()) {
	case "serial":
		branch = v.Node.Find("./optional/ref[@name='qemucdevSerialTgtType']/..")
	case "console":
		branch = v.Node.Find("./optional/ref[@name='qemucdevConsoleTgtType']/..")
	}
	if branch == nil {
		return Defer()
	}
	return pick(v, []*grammar.Node{branch})
}

func channelTarget(v Visit) Outcome {
	virtio := v.Node.Find("./ref[@name='virtioTarget']")
	if virtio == nil || attr(v.Current(), "type") != "spicevmc" {
		return Defer()
	}
	return pick(v, []*grammar.Node{virtio})
}

// hostdevMode keeps hostdevs in subsystem mode for qemu domains.
func hostdevMode(v Visit) Outcome {
	if !oneOf(attr(v.Root(), "type"), "qemu", "kvm") {
		return Defer()
	}
	if v.Node.Find("./group/ref[@name='hostdevcaps']") == nil {
		return Defer()
	}
	var out []*grammar.Node
	for _, c := range v.Node.Children {
		if ref := c.Find("./ref"); ref != nil && ref.Name != "hostdevcaps" {
			out = append(out, c)
		}
	}
	return pick(v, out)
}

// listenType matches a single listen element to the graphics listen address.
func listenType(v Visit) Outcome {
	if v.Node.Find("./group/attribute[@name='type']/value") == nil {
		return Defer()
	}
	graphics := v.Parent()
	if attr(graphics, "listen") == "" || len(findAll(graphics, "./listen")) > 1 {
		return Defer()
	}
	var out []*grammar.Node
	for _, c := range v.Node.Children {
		if typ := c.Find("./attribute[@name='type']/value"); typ != nil && typ.Text == "address" {
			out = append(out, c)
		}
	}
	return pick(v, out)
}

// charType excludes spicevmc from the full list of character device types.
func charType(v Visit) Outcome {
	if len(v.Node.FindAll("./value")) < 10 {
		return Defer()
	}
	return pick(v, valueBranches(v.Node, func(text string) bool {
		return text != "spicevmc"
	}))
}

func inputBus(v Visit) Outcome {
	first := v.Node.Find("./value")
	if first == nil || first.Text != "ps2" {
		return Defer()
	}
	if attr(v.Current(), "type") != "tablet" {
		return Defer()
	}
	return pick(v, valueBranches(v.Node, func(text string) bool {
		return text != "ps2"
	}))
}

func diskStartupPolicy(v Visit) Outcome {
	if len(valueBranches(v.Node, func(text string) bool { return text == "requisite" })) == 0 {
		return Defer()
	}
	if oneOf(attr(v.Parent(), "device"), "floppy", "cdrom") {
		return Defer()
	}
	return pick(v, valueBranches(v.Node, func(text string) bool {
		return text != "requisite"
	}))
}

// addressFamily picks the address definition matching the route family,
// falling back to the syntax of the route address.
func addressFamily(v Visit) Outcome {
	route := v.Current()
	family := attr(route, "family")
	if family != "ipv4" && family != "ipv6" {
		switch addr := attr(route, "address"); {
		case addr == "":
			family = rnd.Pick(v.Ctx.Rand(), []string{"ipv4", "ipv6"})
		case strings.Contains(addr, ":"):
			family = "ipv6"
		default:
			family = "ipv4"
		}
	}
	ref := v.Node.Find("./ref[@name='" + family + "Addr']")
	if ref == nil {
		return Defer()
	}
	return pick(v, []*grammar.Node{ref})
}

func cipherName(v Visit) Outcome {
	var existing []string
	for _, c := range findAll(v.Parent(), "./cipher") {
		if name := attr(c, "name"); name != "" {
			existing = append(existing, name)
		}
	}
	return pick(v, valueBranches(v.Node, func(text string) bool {
		return !oneOf(text, existing...)
	}))
}
