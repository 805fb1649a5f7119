package engine

import (
	"encoding/binary"
	"net/netip"
	"strconv"
	"strings"

	"github.com/roach88/domfuzz/internal/rnd"
)

// Attribute handlers return the attribute value, Omit to leave the
// attribute out, or Defer.

func domainType(v Visit) Outcome {
	return Text(rnd.Pick(v.Ctx.Rand(), []string{"qemu", "kvm"}))
}

func currentVcpu(v Visit) Outcome {
	return Text(itoa(v.Ctx.Rand().Int(1, v.Ctx.MaxVcpu())))
}

func vcpupinCPU(v Visit) Outcome {
	free := v.Ctx.FreeIDs(FactPinnedCPUs, 0, v.Ctx.MaxVcpu()-1)
	if len(free) == 0 {
		v.Ctx.Reportf(v, KindAttribute, "every vcpu is already pinned")
		return Defer()
	}
	id := rnd.Pick(v.Ctx.Rand(), free)
	v.Ctx.Claim(FactPinnedCPUs, id)
	return Text(strconv.FormatUint(uint64(id), 10))
}

func hugepageNodeset(v Visit) Outcome {
	for {
		id := v.Ctx.Rand().Exp(1, rnd.NoBound)
		if v.Ctx.Claim(FactHugeCPUs, uint32(id)) {
			return Text(itoa(id))
		}
	}
}

func hugepageSize(v Visit) Outcome {
	return Text(itoa(v.Ctx.Rand().Exp(0.1, rnd.NoBound) + 1))
}

func vgamem(v Visit) Outcome {
	return Text(itoa(1 << (v.Ctx.Rand().Exp(1, 20) + 10)))
}

func diskRemovable(v Visit) Outcome {
	if attr(v.Current(), "bus") == "usb" {
		return Defer()
	}
	return Omit()
}

func diskTray(v Visit) Outcome {
	if oneOf(attr(v.Parent(), "device"), "floppy", "cdrom") {
		return Defer()
	}
	return Omit()
}

func diskBus(v Visit) Outcome {
	disk := v.Parent()
	if find(disk, "./driver[@iothread]") != nil {
		return Text("virtio")
	}
	if attr(disk, "device") == "floppy" {
		return Text("fdc")
	}
	return Defer()
}

func numaCellID(v Visit) Outcome {
	return Text(itoa(v.Ctx.NextNumaID()))
}

func cellMemory(v Visit) Outcome {
	cell := v.Current()
	q, ok := v.Ctx.CellMemory(cell)
	if !ok {
		v.Ctx.Reportf(v, KindAttribute, "numa memory budget exhausted")
		return Defer()
	}
	cell.CreateAttr("unit", q.Unit.Name)
	return Text(strconv.FormatInt(q.Value(), 10))
}

func cellMemoryUnit(v Visit) Outcome {
	q, ok := v.Ctx.CellMemory(v.Current())
	if !ok {
		v.Ctx.Reportf(v, KindAttribute, "numa memory budget exhausted")
		return Defer()
	}
	return Text(q.Unit.Name)
}

// inboundFloor keeps the inbound floor of network interfaces only.
func inboundFloor(v Visit) Outcome {
	if attr(v.Ancestor(2), "type") == "network" {
		return Defer()
	}
	return Omit()
}

func maxMemoryUnit(v Visit) Outcome {
	return Text(v.Ctx.MaxMemory().Unit.Name)
}

func actualMemoryUnit(v Visit) Outcome {
	return Text(v.Ctx.ActualMemory().Unit.Name)
}

func currentMemoryUnit(v Visit) Outcome {
	return Text(v.Ctx.CurrentMemory().Unit.Name)
}

func numatuneCellID(v Visit) Outcome {
	maxID, ok := v.Ctx.NumaMaxID()
	if !ok {
		v.Ctx.Reportf(v, KindAttribute, "fact %s read before any numa cell", FactNumaMaxID)
		return Defer()
	}
	return Text(itoa(v.Ctx.Rand().Int(0, maxID)))
}

func diskVirtioOption(v Visit) Outcome {
	if attr(v.Parent(), "device") != "floppy" {
		return Defer()
	}
	return Omit()
}

func iothreadpinIOThread(v Visit) Outcome {
	n, ok := v.Ctx.IOThreads()
	if !ok {
		v.Ctx.Reportf(v, KindAttribute, "fact %s read before it was written", FactIOThreads)
		return Defer()
	}
	return Text(itoa(v.Ctx.Rand().Int(1, n)))
}

// iothreadID hands out distinct ids while any is left, then repeats.
func iothreadID(v Visit) Outcome {
	n, ok := v.Ctx.IOThreads()
	if !ok {
		v.Ctx.Reportf(v, KindAttribute, "fact %s read before it was written", FactIOThreads)
		return Defer()
	}
	var id uint32
	if free := v.Ctx.FreeIDs(FactIOThreadIDs, 1, n); len(free) > 0 {
		id = rnd.Pick(v.Ctx.Rand(), free)
	} else {
		id = uint32(v.Ctx.Rand().Int(1, n))
	}
	v.Ctx.Claim(FactIOThreadIDs, id)
	return Text(strconv.FormatUint(uint64(id), 10))
}

func spinlockRetries(v Visit) Outcome {
	return Text(itoa(v.Ctx.Rand().Int(4095, 100000000)))
}

func idmapStart(Visit) Outcome {
	return Text("0")
}

func sourceMode(v Visit) Outcome {
	if !oneOf(attr(v.Parent(), "type"), "udp", "tcp") {
		return Defer()
	}
	switch v.Ctx.Rand().Int(0, 2) {
	case 0:
		return Text("connect")
	case 1:
		return Text("bind")
	}
	return Omit()
}

func vlanNativeMode(v Visit) Outcome {
	if find(v.Parent(), "./tag[@nativeMode]") != nil {
		return Omit()
	}
	return Defer()
}

func hostdevStartupPolicy(v Visit) Outcome {
	if attr(v.Parent(), "type") == "usb" {
		return Defer()
	}
	return Omit()
}

func sourceAddressDevice(v Visit) Outcome {
	return Text(itoa(v.Ctx.Rand().Int(0, 99999)))
}

func listenAddress(v Visit) Outcome {
	listen := attr(v.Parent(), "listen")
	if listen == "" {
		return Defer()
	}
	return Text(listen)
}

func interfaceModel(v Visit) Outcome {
	if attr(v.Parent(), "type") != "vhostuser" {
		return Defer()
	}
	return Text("virtio")
}

func ipFamily(v Visit) Outcome {
	addr := attr(v.Current(), "address")
	if addr == "" {
		return Defer()
	}
	if strings.Contains(addr, ":") {
		return Text("ipv6")
	}
	return Text("ipv4")
}

func seclabelModel(v Visit) Outcome {
	left := remaining(seclabelModels, seclabelModelsIn(v.Parent()))
	if len(left) == 0 {
		v.Ctx.Reportf(v, KindAttribute, "every seclabel model is already used")
		return Defer()
	}
	return Text(rnd.Pick(v.Ctx.Rand(), left))
}

// routeNetmask draws a prefix length for an IPv4 route and masks the route
// address to it.
func routeNetmask(v Visit) Outcome {
	route := v.Current()
	addr, err := netip.ParseAddr(attr(route, "address"))
	if err != nil || !addr.Is4() {
		return Defer()
	}

	bits := v.Ctx.Rand().Int(0, 32)
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return Defer()
	}
	route.CreateAttr("address", prefix.Addr().String())

	var mask [4]byte
	binary.BigEndian.PutUint32(mask[:], ^uint32(0)<<(32-bits))
	return Text(netip.AddrFrom4(mask).String())
}

func controllerBus(v Visit) Outcome {
	index, err := strconv.Atoi(attr(v.Parent(), "index"))
	if err != nil || index < 0 {
		return Defer()
	}
	return Text(itoa(v.Ctx.Rand().Exp(1, index)))
}
