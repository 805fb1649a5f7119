package engine

// DefaultRules returns the domain rule table in declaration order. Within
// one kind, later rules override earlier ones when both match a node.
func DefaultRules() []Rule {
	facts := func(f ...Fact) []Fact { return f }

	return []Rule{
		// Elements.
		{Kind: KindElement, DocPattern: `/domain/metadata`, Name: "omit_metadata", Handler: omitAlways, Requires: ModeRaw, Effect: EffectOmit},
		{Kind: KindElement, DocPattern: `/domain/bootloader(|_args)`, Name: "omit_bootloader", Handler: omitAlways, Requires: ModeDefinable, Effect: EffectOmit},
		{Kind: KindElement, DocPattern: `/domain/cpu/(vendor|feature)`, Name: "only_with_cpu_model", Handler: onlyWithCPUModel, Requires: ModeDefinable},
		{Kind: KindElement, DocPattern: `/domain/devices/(interface|hostdev|disk|redirdev)/boot`, Name: "omit_if_os_boot", Handler: omitIfOSBoot, Requires: ModeDefinable},
		{Kind: KindElement, DocPattern: `/domain/numatune/memnode`, Name: "only_with_strict_placement", Handler: onlyWithStrictPlacement, Requires: ModeDefinable},
		{Kind: KindElement, DocPattern: `/domain/cputune/vcpusched`, Name: "vcpusched_if_vcpu_left", Handler: vcpuschedIfVcpuLeft, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu, FactVcpuSched)},
		{Kind: KindElement, DocPattern: `/domain/cpu/numa/cell`, Name: "cell_if_resources_left", Handler: cellIfResourcesLeft, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu, FactCellVcpus, FactMaxMemory, FactLeftNumaMem)},
		{Kind: KindElement, DocPattern: `/domain/cputune/iothreadsched`, Name: "iothreadsched_if_iothread_left", Handler: iothreadschedIfIOThreadLeft, Requires: ModeDefinable,
			Writes: facts(FactMaxIOThread, FactIOThreadSched)},
		{Kind: KindElement, DocPattern: `/domain/keywrap/cipher`, Name: "cipher_unless_both", Handler: cipherUnlessBoth, Requires: ModeDefinable},
		{Kind: KindElement, DocPattern: `/domain/.*seclabel`, Name: "seclabel_if_model_left", Handler: seclabelIfModelLeft, Requires: ModeStartable},

		// Optionals.
		{Kind: KindOptional, DocPattern: `/domain`, Name: "qemu_commandline", Handler: qemuCommandline, Requires: ModeDefinable},

		// Attributes.
		{Kind: KindAttribute, DocPattern: `/domain/type`, Name: "domain_type", Handler: domainType, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/vcpu/current`, Name: "current_vcpu", Handler: currentVcpu, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactMaxVcpu)},
		{Kind: KindAttribute, DocPattern: `/domain/cputune/vcpupin/vcpu`, Name: "vcpupin_cpu", Handler: vcpupinCPU, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu, FactPinnedCPUs)},
		{Kind: KindAttribute, DocPattern: `/domain/memoryBacking/hugepages/page/nodeset`, Name: "hugepage_nodeset", Handler: hugepageNodeset, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactHugeCPUs)},
		{Kind: KindAttribute, DocPattern: `/domain/memoryBacking/hugepages/page/size`, Name: "hugepage_size", Handler: hugepageSize, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/devices/video/model/vgamem`, Name: "vgamem", Handler: vgamem, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/devices/disk/target/removable`, Name: "disk_removable", Handler: diskRemovable, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/disk/target/tray`, Name: "disk_tray", Handler: diskTray, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/disk/target/bus`, Name: "disk_bus", Handler: diskBus, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/cpu/numa/cell/id`, Name: "numa_cell_id", Handler: numaCellID, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactNumaMaxID)},
		{Kind: KindAttribute, DocPattern: `/domain/cpu/numa/cell/memory`, Name: "cell_memory", Handler: cellMemory, Requires: ModeDefinable,
			Writes: facts(FactMaxMemory, FactLeftNumaMem, FactCellMemory)},
		{Kind: KindAttribute, DocPattern: `/domain/cpu/numa/cell/unit`, Name: "cell_memory_unit", Handler: cellMemoryUnit, Requires: ModeDefinable,
			Writes: facts(FactMaxMemory, FactLeftNumaMem, FactCellMemory)},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/bandwidth/inbound/floor`, Name: "inbound_floor", Handler: inboundFloor, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/bandwidth/outbound/floor`, Name: "omit_outbound_floor", Handler: omitAlways, Requires: ModeDefinable, Effect: EffectOmit},
		{Kind: KindAttribute, DocPattern: `/domain/maxMemory/unit`, Name: "max_memory_unit", Handler: maxMemoryUnit, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactMaxMemory)},
		{Kind: KindAttribute, DocPattern: `/domain/memory/unit`, Name: "actual_memory_unit", Handler: actualMemoryUnit, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactMaxMemory, FactActualMemory)},
		{Kind: KindAttribute, DocPattern: `/domain/currentMemory/unit`, Name: "current_memory_unit", Handler: currentMemoryUnit, Requires: ModeDefinable, Effect: EffectValue,
			Writes: facts(FactMaxMemory, FactActualMemory, FactCurrentMemory)},
		{Kind: KindAttribute, DocPattern: `/domain/numatune/memnode/cellid`, Name: "numatune_cellid", Handler: numatuneCellID, Requires: ModeDefinable,
			Reads: facts(FactNumaMaxID)},
		{Kind: KindAttribute, DocPattern: `/domain/devices/disk/driver/(event_idx|ioeventfd)`, Name: "disk_virtio_option", Handler: diskVirtioOption, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/cputune/iothreadpin/iothread`, Name: "iothreadpin_iothread", Handler: iothreadpinIOThread, Requires: ModeDefinable,
			Reads: facts(FactIOThreads)},
		{Kind: KindAttribute, DocPattern: `/domain/iothreadids/iothread/id`, Name: "iothread_id", Handler: iothreadID, Requires: ModeDefinable,
			Reads: facts(FactIOThreads), Writes: facts(FactIOThreadIDs)},
		{Kind: KindAttribute, DocPattern: `/domain/features/hyperv/spinlocks/retries`, Name: "spinlock_retries", Handler: spinlockRetries, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/idmap/(uid|gid)/start`, Name: "idmap_start", Handler: idmapStart, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/devices/(console|channel|serial|parallel|smartcard|redirdev)/source/mode`, Name: "source_mode", Handler: sourceMode, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/vlan/tag/nativeMode`, Name: "vlan_native_mode", Handler: vlanNativeMode, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/hostdev/source/startupPolicy`, Name: "hostdev_startup_policy", Handler: hostdevStartupPolicy, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/(hostdev|interface)/source/address/device`, Name: "source_address_device", Handler: sourceAddressDevice, Requires: ModeDefinable, Effect: EffectValue},
		{Kind: KindAttribute, DocPattern: `/domain/devices/graphics/listen/address`, Name: "listen_address", Handler: listenAddress, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/model/type`, Name: "interface_model", Handler: interfaceModel, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/ip/family`, Name: "ip_family", Handler: ipFamily, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/interface/route/netmask`, Name: "route_netmask", Handler: routeNetmask, Requires: ModeDefinable},
		{Kind: KindAttribute, DocPattern: `/domain/.*seclabel/model`, Name: "seclabel_model", Handler: seclabelModel, Requires: ModeStartable},
		{Kind: KindAttribute, DocPattern: `/domain/devices/nvram/address`, Name: "omit_nvram_address", Handler: omitAlways, Requires: ModeDefinable, Effect: EffectOmit},
		{Kind: KindAttribute, DocPattern: `/controller/address/bus`, Name: "controller_bus", Handler: controllerBus, Requires: ModeDefinable},

		// Repetitions.
		{Kind: KindZeroOrMore, DocPattern: `/domain/cputune`, Name: "vcpupin_count", Handler: vcpupinCount, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu)},
		{Kind: KindZeroOrMore, DocPattern: `/domain/idmap`, Name: "idmap_count", Handler: idmapCount, Requires: ModeDefinable},
		{Kind: KindZeroOrMore, DocPattern: `/domain/devices/(parallel|serial|console|redirdev|channel|smartcard|rng/backend)`, Name: "char_source_count", Handler: charSourceCount, Requires: ModeDefinable},
		{Kind: KindOneOrMore, DocPattern: `/domain/cpu/numa`, Name: "numa_cell_count", Handler: numaCellCount, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu)},

		// Data.
		{Kind: KindData, StructPattern: `/define\[@name="cpuset"\]/data`, Name: "cpuset", Handler: cpuset, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu, FactMaxIOThread, FactVcpuSched, FactCellVcpus, FactIOThreadSched)},
		{Kind: KindData, StructPattern: `/define\[@name="countCPU"\]/data`, Name: "max_vcpu", Handler: maxVcpu, Requires: ModeDefinable,
			Writes: facts(FactMaxVcpu)},
		{Kind: KindData, StructPattern: `/define\[@name="(pciDomain|pciBus|pciSlot|pciFunc|usbAddr|usbClass|usbId)"\]/data`, Name: "hexdec", Handler: hexdec, Requires: ModeDefinable},
		{Kind: KindData, StructPattern: `/define\[@name="usbPort"\]/data`, Name: "usb_port", Handler: usbPort, Requires: ModeDefinable},
		{Kind: KindData, StructPattern: `/define\[@name="timeDelta"\]/data`, Name: "time_delta", Handler: timeDelta, Requires: ModeDefinable},
		{Kind: KindData, DocPattern: `/domain/iothreads`, Name: "max_iothread", Handler: maxIOThread, Requires: ModeDefinable,
			Writes: facts(FactMaxIOThread)},
		{Kind: KindData, DocPattern: `/domain/maxMemory`, Name: "max_memory", Handler: maxMemory, Requires: ModeDefinable,
			Writes: facts(FactMaxMemory)},
		{Kind: KindData, DocPattern: `/domain/memory`, Name: "actual_memory", Handler: actualMemory, Requires: ModeDefinable,
			Writes: facts(FactMaxMemory, FactActualMemory)},
		{Kind: KindData, DocPattern: `/domain/currentMemory`, Name: "current_memory", Handler: currentMemory, Requires: ModeDefinable,
			Writes: facts(FactMaxMemory, FactActualMemory, FactCurrentMemory)},
		{Kind: KindData, DocPattern: `/domain/iothreads`, Name: "iothreads", Handler: ioThreads, Requires: ModeDefinable,
			Writes: facts(FactIOThreads)},
		{Kind: KindData, DocPattern: `/domain/devices/disk/target`, Name: "disk_target", Handler: diskTarget, Requires: ModeDefinable},
		{Kind: KindData, DocPattern: `/domain/sysinfo/(bios|system)/entry`, Name: "sysinfo_entry", Handler: sysinfoEntry, Requires: ModeDefinable,
			Writes: facts(FactDomainUUID)},
		{Kind: KindData, DocPattern: `/domain/devices/emulator`, Name: "emulator_path", Handler: emulatorPath, Requires: ModeDefinable},
		{Kind: KindData, DocPattern: `/domain/uuid`, Name: "domain_uuid", Handler: domainUUID, Requires: ModeDefinable,
			Writes: facts(FactDomainUUID)},

		// Choices.
		{Kind: KindChoice, DocPattern: `/domain/devices/redirdev/address`, Name: "redirdev_address", Handler: usbAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/input/address`, Name: "input_address", Handler: inputAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/seclabel`, Name: "domain_seclabel", Handler: domainSeclabel, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/(interface|controller)/address`, Name: "pci_address", Handler: pciAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/controller`, Name: "controller_model", Handler: controllerModel, Requires: ModeRaw},
		{Kind: KindChoice, DocPattern: `/domain/devices/serial/address`, Name: "serial_address", Handler: serialAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/disk/address`, Name: "disk_address", Handler: diskAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/hostdev/address`, Name: "hostdev_address", Handler: hostdevAddress, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/(console|serial)/target`, Name: "char_target", Handler: charTarget, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/channel`, Name: "channel_target", Handler: channelTarget, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/hostdev`, Name: "hostdev_mode", Handler: hostdevMode, Requires: ModeRaw},
		{Kind: KindChoice, DocPattern: `/domain/devices/graphics/listen`, Name: "listen_type", Handler: listenType, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/(console|serial|parallel)`, Name: "char_type", Handler: charType, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/input`, Name: "input_bus", Handler: inputBus, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/disk/source`, Name: "disk_startup_policy", Handler: diskStartupPolicy, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/devices/interface/route`, StructPattern: `/define\[@name="ipAddr"\]/choice`, Name: "address_family", Handler: addressFamily, Requires: ModeDefinable},
		{Kind: KindChoice, DocPattern: `/domain/keywrap/cipher`, Name: "cipher_name", Handler: cipherName, Requires: ModeDefinable},
	}
}
