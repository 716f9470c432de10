//go:build darwin

package tools

import (
	"golang.org/x/sys/unix"
)

func probeHost(info *HostInfo) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.System = unix.ByteSliceToString(uts.Sysname[:])
		info.Release = unix.ByteSliceToString(uts.Release[:])
		info.Machine = unix.ByteSliceToString(uts.Machine[:])
		info.Processor = info.Machine
	}
	if mem, err := unix.SysctlUint64("hw.memsize"); err == nil {
		info.MemoryGB = formatGB(mem)
	}
	if model, err := unix.Sysctl("machdep.cpu.brand_string"); err == nil && model != "" {
		info.CPUModel = model
	}
}
