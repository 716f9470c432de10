//go:build linux

package tools

import (
	"bufio"
	"os"
	"strings"

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

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		unit := uint64(si.Unit)
		if unit == 0 {
			unit = 1
		}
		info.MemoryGB = formatGB(uint64(si.Totalram) * unit)
	}

	if model := cpuModel("/proc/cpuinfo"); model != "" {
		info.CPUModel = model
	}
}

// cpuModel returns the first "model name" entry of a cpuinfo file.
func cpuModel(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
