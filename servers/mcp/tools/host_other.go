//go:build !linux && !darwin

package tools

// probeHost has nothing beyond the portable fields on this platform.
func probeHost(info *HostInfo) {}
