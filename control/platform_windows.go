//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes. runtime.NumCPU bounds the scheduler's
// worker-to-CPU pinning range (affinity.SetAffinity on this platform goes
// through SetThreadAffinityMask); the current process id lets an operator
// correlate a DumpState snapshot with an external Windows perf trace.

package control

import (
	"runtime"

	"golang.org/x/sys/windows"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.pid", func() any {
		return windows.GetCurrentProcessId()
	})
}
