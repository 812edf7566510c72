//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity, called
// from thread.Spawn's goroutine for a scheduler worker. golang.org/x/sys/
// windows does not wrap SetThreadAffinityMask, so this goes directly
// through kernel32 the way the pack's own Windows affinity code does.

package affinity

import (
	"fmt"
	"syscall"
)

// setAffinityPlatform sets thread affinity to a given CPU for Windows. The
// bounds check lives in affinity.SetAffinity; this assumes cpuID is valid.
func setAffinityPlatform(cpuID int) error {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask := kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread := kernel32.NewProc("GetCurrentThread")
	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << cpuID
	ret, _, err := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return fmt.Errorf("affinity: SetThreadAffinityMask failed pinning worker to cpu %d: %w", cpuID, err)
	}
	return nil
}
