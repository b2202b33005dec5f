package bench

import (
	"syscall"
	"unsafe"
)

// The default Windows timer resolution (~15.6ms) is coarser than many
// of the refill intervals RateLimiter computes (single-digit
// milliseconds at high rates), which would make the rate reduction in
// ratelimiter.go systematically under-shoot. Request 0.5ms resolution
// for the process lifetime.
func init() {
	ntdll := syscall.MustLoadDLL("ntdll.dll")
	setTimerResolution := ntdll.MustFindProc("NtSetTimerResolution")
	var prevRes int
	setTimerResolution.Call(5000, 1, uintptr(unsafe.Pointer(&prevRes)))
}
