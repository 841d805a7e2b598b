//go:build windows

package memory

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var procSetProcessWorkingSetSize = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetProcessWorkingSetSize")

// trimWorkingSet passes (SIZE_T)-1 for both limits, which empties the
// working set the same way EmptyWorkingSet does.
func trimWorkingSet(pid uint32) error {
	const access = windows.PROCESS_SET_QUOTA | windows.PROCESS_QUERY_LIMITED_INFORMATION

	handle, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		return fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	ret, _, callErr := procSetProcessWorkingSetSize.Call(uintptr(handle), ^uintptr(0), ^uintptr(0))
	if ret == 0 {
		return fmt.Errorf("SetProcessWorkingSetSize failed for PID %d: %w", pid, callErr)
	}
	return nil
}
