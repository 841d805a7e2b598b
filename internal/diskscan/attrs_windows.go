//go:build windows

package diskscan

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/windows"
)

const skippedAttributes = windows.FILE_ATTRIBUTE_HIDDEN |
	windows.FILE_ATTRIBUTE_SYSTEM |
	windows.FILE_ATTRIBUTE_REPARSE_POINT

func isHiddenOrSystem(entry fs.DirEntry) bool {
	info, err := entry.Info()
	if err != nil {
		// Treat an entry we cannot stat like any other unreadable node.
		return true
	}
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	return data.FileAttributes&skippedAttributes != 0
}
