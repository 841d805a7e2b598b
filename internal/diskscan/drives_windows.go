//go:build windows

package diskscan

import (
	"golang.org/x/sys/windows"
)

func rootPath(mount string) string {
	if len(mount) == 2 && mount[1] == ':' {
		return mount + `\`
	}
	return mount
}

func isFixedDrive(mount string) bool {
	p, err := windows.UTF16PtrFromString(rootPath(mount))
	if err != nil {
		return false
	}
	return windows.GetDriveType(p) == windows.DRIVE_FIXED
}

func volumeLabel(mount string) string {
	p, err := windows.UTF16PtrFromString(rootPath(mount))
	if err != nil {
		return ""
	}
	name := make([]uint16, windows.MAX_PATH+1)
	fsName := make([]uint16, windows.MAX_PATH+1)
	var serial, maxComponent, flags uint32
	err = windows.GetVolumeInformation(p, &name[0], uint32(len(name)), &serial, &maxComponent, &flags, &fsName[0], uint32(len(fsName)))
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(name)
}
