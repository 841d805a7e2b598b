//go:build !windows

package diskscan

// Partitions(false) already limits the list to physical devices.
func isFixedDrive(string) bool { return true }

func volumeLabel(string) string { return "" }
