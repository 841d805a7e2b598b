//go:build windows

package diskscan

import (
	"path/filepath"
	"testing"

	"golang.org/x/sys/windows"
)

func makeHiddenDir(t *testing.T, parent, name string) string {
	t.Helper()
	path := filepath.Join(parent, name)
	makeDir(t, path)
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		t.Fatalf("bad path %s: %v", path, err)
	}
	if err := windows.SetFileAttributes(p, windows.FILE_ATTRIBUTE_HIDDEN); err != nil {
		t.Fatalf("failed to hide %s: %v", path, err)
	}
	return path
}
