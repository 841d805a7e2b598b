//go:build !windows

package diskscan

import (
	"path/filepath"
	"testing"
)

func makeHiddenDir(t *testing.T, parent, name string) string {
	t.Helper()
	path := filepath.Join(parent, "."+name)
	makeDir(t, path)
	return path
}
