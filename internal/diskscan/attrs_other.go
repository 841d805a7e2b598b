//go:build !windows

package diskscan

import (
	"io/fs"
	"strings"
)

// Unix has no hidden attribute; dot-directories play that role.
func isHiddenOrSystem(entry fs.DirEntry) bool {
	return strings.HasPrefix(entry.Name(), ".")
}
