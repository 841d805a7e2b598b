//go:build !windows

package memory

func trimWorkingSet(uint32) error {
	return ErrUnsupported
}
