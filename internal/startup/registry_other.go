//go:build !windows

package startup

import "context"

type noRegistry struct{}

func newRegistryStore() registryStore { return noRegistry{} }

func (noRegistry) list(Hive, string) (map[string]regValue, error) { return nil, ErrUnsupported }

func (noRegistry) get(Hive, string, string) (regValue, error) { return regValue{}, ErrUnsupported }

func (noRegistry) set(Hive, string, string, regValue) error { return ErrUnsupported }

func (noRegistry) remove(Hive, string, string) error { return ErrUnsupported }

type noServices struct{}

func newServiceSource() serviceSource { return noServices{} }

func (noServices) startupServices(context.Context) ([]serviceEntry, error) {
	return nil, ErrUnsupported
}
