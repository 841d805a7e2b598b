//go:build windows

package startup

import (
	"context"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows/registry"
)

type winRegistry struct{}

func newRegistryStore() registryStore { return winRegistry{} }

func rootKey(h Hive) registry.Key {
	if h == HKLM {
		return registry.LOCAL_MACHINE
	}
	return registry.CURRENT_USER
}

// Registry errors are syscall.Errno values, which match fs.ErrNotExist for
// missing keys and values.

func (winRegistry) list(h Hive, path string) (map[string]regValue, error) {
	key, err := registry.OpenKey(rootKey(h), path, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	values := make(map[string]regValue, len(names))
	for _, name := range names {
		data, valType, err := key.GetStringValue(name)
		if err != nil {
			continue
		}
		values[name] = regValue{data: data, expand: valType == registry.EXPAND_SZ}
	}
	return values, nil
}

func (winRegistry) get(h Hive, path, name string) (regValue, error) {
	key, err := registry.OpenKey(rootKey(h), path, registry.QUERY_VALUE)
	if err != nil {
		return regValue{}, err
	}
	defer key.Close()

	data, valType, err := key.GetStringValue(name)
	if err != nil {
		return regValue{}, err
	}
	return regValue{data: data, expand: valType == registry.EXPAND_SZ}, nil
}

func (winRegistry) set(h Hive, path, name string, v regValue) error {
	key, _, err := registry.CreateKey(rootKey(h), path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()

	if v.expand {
		return key.SetExpandStringValue(name, v.data)
	}
	return key.SetStringValue(name, v.data)
}

func (winRegistry) remove(h Hive, path, name string) error {
	key, err := registry.OpenKey(rootKey(h), path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()
	return key.DeleteValue(name)
}

// win32Service mirrors the Win32_Service columns read for startup items.
type win32Service struct {
	Name        string
	DisplayName *string
	PathName    *string
	StartMode   *string
}

type wmiServiceSource struct{}

func newServiceSource() serviceSource { return wmiServiceSource{} }

func (wmiServiceSource) startupServices(ctx context.Context) ([]serviceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []win32Service
	q := "SELECT Name, DisplayName, PathName, StartMode FROM Win32_Service WHERE StartMode = 'Auto' OR StartMode = 'Disabled'"
	if err := wmi.Query(q, &rows); err != nil {
		return nil, err
	}

	out := make([]serviceEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, serviceEntry{
			Name:        r.Name,
			DisplayName: str(r.DisplayName),
			PathName:    str(r.PathName),
			StartMode:   str(r.StartMode),
		})
	}
	return out, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
