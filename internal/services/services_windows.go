//go:build windows

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// win32Service mirrors the Win32_Service columns we read. Nullable columns
// are pointers.
type win32Service struct {
	Name        string
	DisplayName *string
	State       *string
	StartMode   *string
	Description *string
}

const wmiServiceQuery = "SELECT Name, DisplayName, State, StartMode, Description FROM Win32_Service"

type scmController struct{}

func newController() controller { return scmController{} }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func accessError(err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: %v", ErrNotAdmin, err)
	}
	return err
}

// connectReadOnly opens the service manager with rights any user has, so
// listing works without elevation.
func connectReadOnly() (*mgr.Mgr, error) {
	h, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT|windows.SC_MANAGER_ENUMERATE_SERVICE)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service manager: %w", accessError(err))
	}
	return &mgr.Mgr{Handle: h}, nil
}

func openService(m *mgr.Mgr, name string, access uint32) (*mgr.Service, error) {
	ptr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.OpenService(m.Handle, ptr, access)
	if err != nil {
		return nil, accessError(err)
	}
	return &mgr.Service{Name: name, Handle: h}, nil
}

func (scmController) list(ctx context.Context) ([]Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []win32Service
	if err := wmi.Query(wmiServiceQuery, &rows); err != nil {
		slog.Debug("WMI service query failed, falling back to the service manager", "error", err)
		return listFromSCM(ctx)
	}

	m, err := connectReadOnly()
	if err != nil {
		return nil, err
	}
	defer m.Disconnect()

	out := make([]Service, 0, len(rows))
	for _, r := range rows {
		s := Service{
			Name:        r.Name,
			DisplayName: deref(r.DisplayName),
			Status:      parseWMIState(deref(r.State)),
			StartType:   ParseStartType(deref(r.StartMode)),
			Description: deref(r.Description),
		}
		// WMI reports delayed services as plain Auto.
		if s.StartType == StartAutomatic {
			if delayed, err := isDelayed(m, r.Name); err == nil && delayed {
				s.StartType = StartAutomaticDelayed
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func isDelayed(m *mgr.Mgr, name string) (bool, error) {
	s, err := openService(m, name, windows.SERVICE_QUERY_CONFIG)
	if err != nil {
		return false, err
	}
	defer s.Close()
	cfg, err := s.Config()
	if err != nil {
		return false, err
	}
	return cfg.DelayedAutoStart, nil
}

// listFromSCM reads every service through the service manager alone.
func listFromSCM(ctx context.Context) ([]Service, error) {
	m, err := connectReadOnly()
	if err != nil {
		return nil, err
	}
	defer m.Disconnect()

	names, err := m.ListServices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate services: %w", err)
	}

	out := make([]Service, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := openService(m, name, windows.SERVICE_QUERY_CONFIG|windows.SERVICE_QUERY_STATUS)
		if err != nil {
			slog.Debug("skipping service", "service", name, "error", err)
			continue
		}
		entry := Service{Name: name, Status: StatusUnknown, StartType: StartUnknown}
		if cfg, err := s.Config(); err == nil {
			entry.DisplayName = cfg.DisplayName
			entry.Description = cfg.Description
			entry.StartType = startTypeFromConfig(cfg)
		}
		if st, err := s.Query(); err == nil {
			entry.Status = statusFromState(st.State)
		}
		s.Close()
		out = append(out, entry)
	}
	return out, nil
}

func (scmController) status(name string) (Status, error) {
	m, err := connectReadOnly()
	if err != nil {
		return StatusUnknown, err
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return StatusUnknown, err
	}
	defer s.Close()

	st, err := s.Query()
	if err != nil {
		return StatusUnknown, err
	}
	return statusFromState(st.State), nil
}

func (scmController) startType(name string) (StartType, error) {
	m, err := connectReadOnly()
	if err != nil {
		return StartUnknown, err
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_QUERY_CONFIG)
	if err != nil {
		return StartUnknown, err
	}
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return StartUnknown, err
	}
	return startTypeFromConfig(cfg), nil
}

func (scmController) start(name string) error {
	m, err := connectReadOnly()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_START|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return err
	}
	defer s.Close()
	return accessError(s.Start())
}

func (scmController) stop(name string) error {
	m, err := connectReadOnly()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_STOP|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = s.Control(svc.Stop)
	return accessError(err)
}

func statusFromState(st svc.State) Status {
	switch st {
	case svc.Running:
		return StatusRunning
	case svc.Stopped:
		return StatusStopped
	case svc.Paused:
		return StatusPaused
	case svc.StartPending, svc.ContinuePending:
		return StatusStarting
	case svc.StopPending, svc.PausePending:
		return StatusStopping
	default:
		return StatusUnknown
	}
}

func startTypeFromConfig(cfg mgr.Config) StartType {
	switch cfg.StartType {
	case mgr.StartAutomatic:
		if cfg.DelayedAutoStart {
			return StartAutomaticDelayed
		}
		return StartAutomatic
	case mgr.StartManual:
		return StartManual
	case mgr.StartDisabled:
		return StartDisabled
	default:
		return StartUnknown
	}
}
