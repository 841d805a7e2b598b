// Package services lists Windows services and starts, stops and
// reconfigures them.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pcmanager/internal/cmd"
	"pcmanager/internal/system"
)

// Status is the run state of a service.
type Status string

const (
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusPaused   Status = "paused"
	StatusStarting Status = "starting"
	StatusStopping Status = "stopping"
	StatusUnknown  Status = "unknown"
)

// StartType is how a service is launched at boot.
type StartType string

const (
	StartAutomatic        StartType = "automatic"
	StartAutomaticDelayed StartType = "automatic-delayed"
	StartManual           StartType = "manual"
	StartDisabled         StartType = "disabled"
	StartUnknown          StartType = "unknown"
)

// ParseStartType converts the spellings used by WMI, sc and this package.
func ParseStartType(s string) StartType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTO", "AUTOMATIC", "AUTO_START":
		return StartAutomatic
	case "AUTODELAYED", "AUTOMATIC-DELAYED", "DELAYED-AUTO", "DELAYED":
		return StartAutomaticDelayed
	case "MANUAL", "DEMAND", "DEMAND_START":
		return StartManual
	case "DISABLED":
		return StartDisabled
	default:
		return StartUnknown
	}
}

// SCArg returns the value for `sc config <name> start=`, or "" for
// StartUnknown.
func (t StartType) SCArg() string {
	switch t {
	case StartAutomatic:
		return "auto"
	case StartAutomaticDelayed:
		return "delayed-auto"
	case StartManual:
		return "demand"
	case StartDisabled:
		return "disabled"
	default:
		return ""
	}
}

// Service describes one installed service.
type Service struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Status      Status    `json:"status"`
	StartType   StartType `json:"startType"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Critical    bool      `json:"critical"`
	SafeToStop  bool      `json:"safeToStop"`
}

var (
	// ErrCriticalService is returned when asked to stop or disable a
	// service Windows depends on.
	ErrCriticalService = errors.New("refusing to change a critical system service")
	// ErrTimeout means the service did not reach the requested state in time.
	ErrTimeout = errors.New("timed out waiting for service state")
	// ErrUnsupported is returned on platforms without a service manager.
	ErrUnsupported = errors.New("service control is not supported on this platform")
	// ErrNotAdmin is returned when the service manager denies access.
	ErrNotAdmin = system.ErrNotAdmin
)

// Recorder receives the start type a service had before it was changed.
type Recorder interface {
	RecordService(name, startType string) error
}

// controller is the platform service manager.
type controller interface {
	list(ctx context.Context) ([]Service, error)
	status(name string) (Status, error)
	start(name string) error
	stop(name string) error
	startType(name string) (StartType, error)
}

const (
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 30 * time.Second
)

// Manager controls services through the platform service manager.
type Manager struct {
	ctl          controller
	run          cmd.Runner
	journal      Recorder
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// NewManager returns a Manager. rec may be nil.
func NewManager(rec Recorder) *Manager {
	return &Manager{
		ctl:          newController(),
		run:          cmd.Output,
		journal:      rec,
		pollInterval: defaultPollInterval,
		waitTimeout:  defaultWaitTimeout,
	}
}

// annotate fills the catalog fields of s.
func annotate(s *Service) {
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	s.Critical = IsCritical(s.Name)

	if info, ok := safeToStop[strings.ToLower(s.Name)]; ok {
		s.Category = info.category
		s.Description = info.description
		s.SafeToStop = !s.Critical
		return
	}
	s.Category = categorySystem
	if s.Description == "" {
		s.Description = s.DisplayName
	}
	s.SafeToStop = !s.Critical
}

// List returns every installed service sorted by display name.
func (m *Manager) List(ctx context.Context) ([]Service, error) {
	list, err := m.ctl.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		annotate(&list[i])
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].DisplayName), strings.ToLower(list[j].DisplayName)
		if a != b {
			return a < b
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// Start starts name and waits for it to run. Starting a running service
// is a no-op.
func (m *Manager) Start(ctx context.Context, name string) error {
	st, err := m.ctl.status(name)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if st == StatusRunning {
		return nil
	}
	if err := m.ctl.start(name); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	if err := m.waitFor(ctx, name, StatusRunning); err != nil {
		return err
	}
	slog.Info("service started", "service", name)
	return nil
}

// Stop stops name and waits for it to stop. Critical services are refused.
func (m *Manager) Stop(ctx context.Context, name string) error {
	if IsCritical(name) {
		return fmt.Errorf("%s: %w", name, ErrCriticalService)
	}
	st, err := m.ctl.status(name)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if st == StatusStopped {
		return nil
	}
	if err := m.ctl.stop(name); err != nil {
		return fmt.Errorf("failed to stop %s: %w", name, err)
	}
	if err := m.waitFor(ctx, name, StatusStopped); err != nil {
		return err
	}
	slog.Info("service stopped", "service", name)
	return nil
}

// waitFor polls until name reaches want, the wait times out or ctx ends.
func (m *Manager) waitFor(ctx context.Context, name string, want Status) error {
	deadline := time.NewTimer(m.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%s did not become %s: %w", name, want, ErrTimeout)
		case <-ticker.C:
			st, err := m.ctl.status(name)
			if err != nil {
				slog.Debug("service status poll failed", "service", name, "error", err)
				continue
			}
			if st == want {
				return nil
			}
		}
	}
}

// SetStartType changes how name starts at boot. The previous start type
// is journaled first. Critical services cannot be disabled.
func (m *Manager) SetStartType(ctx context.Context, name string, t StartType) error {
	arg := t.SCArg()
	if arg == "" {
		return fmt.Errorf("invalid start type %q", t)
	}
	if t == StartDisabled && IsCritical(name) {
		return fmt.Errorf("%s: %w", name, ErrCriticalService)
	}

	if m.journal != nil {
		prev, err := m.ctl.startType(name)
		switch {
		case err != nil:
			slog.Warn("could not read current start type", "service", name, "error", err)
		case prev != StartUnknown:
			if err := m.journal.RecordService(name, prev.SCArg()); err != nil {
				slog.Warn("failed to journal service start type", "service", name, "error", err)
			}
		}
	}

	out, err := m.run(ctx, "sc", "config", name, "start=", arg)
	if err != nil {
		return fmt.Errorf("failed to set start type of %s: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	slog.Info("service start type changed", "service", name, "startType", t)
	return nil
}

// AutoStart lists services that start automatically with Windows.
func (m *Manager) AutoStart(ctx context.Context) ([]Service, error) {
	list, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, s := range list {
		if s.StartType == StartAutomatic || s.StartType == StartAutomaticDelayed {
			out = append(out, s)
		}
	}
	return out, nil
}

// parseWMIState converts Win32_Service.State.
func parseWMIState(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StatusRunning
	case "stopped":
		return StatusStopped
	case "paused":
		return StatusPaused
	case "start pending", "continue pending":
		return StatusStarting
	case "stop pending", "pause pending":
		return StatusStopping
	default:
		return StatusUnknown
	}
}
