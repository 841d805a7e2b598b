// Package journal remembers the original values of settings the tool
// changes, so they can be put back later.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"pcmanager/internal/appdir"
	"pcmanager/internal/cmd"
)

// Filename is the journal file inside the application data directory.
const Filename = "journal.json"

// State is the on-disk journal.
type State struct {
	Timestamp string                  `json:"timestamp"`
	Services  map[string]string       `json:"services"`  // service name -> sc start keyword
	PowerPlan string                  `json:"powerPlan"` // original active plan GUID
	Startup   map[string]StartupEntry `json:"startup"`   // items this tool disabled
}

// StartupEntry records a startup item disabled by the tool.
type StartupEntry struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	DisabledAt string `json:"disabledAt"`
}

// Journal is safe for concurrent use. Every Record call is persisted
// immediately.
type Journal struct {
	mu    sync.Mutex
	path  string
	state *State
	run   cmd.Runner
}

func newEmptyState() *State {
	return &State{
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  make(map[string]string),
		Startup:   make(map[string]StartupEntry),
	}
}

// DefaultPath returns the journal location in the application data directory.
func DefaultPath() string {
	return appdir.File(Filename)
}

// Open loads the journal at path. A missing file yields an empty journal.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path, state: newEmptyState(), run: cmd.Output}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return j, nil
	}

	loaded := &State{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("failed to parse journal %s: %w", path, err)
	}
	if loaded.Services == nil {
		loaded.Services = make(map[string]string)
	}
	if loaded.Startup == nil {
		loaded.Startup = make(map[string]StartupEntry)
	}
	j.state = loaded
	return j, nil
}

// Path returns the file backing the journal.
func (j *Journal) Path() string { return j.path }

// SetRunner replaces the command runner used by RestoreAll.
func (j *Journal) SetRunner(run cmd.Runner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.run = run
}

// State returns a copy of the journal contents.
func (j *Journal) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := State{
		Timestamp: j.state.Timestamp,
		PowerPlan: j.state.PowerPlan,
		Services:  make(map[string]string, len(j.state.Services)),
		Startup:   make(map[string]StartupEntry, len(j.state.Startup)),
	}
	for k, v := range j.state.Services {
		s.Services[k] = v
	}
	for k, v := range j.state.Startup {
		s.Startup[k] = v
	}
	return s
}

// Empty reports whether there is nothing to restore or report.
func (j *Journal) Empty() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.state.Services) == 0 && j.state.PowerPlan == "" && len(j.state.Startup) == 0
}

// RecordService remembers the start type a service had before the tool
// changed it. Later calls for the same service are ignored.
func (j *Journal) RecordService(name, startType string) error {
	keyword := scStartKeyword(startType)
	if keyword == "" {
		return fmt.Errorf("unknown start type %q for service %s", startType, name)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.state.Services[name]; ok {
		return nil
	}
	j.state.Services[name] = keyword
	return j.saveLocked()
}

// RecordPowerPlan remembers the plan that was active before the first
// switch made by the tool.
func (j *Journal) RecordPowerPlan(guid string) error {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.PowerPlan != "" {
		return nil
	}
	j.state.PowerPlan = guid
	return j.saveLocked()
}

// LocationService is the startup location of items backed by a service.
const LocationService = "service"

func startupKey(name, location string) string {
	return location + "|" + name
}

// RecordStartupDisabled notes that the tool disabled a startup item.
func (j *Journal) RecordStartupDisabled(name, location string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := startupKey(name, location)
	if _, ok := j.state.Startup[key]; ok {
		return nil
	}
	j.state.Startup[key] = StartupEntry{
		Name:       name,
		Location:   location,
		DisabledAt: time.Now().Format(time.RFC3339),
	}
	return j.saveLocked()
}

// ForgetStartup drops a startup item once it has been enabled again.
func (j *Journal) ForgetStartup(name, location string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := startupKey(name, location)
	if _, ok := j.state.Startup[key]; !ok {
		return nil
	}
	delete(j.state.Startup, key)
	return j.saveLocked()
}

// IsStartupDisabled reports whether the tool disabled the item.
func (j *Journal) IsStartupDisabled(name, location string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.state.Startup[startupKey(name, location)]
	return ok
}

// Save writes the journal to disk.
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saveLocked()
}

func (j *Journal) saveLocked() error {
	j.state.Timestamp = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(j.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}
	if err := appdir.WriteFile(j.path, data); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

// RestoreServices puts every journaled service back to its original start
// type. Restored entries are removed from the journal.
func (j *Journal) RestoreServices(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	names := make([]string, 0, len(j.state.Services))
	for name := range j.state.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures []string
	for _, name := range names {
		keyword := j.state.Services[name]
		out, err := j.run(ctx, "sc", "config", name, "start=", keyword)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v (%s)", name, err, strings.TrimSpace(string(out))))
			continue
		}
		slog.Info("restored service start type", "service", name, "startType", keyword)
		delete(j.state.Services, name)
		delete(j.state.Startup, startupKey(name, LocationService))
	}

	if err := j.saveLocked(); err != nil {
		failures = append(failures, err.Error())
	}
	if len(failures) > 0 {
		return fmt.Errorf("some services could not be restored:\n%s", strings.Join(failures, "\n"))
	}
	return nil
}

// RestorePowerPlan reactivates the journaled power plan.
func (j *Journal) RestorePowerPlan(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.PowerPlan == "" {
		return nil
	}
	guid := j.state.PowerPlan
	if out, err := j.run(ctx, "powercfg", "/setactive", guid); err != nil {
		return fmt.Errorf("failed to restore power plan %s: %w (%s)", guid, err, strings.TrimSpace(string(out)))
	}
	slog.Info("restored power plan", "guid", guid)
	j.state.PowerPlan = ""
	return j.saveLocked()
}

// RestoreAll restores service start types and the power plan. Startup
// items stay listed; re-enabling them is left to the startup manager.
func (j *Journal) RestoreAll(ctx context.Context) error {
	var failures []string

	if err := j.RestoreServices(ctx); err != nil {
		failures = append(failures, fmt.Sprintf("Services: %v", err))
	}
	if err := j.RestorePowerPlan(ctx); err != nil {
		failures = append(failures, fmt.Sprintf("PowerPlan: %v", err))
	}

	if len(failures) > 0 {
		return fmt.Errorf("restore completed with errors:\n%s", strings.Join(failures, "\n"))
	}
	return nil
}

// scStartKeyword maps a start type spelling to the value `sc config start=`
// accepts. It returns "" for anything it does not recognise.
func scStartKeyword(startType string) string {
	switch strings.ToUpper(strings.TrimSpace(startType)) {
	case "AUTO_START", "AUTO", "AUTOMATIC":
		return "auto"
	case "DELAYED-AUTO", "AUTOMATIC-DELAYED", "AUTODELAYED", "DELAYED":
		return "delayed-auto"
	case "DEMAND_START", "DEMAND", "MANUAL":
		return "demand"
	case "DISABLED":
		return "disabled"
	case "BOOT_START", "BOOT":
		return "boot"
	case "SYSTEM_START", "SYSTEM":
		return "system"
	default:
		return ""
	}
}
