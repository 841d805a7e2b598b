// Package startup lists and toggles the programs Windows launches at logon.
package startup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pcmanager/internal/cmd"
	"pcmanager/internal/services"
)

// Impact is how much an item slows down logon.
type Impact string

const (
	ImpactLow     Impact = "low"
	ImpactMedium  Impact = "medium"
	ImpactHigh    Impact = "high"
	ImpactUnknown Impact = "unknown"
)

// Location is where a startup item is registered.
type Location string

const (
	LocationHKCU          Location = "registry_hkcu"
	LocationHKLM          Location = "registry_hklm"
	LocationStartupFolder Location = "startup_folder"
	LocationTaskScheduler Location = "task_scheduler"
	LocationService       Location = "service"
)

// Display returns a human readable name for l.
func (l Location) Display() string {
	switch l {
	case LocationHKCU:
		return "Registry (current user)"
	case LocationHKLM:
		return "Registry (machine)"
	case LocationStartupFolder:
		return "Startup folder"
	case LocationTaskScheduler:
		return "Task Scheduler"
	case LocationService:
		return "Windows service"
	default:
		return "Unknown"
	}
}

// Item is one program started at logon.
type Item struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Command      string   `json:"command"`
	Publisher    string   `json:"publisher"`
	Description  string   `json:"description"`
	Location     Location `json:"location"`
	LocationPath string   `json:"locationPath"`
	Impact       Impact   `json:"impact"`
	Enabled      bool     `json:"enabled"`
}

const (
	runKey         = `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`
	disabledSubkey = `PcPerformanceManager_Disabled`
	disabledKey    = runKey + `\` + disabledSubkey

	// SelfValueName is the Run value that starts this tool with Windows.
	SelfValueName = "PcPerformanceManager"

	disabledSuffix = ".disabled"
)

// ErrUnsupported is returned on platforms without a registry.
var ErrUnsupported = errors.New("startup management is not supported on this platform")

// Hive is a registry root.
type Hive int

const (
	HKCU Hive = iota
	HKLM
)

// registryStore reads and writes string values under a registry hive.
// Missing keys and values report fs.ErrNotExist.
type registryStore interface {
	list(h Hive, path string) (map[string]regValue, error)
	get(h Hive, path, name string) (regValue, error)
	set(h Hive, path, name string, v regValue) error
	remove(h Hive, path, name string) error
}

// regValue is string data; expand marks REG_EXPAND_SZ.
type regValue struct {
	data   string
	expand bool
}

// serviceEntry is an auto-start or tool-disabled service.
type serviceEntry struct {
	Name        string
	DisplayName string
	PathName    string
	StartMode   string
}

type serviceSource interface {
	startupServices(ctx context.Context) ([]serviceEntry, error)
}

// ServiceConfigurer changes service start types.
type ServiceConfigurer interface {
	SetStartType(ctx context.Context, name string, t services.StartType) error
}

// Recorder journals startup items the tool disables.
type Recorder interface {
	RecordStartupDisabled(name, location string) error
	ForgetStartup(name, location string) error
	IsStartupDisabled(name, location string) bool
}

// Manager reads and toggles startup items.
type Manager struct {
	reg        registryStore
	svcSource  serviceSource
	services   ServiceConfigurer
	journal    Recorder
	run        cmd.Runner
	startupDir string
}

// NewManager returns a Manager. svc and rec may be nil; service items are
// then listed but cannot be toggled.
func NewManager(svc ServiceConfigurer, rec Recorder) *Manager {
	return &Manager{
		reg:        newRegistryStore(),
		svcSource:  newServiceSource(),
		services:   svc,
		journal:    rec,
		run:        cmd.Output,
		startupDir: defaultStartupDir(),
	}
}

func defaultStartupDir() string {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup")
}

// Items collects startup items from every source, sorted by display name.
// A source that cannot be read is skipped.
func (m *Manager) Items(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0, 32)

	for _, src := range []struct {
		hive     Hive
		location Location
	}{{HKCU, LocationHKCU}, {HKLM, LocationHKLM}} {
		for _, key := range []struct {
			path    string
			enabled bool
		}{{runKey, true}, {disabledKey, false}} {
			found, err := m.readRun(src.hive, key.path, src.location, key.enabled)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					slog.Debug("failed to read run key", "location", src.location, "key", key.path, "error", err)
				}
				continue
			}
			items = append(items, found...)
		}
	}

	if found, err := m.readStartupFolder(); err == nil {
		items = append(items, found...)
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("failed to read startup folder", "dir", m.startupDir, "error", err)
	}

	if found, err := m.readTasks(ctx); err == nil {
		items = append(items, found...)
	} else {
		slog.Debug("failed to read scheduled tasks", "error", err)
	}

	if found, err := m.readServices(ctx); err == nil {
		items = append(items, found...)
	} else {
		slog.Debug("failed to read startup services", "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Impact = EstimateImpact(items[i])
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].DisplayName), strings.ToLower(items[j].DisplayName)
		if a != b {
			return a < b
		}
		return items[i].Location < items[j].Location
	})
	return items, nil
}

func (m *Manager) readRun(h Hive, path string, location Location, enabled bool) ([]Item, error) {
	values, err := m.reg.list(h, path)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(values))
	for name, v := range values {
		// Our own autostart entry is managed from settings.
		if h == HKCU && name == SelfValueName {
			continue
		}
		items = append(items, Item{
			Name:         name,
			DisplayName:  name,
			Command:      v.data,
			Publisher:    extractPublisher(v.data),
			Description:  filepath.Base(extractExePath(v.data)),
			Location:     location,
			LocationPath: path,
			Enabled:      enabled,
		})
	}
	return items, nil
}

func (m *Manager) readStartupFolder() ([]Item, error) {
	if m.startupDir == "" {
		return nil, fs.ErrNotExist
	}
	entries, err := os.ReadDir(m.startupDir)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || strings.EqualFold(entry.Name(), "desktop.ini") {
			continue
		}
		fileName := entry.Name()
		enabled := !strings.HasSuffix(fileName, disabledSuffix)
		name := strings.TrimSuffix(fileName, disabledSuffix)
		fullPath := filepath.Join(m.startupDir, fileName)

		items = append(items, Item{
			Name:         name,
			DisplayName:  strings.TrimSuffix(name, filepath.Ext(name)),
			Command:      filepath.Join(m.startupDir, name),
			Publisher:    extractPublisher(name),
			Description:  "Shortcut in the Startup folder",
			Location:     LocationStartupFolder,
			LocationPath: fullPath,
			Enabled:      enabled,
		})
	}
	return items, nil
}

func (m *Manager) readTasks(ctx context.Context) ([]Item, error) {
	out, err := m.run(ctx, "schtasks", "/query", "/fo", "CSV", "/nh")
	if err != nil {
		return nil, err
	}
	return parseTasks(string(out)), nil
}

// parseTasks reads `schtasks /query /fo CSV /nh` output: TaskName, Next
// Run Time, Status. Only tasks that look startup related are kept.
func parseTasks(output string) []Item {
	r := csv.NewReader(strings.NewReader(output))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	seen := make(map[string]bool)
	var items []Item
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if len(rec) < 3 {
			continue
		}
		taskName := strings.TrimSpace(rec[0])
		if taskName == "" || taskName == "TaskName" || seen[taskName] || !isStartupTask(taskName) {
			continue
		}
		seen[taskName] = true

		base := taskName[strings.LastIndex(taskName, `\`)+1:]
		items = append(items, Item{
			Name:         base,
			DisplayName:  base,
			Command:      taskName,
			Publisher:    extractPublisher(taskName),
			Description:  "Scheduled task",
			Location:     LocationTaskScheduler,
			LocationPath: taskName,
			Enabled:      !strings.EqualFold(strings.TrimSpace(rec[2]), "Disabled"),
		})
	}
	return items
}

// isStartupTask reports whether a scheduled task is likely a startup item.
func isStartupTask(taskName string) bool {
	lower := strings.ToLower(taskName)
	for _, keyword := range []string{
		"startup", "logon", "boot", "autostart",
		"update", "updater", "helper",
		"google", "adobe", "microsoft", "mozilla",
		"brave", "opera", "spotify", "discord", "steam",
	} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func (m *Manager) readServices(ctx context.Context) ([]Item, error) {
	entries, err := m.svcSource.startupServices(ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, e := range entries {
		enabled := true
		switch services.ParseStartType(e.StartMode) {
		case services.StartAutomatic, services.StartAutomaticDelayed:
		case services.StartDisabled:
			// Only services this tool switched off are offered for re-enabling.
			if m.journal == nil || !m.journal.IsStartupDisabled(e.Name, string(LocationService)) {
				continue
			}
			enabled = false
		default:
			continue
		}

		display := e.DisplayName
		if display == "" {
			display = e.Name
		}
		items = append(items, Item{
			Name:         e.Name,
			DisplayName:  display,
			Command:      e.PathName,
			Publisher:    extractPublisher(e.PathName),
			Description:  "Service - " + e.StartMode,
			Location:     LocationService,
			LocationPath: "Service: " + e.Name,
			Enabled:      enabled,
		})
	}
	return items, nil
}

// Disable stops item from starting at logon. Disabling a disabled item is
// a no-op.
func (m *Manager) Disable(ctx context.Context, item Item) error {
	if !item.Enabled {
		return nil
	}

	var err error
	switch item.Location {
	case LocationHKCU:
		err = m.moveValue(HKCU, runKey, disabledKey, item.Name)
	case LocationHKLM:
		err = m.moveValue(HKLM, runKey, disabledKey, item.Name)
	case LocationStartupFolder:
		err = os.Rename(item.LocationPath, item.LocationPath+disabledSuffix)
	case LocationTaskScheduler:
		err = m.changeTask(ctx, item.LocationPath, "/Disable")
	case LocationService:
		err = m.setServiceStart(ctx, item.Name, services.StartDisabled)
	default:
		return fmt.Errorf("unknown location: %s", item.Location)
	}
	if err != nil {
		return fmt.Errorf("failed to disable %s: %w", item.DisplayName, err)
	}

	if m.journal != nil {
		if err := m.journal.RecordStartupDisabled(item.Name, string(item.Location)); err != nil {
			slog.Warn("failed to journal disabled startup item", "name", item.Name, "error", err)
		}
	}
	slog.Info("startup item disabled", "name", item.Name, "location", item.Location)
	return nil
}

// Enable restores a disabled item. Enabling an enabled item is a no-op.
func (m *Manager) Enable(ctx context.Context, item Item) error {
	if item.Enabled {
		return nil
	}

	var err error
	switch item.Location {
	case LocationHKCU:
		err = m.moveValue(HKCU, disabledKey, runKey, item.Name)
	case LocationHKLM:
		err = m.moveValue(HKLM, disabledKey, runKey, item.Name)
	case LocationStartupFolder:
		disabledPath := item.LocationPath
		if !strings.HasSuffix(disabledPath, disabledSuffix) {
			disabledPath += disabledSuffix
		}
		err = os.Rename(disabledPath, strings.TrimSuffix(disabledPath, disabledSuffix))
	case LocationTaskScheduler:
		err = m.changeTask(ctx, item.LocationPath, "/Enable")
	case LocationService:
		err = m.setServiceStart(ctx, item.Name, services.StartAutomatic)
	default:
		return fmt.Errorf("unknown location: %s", item.Location)
	}
	if err != nil {
		return fmt.Errorf("failed to enable %s: %w", item.DisplayName, err)
	}

	if m.journal != nil {
		if err := m.journal.ForgetStartup(item.Name, string(item.Location)); err != nil {
			slog.Warn("failed to update journal", "name", item.Name, "error", err)
		}
	}
	slog.Info("startup item enabled", "name", item.Name, "location", item.Location)
	return nil
}

// moveValue copies a Run value to another key and deletes the original.
func (m *Manager) moveValue(h Hive, from, to, name string) error {
	v, err := m.reg.get(h, from, name)
	if err != nil {
		return fmt.Errorf("read value %s: %w", name, err)
	}
	if err := m.reg.set(h, to, name, v); err != nil {
		return fmt.Errorf("write value %s: %w", name, err)
	}
	if err := m.reg.remove(h, from, name); err != nil {
		return fmt.Errorf("delete value %s: %w", name, err)
	}
	return nil
}

func (m *Manager) changeTask(ctx context.Context, task, flag string) error {
	out, err := m.run(ctx, "schtasks", "/Change", "/TN", task, flag)
	if err != nil {
		return fmt.Errorf("%w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (m *Manager) setServiceStart(ctx context.Context, name string, t services.StartType) error {
	if m.services == nil {
		return errors.New("service control is not available")
	}
	return m.services.SetStartType(ctx, name, t)
}

// SelfEnabled reports whether this tool starts with Windows.
func (m *Manager) SelfEnabled() (bool, error) {
	_, err := m.reg.get(HKCU, runKey, SelfValueName)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnableSelf registers exe to start with Windows.
func (m *Manager) EnableSelf(exe string) error {
	if exe == "" {
		return errors.New("empty executable path")
	}
	return m.reg.set(HKCU, runKey, SelfValueName, regValue{data: `"` + exe + `"`})
}

// DisableSelf removes the autostart entry. A missing entry is not an error.
func (m *Manager) DisableSelf() error {
	err := m.reg.remove(HKCU, runKey, SelfValueName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SyncSelf makes the autostart entry match enabled.
func (m *Manager) SyncSelf(enabled bool) error {
	if !enabled {
		return m.DisableSelf()
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	return m.EnableSelf(exe)
}

// knownImpact maps executable names (lower-case) to their startup impact.
var knownImpact = map[string]Impact{
	"teams.exe":                 ImpactHigh,
	"msteams.exe":               ImpactHigh,
	"onedrive.exe":              ImpactHigh,
	"spotify.exe":               ImpactMedium,
	"discord.exe":               ImpactMedium,
	"slack.exe":                 ImpactHigh,
	"skype.exe":                 ImpactMedium,
	"steam.exe":                 ImpactMedium,
	"epicgameslauncher.exe":     ImpactMedium,
	"googledrivefs.exe":         ImpactHigh,
	"dropbox.exe":               ImpactHigh,
	"adobearm.exe":              ImpactLow,
	"ccleaner.exe":              ImpactLow,
	"ituneshelper.exe":          ImpactMedium,
	"msedge.exe":                ImpactHigh,
	"chrome.exe":                ImpactHigh,
	"firefox.exe":               ImpactHigh,
	"brave.exe":                 ImpactHigh,
	"opera.exe":                 ImpactHigh,
	"zoom.exe":                  ImpactMedium,
	"nordvpn.exe":               ImpactMedium,
	"razer synapse.exe":         ImpactMedium,
	"icue.exe":                  ImpactHigh,
	"lghub.exe":                 ImpactMedium,
	"wallpaperengine.exe":       ImpactHigh,
	"securityhealthsystray.exe": ImpactLow,
	"jusched.exe":               ImpactLow,
	"realtekhdaudiomanager.exe": ImpactLow,
}

// EstimateImpact rates how much item slows down logon. Services rate high
// and scheduled tasks medium. Programs are rated from a table of known
// executables, then by file size.
func EstimateImpact(item Item) Impact {
	switch item.Location {
	case LocationService:
		return ImpactHigh
	case LocationTaskScheduler:
		return ImpactMedium
	}

	exePath := extractExePath(item.Command)
	if exePath == "" {
		return ImpactUnknown
	}
	if impact, ok := knownImpact[strings.ToLower(baseName(exePath))]; ok {
		return impact
	}

	info, err := os.Stat(exePath)
	if err != nil {
		return ImpactUnknown
	}
	switch size := info.Size(); {
	case size > 50*1024*1024:
		return ImpactHigh
	case size > 10*1024*1024:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// EstimateBootTime adds up the delay of every enabled item.
func EstimateBootTime(items []Item) time.Duration {
	var total time.Duration
	for _, item := range items {
		if !item.Enabled {
			continue
		}
		switch item.Impact {
		case ImpactHigh:
			total += 5 * time.Second
		case ImpactMedium:
			total += 2 * time.Second
		case ImpactLow:
			total += 500 * time.Millisecond
		default:
			total += time.Second
		}
	}
	return total
}

// baseName is filepath.Base for Windows paths on any platform.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// extractExePath extracts the executable from a command line that may
// include arguments.
func extractExePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if raw[0] == '"' {
		if end := strings.Index(raw[1:], `"`); end >= 0 {
			return raw[1 : end+1]
		}
		return strings.Trim(raw, `"`)
	}

	lower := strings.ToLower(raw)
	if idx := strings.Index(lower, ".exe"); idx >= 0 {
		return raw[:idx+4]
	}

	if parts := strings.Fields(raw); len(parts) > 0 {
		return parts[0]
	}
	return raw
}

// publishers is checked in order; the first keyword found in the
// executable path wins.
var publishers = []struct {
	keyword   string
	publisher string
}{
	{"microsoft", "Microsoft Corporation"},
	{"onedrive", "Microsoft Corporation"},
	{"google", "Google LLC"},
	{"adobe", "Adobe Inc."},
	{"mozilla", "Mozilla Foundation"},
	{"valve", "Valve Corporation"},
	{"steam", "Valve Corporation"},
	{"epic games", "Epic Games Inc."},
	{"discord", "Discord Inc."},
	{"spotify", "Spotify AB"},
	{"slack", "Salesforce (Slack)"},
	{"zoom", "Zoom Video Communications"},
	{"nvidia", "NVIDIA Corporation"},
	{`\amd\`, "AMD Inc."},
	{"intel", "Intel Corporation"},
	{"realtek", "Realtek Semiconductor"},
	{"logitech", "Logitech International"},
	{"razer", "Razer Inc."},
	{"corsair", "Corsair Components"},
	{"brave", "Brave Software"},
	{"opera", "Opera Software"},
	{"dropbox", "Dropbox Inc."},
}

// extractPublisher guesses a publisher from the executable path.
func extractPublisher(rawPath string) string {
	lower := strings.ToLower(extractExePath(rawPath))
	for _, p := range publishers {
		if strings.Contains(lower, p.keyword) {
			return p.publisher
		}
	}
	return ""
}
