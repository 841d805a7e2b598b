package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"pcmanager/internal/cleanup"
	"pcmanager/internal/dashboard"
	"pcmanager/internal/diskscan"
	"pcmanager/internal/journal"
	"pcmanager/internal/logging"
	"pcmanager/internal/memory"
	"pcmanager/internal/power"
	"pcmanager/internal/services"
	"pcmanager/internal/settings"
	"pcmanager/internal/startup"
	"pcmanager/internal/system"
)

type App struct {
	ctx context.Context

	store *settings.Store
	mu    sync.RWMutex
	cfg   settings.Settings

	logCloser io.Closer

	journal    *journal.Journal
	services   *services.Manager
	power      *power.Manager
	startupMgr *startup.Manager
	cleaner    *cleanup.Cleaner
	scanner    *diskscan.Scanner
	dashboard  *dashboard.Dashboard
}

func NewApp() *App {
	store := settings.DefaultStore()
	cfg := store.Load()

	a := &App{
		store:     store,
		cfg:       cfg,
		logCloser: logging.Setup(cfg),
		cleaner:   cleanup.New(),
		scanner:   diskscan.NewScanner(),
	}

	j, err := journal.Open(journal.DefaultPath())
	if err != nil {
		// Keep the damaged file for inspection; changes are not journaled.
		slog.Error("change journal unreadable, restore is unavailable", "path", journal.DefaultPath(), "error", err)
		a.services = services.NewManager(nil)
		a.power = power.NewManager(nil)
		a.startupMgr = startup.NewManager(a.services, nil)
	} else {
		a.journal = j
		a.services = services.NewManager(j)
		a.power = power.NewManager(j)
		a.startupMgr = startup.NewManager(a.services, j)
	}

	a.dashboard = dashboard.New(dashboard.DefaultSources(a.power), cfg)
	return a
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	slog.Info("starting", "version", Version, "admin", system.IsAdmin())

	if a.Settings().AutoCleanupOnStartup {
		res, err := a.QuickClean()
		if err != nil {
			slog.Warn("startup cleanup failed", "error", err)
		} else {
			slog.Info("startup cleanup", "bytesFreed", res.BytesFreed, "files", res.FilesDeleted)
		}
	}
}

func (a *App) shutdown() {
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

// ============================================================
// Dashboard
// ============================================================

func (a *App) Snapshot() (dashboard.Snapshot, error) {
	return a.dashboard.Snapshot(a.ctx)
}

// WatchDashboard refreshes until ctx is done using the configured interval.
func (a *App) WatchDashboard(ctx context.Context, fn func(dashboard.Snapshot)) {
	a.dashboard.Watch(ctx, dashboard.Interval(a.Settings()), fn)
}

func (a *App) SystemInfo() system.Info {
	return system.GetInfo(a.ctx)
}

// ============================================================
// Memory
// ============================================================

func (a *App) MemoryStatus() (*memory.MemoryStatus, error) {
	return memory.GetMemoryStatus()
}

func (a *App) TopProcesses(n int) ([]memory.ProcessMemory, error) {
	return memory.TopProcesses(a.ctx, n)
}

func (a *App) ProcessUsage() ([]memory.ProcessMemory, error) {
	return memory.ProcessUsage(a.ctx)
}

func (a *App) MemoryLeaks() ([]memory.ProcessMemory, error) {
	return memory.DetectMemoryLeaks(a.ctx)
}

func (a *App) TrimProcess(pid int32) error {
	return memory.TrimProcess(pid)
}

func (a *App) TrimMemory() (int, error) {
	return memory.TrimAll(a.ctx)
}

func (a *App) UnnecessaryProcesses() ([]memory.CleanableProcess, error) {
	return memory.AnalyzeUnnecessary(a.ctx)
}

func (a *App) TerminateProcesses(procs []memory.CleanableProcess) (memory.TerminateResult, error) {
	return memory.Terminate(a.ctx, procs)
}

func (a *App) AutoCleanSafe() (memory.TerminateResult, error) {
	return memory.AutoCleanSafe(a.ctx)
}

// ============================================================
// Disk Analyzer
// ============================================================

func (a *App) Drives() ([]diskscan.Drive, error) {
	return diskscan.Drives(a.ctx)
}

func (a *App) FolderSizes(ctx context.Context, root string, depth int) ([]diskscan.FolderSize, diskscan.Stats, error) {
	return a.scanner.FolderSizes(ctx, root, depth)
}

func (a *App) LargeFiles(ctx context.Context, root string, minSize int64) ([]diskscan.LargeFile, diskscan.Stats, error) {
	return a.scanner.LargeFiles(ctx, root, minSize)
}

func (a *App) FolderTotal(ctx context.Context, root string) (int64, diskscan.Stats, error) {
	return a.scanner.FolderTotal(ctx, root)
}

// ============================================================
// Services
// ============================================================

func (a *App) Services() ([]services.Service, error) {
	return a.services.List(a.ctx)
}

func (a *App) AutoStartServices() ([]services.Service, error) {
	return a.services.AutoStart(a.ctx)
}

func (a *App) StartService(name string) error {
	return a.services.Start(a.ctx, name)
}

func (a *App) StopService(name string) error {
	return a.services.Stop(a.ctx, name)
}

func (a *App) SetServiceStartType(name string, t services.StartType) error {
	return a.services.SetStartType(a.ctx, name, t)
}

// ============================================================
// Startup
// ============================================================

func (a *App) StartupItems() ([]startup.Item, error) {
	return a.startupMgr.Items(a.ctx)
}

func (a *App) DisableStartupItem(item startup.Item) error {
	return a.startupMgr.Disable(a.ctx, item)
}

func (a *App) EnableStartupItem(item startup.Item) error {
	return a.startupMgr.Enable(a.ctx, item)
}

// ============================================================
// Power
// ============================================================

func (a *App) PowerPlans() ([]power.Plan, error) {
	return a.power.Plans(a.ctx)
}

func (a *App) ActivePowerPlan() (power.Plan, error) {
	return a.power.Active(a.ctx)
}

func (a *App) SetPowerPlan(guid string) error {
	return a.power.SetActive(a.ctx, guid)
}

func (a *App) SetPowerPlanByName(name string) (power.Plan, error) {
	return a.power.SetActiveByName(a.ctx, name)
}

func (a *App) EnableUltimatePerformance() (power.Plan, error) {
	return a.power.EnableUltimate(a.ctx)
}

// ============================================================
// Cleanup
// ============================================================

func (a *App) AnalyzeTemp() ([]cleanup.Item, error) {
	return a.cleaner.Analyze(a.ctx)
}

func (a *App) CleanTemp(items []cleanup.Item) (cleanup.Result, error) {
	return a.cleaner.Clean(a.ctx, items)
}

// QuickClean empties the preselected temp folders without asking.
func (a *App) QuickClean() (cleanup.Result, error) {
	items, err := a.cleaner.Analyze(a.ctx)
	if err != nil {
		return cleanup.Result{}, err
	}
	return a.cleaner.Clean(a.ctx, items)
}

// ============================================================
// Settings
// ============================================================

func (a *App) Settings() settings.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) SettingsPath() string {
	return a.store.Path()
}

// SaveSettings persists cfg and applies it: the dashboard picks up the
// new cards and thresholds, logging is reconfigured and the autostart
// entry follows startWithWindows.
func (a *App) SaveSettings(cfg settings.Settings) error {
	if err := a.store.Save(cfg); err != nil {
		return err
	}
	cfg.Normalize()
	a.apply(cfg)

	if err := a.syncAutostart(cfg.StartWithWindows); err != nil {
		return fmt.Errorf("settings saved but autostart was not updated: %w", err)
	}
	return nil
}

func (a *App) ResetSettings() (settings.Settings, error) {
	cfg, err := a.store.Reset()
	if err != nil {
		return a.Settings(), err
	}
	a.apply(cfg)
	return cfg, a.syncAutostart(cfg.StartWithWindows)
}

func (a *App) apply(cfg settings.Settings) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.dashboard.Update(cfg)
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	a.logCloser = logging.Setup(cfg)
}

func (a *App) syncAutostart(enabled bool) error {
	return a.startupMgr.SyncSelf(enabled)
}

// ============================================================
// Restore
// ============================================================

func (a *App) JournalState() (journal.State, bool) {
	if a.journal == nil {
		return journal.State{}, false
	}
	return a.journal.State(), true
}

// RestoreAll puts back the service start types and power plan recorded in
// the change journal.
func (a *App) RestoreAll() error {
	if a.journal == nil {
		return fmt.Errorf("change journal is not available")
	}
	return a.journal.RestoreAll(a.ctx)
}
