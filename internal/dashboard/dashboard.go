// Package dashboard gathers the overview shown on the main screen and keeps
// it fresh on a timer.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pcmanager/internal/diskscan"
	"pcmanager/internal/memory"
	"pcmanager/internal/power"
	"pcmanager/internal/settings"
	"pcmanager/internal/system"
)

// cpuWindow is how long CPU usage is sampled per refresh.
const cpuWindow = 500 * time.Millisecond

// Cards says which overview cards are visible.
type Cards struct {
	CPU    bool `json:"cpu"`
	Memory bool `json:"memory"`
	Disk   bool `json:"disk"`
	Power  bool `json:"power"`
}

// Snapshot is one refresh of the overview. Readings that fail are left at
// their zero value.
type Snapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	System    system.Info         `json:"system"`
	Uptime    time.Duration       `json:"uptime"`
	CPUUsage  float64             `json:"cpuUsage"`
	Memory    memory.MemoryStatus `json:"memory"`
	Drives    []diskscan.Drive    `json:"drives"`
	DiskTotal uint64              `json:"diskTotal"`
	DiskFree  uint64              `json:"diskFree"`
	PowerPlan string              `json:"powerPlan"`
	Cards     Cards               `json:"cards"`
	Trimmed   int                 `json:"trimmed"`
}

// DiskUsed returns the bytes used across all fixed drives.
func (s Snapshot) DiskUsed() uint64 {
	if s.DiskFree > s.DiskTotal {
		return 0
	}
	return s.DiskTotal - s.DiskFree
}

// Sources are the readers a Dashboard pulls from.
type Sources struct {
	Info      func(ctx context.Context) system.Info
	Uptime    func(ctx context.Context) (time.Duration, error)
	CPU       func(ctx context.Context) (float64, error)
	Memory    func() (*memory.MemoryStatus, error)
	Drives    func(ctx context.Context) ([]diskscan.Drive, error)
	PowerPlan func(ctx context.Context) (power.Plan, error)
	Trim      func(ctx context.Context) (int, error)
}

// DefaultSources reads from the live machine.
func DefaultSources(pm *power.Manager) Sources {
	return Sources{
		Info:   system.GetInfo,
		Uptime: system.Uptime,
		CPU:    func(ctx context.Context) (float64, error) { return system.CPUUsage(ctx, cpuWindow) },
		Memory: memory.GetMemoryStatus,
		Drives: diskscan.Drives,
		PowerPlan: func(ctx context.Context) (power.Plan, error) {
			return pm.Active(ctx)
		},
		Trim: memory.TrimAll,
	}
}

// Dashboard builds snapshots using the current settings.
type Dashboard struct {
	src Sources

	mu  sync.RWMutex
	cfg settings.Settings

	busy atomic.Bool
}

// New returns a Dashboard reading from src.
func New(src Sources, cfg settings.Settings) *Dashboard {
	return &Dashboard{src: src, cfg: cfg}
}

// Update swaps the settings used by later refreshes.
func (d *Dashboard) Update(cfg settings.Settings) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

func (d *Dashboard) settings() settings.Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Snapshot reads every source once. Only a cancelled context is an error;
// individual readings that fail are logged and skipped.
func (d *Dashboard) Snapshot(ctx context.Context) (Snapshot, error) {
	cfg := d.settings()
	snap := Snapshot{
		Timestamp: time.Now(),
		Cards: Cards{
			CPU:    cfg.ShowCPUCard,
			Memory: cfg.ShowMemoryCard,
			Disk:   cfg.ShowDiskCard,
			Power:  cfg.ShowPowerCard,
		},
	}

	if d.src.Info != nil {
		snap.System = d.src.Info(ctx)
	}
	if d.src.Uptime != nil {
		if up, err := d.src.Uptime(ctx); err == nil {
			snap.Uptime = up
		}
	}
	if d.src.CPU != nil {
		if usage, err := d.src.CPU(ctx); err == nil {
			snap.CPUUsage = usage
		} else {
			slog.Debug("cpu usage unavailable", "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	if d.src.Memory != nil {
		if status, err := d.src.Memory(); err == nil {
			snap.Memory = *status
		} else {
			slog.Debug("memory status unavailable", "error", err)
		}
	}

	if d.src.Drives != nil {
		if drives, err := d.src.Drives(ctx); err == nil {
			snap.Drives = drives
			for _, dr := range drives {
				snap.DiskTotal += dr.Total
				snap.DiskFree += dr.Free
			}
		} else {
			slog.Debug("drive usage unavailable", "error", err)
		}
	}

	if d.src.PowerPlan != nil {
		if plan, err := d.src.PowerPlan(ctx); err == nil {
			snap.PowerPlan = plan.Name
		} else {
			slog.Debug("active power plan unavailable", "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	snap.Trimmed = d.autoRAMCleanup(ctx, cfg, snap.Memory)
	return snap, nil
}

// autoRAMCleanup trims working sets when enabled and used memory is above
// the configured threshold. It returns the number of processes trimmed.
func (d *Dashboard) autoRAMCleanup(ctx context.Context, cfg settings.Settings, status memory.MemoryStatus) int {
	if !cfg.AutoRAMCleanupEnabled || d.src.Trim == nil || status.Total == 0 {
		return 0
	}
	threshold := uint64(cfg.RAMCleanupThresholdMB) * 1024 * 1024
	if status.Used <= threshold {
		return 0
	}

	n, err := d.src.Trim(ctx)
	if err != nil {
		// Without elevation this fails on every tick; keep it out of stderr.
		if errors.Is(err, memory.ErrNotAdmin) || errors.Is(err, memory.ErrNothingTrimmed) {
			slog.Debug("automatic RAM cleanup skipped", "error", err)
			return 0
		}
		slog.Warn("automatic RAM cleanup failed", "error", err)
		return 0
	}
	slog.Info("automatic RAM cleanup", "usedBytes", status.Used, "thresholdMB", cfg.RAMCleanupThresholdMB, "trimmed", n)
	return n
}

// Watch calls fn with a fresh snapshot right away and then on every tick
// of interval until ctx is done. A tick that arrives while a refresh is
// still running is dropped. Watch returns once any in-flight refresh has
// finished.
func (d *Dashboard) Watch(ctx context.Context, interval time.Duration, fn func(Snapshot)) {
	if interval <= 0 {
		interval = time.Duration(settings.Default().RefreshIntervalSeconds) * time.Second
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	refresh := func() {
		if !d.busy.CompareAndSwap(false, true) {
			slog.Debug("dashboard refresh still running, tick dropped")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer d.busy.Store(false)
			snap, err := d.Snapshot(ctx)
			if err != nil {
				return
			}
			fn(snap)
		}()
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// Interval returns the refresh interval from settings.
func Interval(cfg settings.Settings) time.Duration {
	cfg.Normalize()
	return time.Duration(cfg.RefreshIntervalSeconds) * time.Second
}
