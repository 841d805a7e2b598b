// Package memory reads RAM usage, trims process working sets and closes
// known background applications.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"pcmanager/internal/system"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// MinListedWorkingSet is the working set a process needs to appear in
// ProcessUsage.
const MinListedWorkingSet uint64 = 50 * 1024 * 1024

// LeakThreshold is the working set above which a non-system process is
// reported by DetectMemoryLeaks.
const LeakThreshold uint64 = 500 * 1024 * 1024

var (
	// ErrNotAdmin is returned by trimming operations run without elevation.
	ErrNotAdmin = system.ErrNotAdmin
	// ErrNothingTrimmed means no process working set could be trimmed.
	ErrNothingTrimmed = errors.New("no process working set was trimmed")
	// ErrSelf is returned when asked to act on the current process.
	ErrSelf = errors.New("refusing to act on the current process")
	// ErrUnsupported is returned on platforms without working-set control.
	ErrUnsupported = errors.New("working set trimming is not supported on this platform")
)

// MemoryStatus is a point-in-time view of physical memory.
type MemoryStatus struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	Available    uint64  `json:"available"`
	UsagePercent float64 `json:"usagePercent"`
}

// FreePercent returns the available share of memory in the 0-100 range.
func (s MemoryStatus) FreePercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return system.Round(float64(s.Available)/float64(s.Total)*100, 2)
}

// ProcessMemory is a working-set reading for one process.
type ProcessMemory struct {
	Name    string  `json:"name"`
	PID     int32   `json:"pid"`
	Memory  uint64  `json:"memory"`
	Percent float64 `json:"percent"`
}

// criticalProcesses are core Windows processes that are never listed,
// keyed by lower-case name without the .exe suffix.
var criticalProcesses = map[string]bool{
	"idle":                  true,
	"system":                true,
	"system idle process":   true,
	"registry":              true,
	"memory compression":    true,
	"secure system":         true,
	"smss":                  true,
	"csrss":                 true,
	"wininit":               true,
	"winlogon":              true,
	"services":              true,
	"lsass":                 true,
	"lsaiso":                true,
	"svchost":               true,
	"spoolsv":               true,
	"explorer":              true,
	"dwm":                   true,
	"conhost":               true,
	"audiodg":               true,
	"dllhost":               true,
	"taskhost":              true,
	"taskhostw":             true,
	"sihost":                true,
	"fontdrvhost":           true,
	"runtimebroker":         true,
	"searchindexer":         true,
	"searchprotocolhost":    true,
	"searchfilterhost":      true,
	"wmiprvse":              true,
	"wmiapsrv":              true,
	"msmpeng":               true,
	"nissrv":                true,
	"securityhealthservice": true,
	"wudfhost":              true,
	"ctfmon":                true,
}

// baseName lower-cases a process name and drops a trailing .exe.
func baseName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// IsCriticalProcess reports whether name is a core Windows process.
func IsCriticalProcess(name string) bool {
	return criticalProcesses[baseName(name)]
}

// GetMemoryStatus reads current physical memory usage.
func GetMemoryStatus() (*MemoryStatus, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual memory stats: %w", err)
	}
	return &MemoryStatus{
		Total:        vm.Total,
		Used:         vm.Used,
		Free:         vm.Free,
		Available:    vm.Available,
		UsagePercent: system.Round(vm.UsedPercent, 2),
	}, nil
}

// snapshot reads name and working set for every process we can open.
// Processes that vanish or deny access mid-read are skipped.
func snapshot(ctx context.Context) ([]ProcessMemory, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var total uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		total = vm.Total
	}

	list := make([]ProcessMemory, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		info, err := p.MemoryInfoWithContext(ctx)
		if err != nil || info == nil || info.RSS == 0 {
			continue
		}

		var pct float64
		if total > 0 {
			pct = system.Round(float64(info.RSS)/float64(total)*100, 2)
		}
		list = append(list, ProcessMemory{Name: name, PID: p.Pid, Memory: info.RSS, Percent: pct})
	}
	return list, nil
}

func sortByMemory(list []ProcessMemory) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Memory != list[j].Memory {
			return list[i].Memory > list[j].Memory
		}
		return list[i].PID < list[j].PID
	})
}

// filterListed keeps non-critical processes at or above MinListedWorkingSet.
func filterListed(list []ProcessMemory) []ProcessMemory {
	out := make([]ProcessMemory, 0, len(list))
	for _, p := range list {
		if IsCriticalProcess(p.Name) || p.Memory < MinListedWorkingSet {
			continue
		}
		out = append(out, p)
	}
	sortByMemory(out)
	return out
}

// ProcessUsage lists non-critical processes with a working set of at least
// MinListedWorkingSet, largest first.
func ProcessUsage(ctx context.Context) ([]ProcessMemory, error) {
	list, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return filterListed(list), nil
}

// TopProcesses returns the count largest processes by working set.
func TopProcesses(ctx context.Context, count int) ([]ProcessMemory, error) {
	list, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sortByMemory(list)
	count = max(0, min(count, len(list)))
	return list[:count], nil
}

// DetectMemoryLeaks lists non-system processes above LeakThreshold.
func DetectMemoryLeaks(ctx context.Context) ([]ProcessMemory, error) {
	list, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var suspects []ProcessMemory
	for _, p := range list {
		if IsCriticalProcess(p.Name) || p.Memory < LeakThreshold {
			continue
		}
		suspects = append(suspects, p)
	}
	sortByMemory(suspects)
	return suspects, nil
}

// trimmable reports whether TrimAll should touch the process.
func trimmable(pid int32, name string, self int32) bool {
	if pid == 0 || pid == 4 || pid == self {
		return false
	}
	switch baseName(name) {
	case "idle", "system", "system idle process":
		return false
	}
	return true
}

// TrimAll asks Windows to trim the working set of every process except
// Idle, System and this one. Pages are evicted, processes keep running.
// It returns the number of processes trimmed.
func TrimAll(ctx context.Context) (int, error) {
	if !system.IsAdmin() {
		return 0, ErrNotAdmin
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list processes: %w", err)
	}

	self := int32(os.Getpid())
	var trimmed int
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return trimmed, err
		}
		name, _ := p.NameWithContext(ctx)
		if !trimmable(p.Pid, name, self) {
			continue
		}
		if err := trimWorkingSet(uint32(p.Pid)); err != nil {
			slog.Debug("working set trim failed", "pid", p.Pid, "name", name, "error", err)
			continue
		}
		trimmed++
	}

	if trimmed == 0 {
		return 0, ErrNothingTrimmed
	}
	slog.Info("trimmed working sets", "processes", trimmed)
	return trimmed, nil
}

// TrimProcess trims the working set of a single process.
func TrimProcess(pid int32) error {
	if pid == int32(os.Getpid()) {
		return ErrSelf
	}
	if !system.IsAdmin() {
		return ErrNotAdmin
	}
	return trimWorkingSet(uint32(pid))
}
