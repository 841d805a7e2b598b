package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
)

// CleanableProcess is a running application from the catalog. All
// instances sharing a name are folded into one entry.
type CleanableProcess struct {
	Name     string  `json:"name"`
	PIDs     []int32 `json:"pids"`
	MemoryMB float64 `json:"memoryMB"`
	Selected bool    `json:"selected"`
	Classification
}

// TerminateResult summarizes a Terminate call.
type TerminateResult struct {
	Terminated int     `json:"terminated"`
	Failed     int     `json:"failed"`
	FreedMB    float64 `json:"freedMB"`
}

// classifyRunning folds a process snapshot into catalog entries, largest
// first. Only safe entries start out selected.
func classifyRunning(list []ProcessMemory) []CleanableProcess {
	byName := make(map[string]*CleanableProcess)
	var order []string
	for _, p := range list {
		c, ok := Classify(p.Name)
		if !ok || IsCriticalProcess(p.Name) {
			continue
		}
		key := baseName(p.Name)
		entry, exists := byName[key]
		if !exists {
			entry = &CleanableProcess{
				Name:           p.Name,
				Selected:       c.Risk == RiskSafe,
				Classification: c,
			}
			byName[key] = entry
			order = append(order, key)
		}
		entry.PIDs = append(entry.PIDs, p.PID)
		entry.MemoryMB += float64(p.Memory) / (1024 * 1024)
	}

	out := make([]CleanableProcess, 0, len(order))
	for _, key := range order {
		out = append(out, *byName[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MemoryMB > out[j].MemoryMB
	})
	return out
}

// AnalyzeUnnecessary finds running processes that appear in the catalog.
func AnalyzeUnnecessary(ctx context.Context) ([]CleanableProcess, error) {
	list, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return classifyRunning(list), nil
}

// killer ends one process. Swapped out in tests.
var killer = func(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}

// Terminate kills every instance of each selected process. An entry counts
// as terminated when at least one of its instances was killed.
func Terminate(ctx context.Context, procs []CleanableProcess) (TerminateResult, error) {
	var result TerminateResult
	self := int32(os.Getpid())

	for _, p := range procs {
		if !p.Selected {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var killed int
		for _, pid := range p.PIDs {
			if pid == self {
				continue
			}
			if err := killer(ctx, pid); err != nil {
				slog.Debug("failed to terminate process", "name", p.Name, "pid", pid, "error", err)
				continue
			}
			killed++
		}

		if killed == 0 {
			result.Failed++
			continue
		}
		result.Terminated++
		result.FreedMB += p.MemoryMB * float64(killed) / float64(len(p.PIDs))
	}

	slog.Info("terminated background processes", "terminated", result.Terminated, "failed", result.Failed, "freedMB", fmt.Sprintf("%.1f", result.FreedMB))
	return result, nil
}

// AutoCleanSafe terminates every running catalog entry rated safe.
func AutoCleanSafe(ctx context.Context) (TerminateResult, error) {
	procs, err := AnalyzeUnnecessary(ctx)
	if err != nil {
		return TerminateResult{}, err
	}
	safe := procs[:0]
	for _, p := range procs {
		if p.Risk == RiskSafe {
			p.Selected = true
			safe = append(safe, p)
		}
	}
	return Terminate(ctx, safe)
}
