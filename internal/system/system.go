// Package system reports host facts that do not change while the tool runs.
package system

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

// ErrNotAdmin is returned by operations that need an elevated process.
var ErrNotAdmin = errors.New("administrator privileges required")

// Info holds static host details for the dashboard.
type Info struct {
	OS                string `json:"os"`
	Hostname          string `json:"hostname"`
	Platform          string `json:"platform"`
	CPUName           string `json:"cpuName"`
	CPUCores          int    `json:"cpuCores"`
	LogicalProcessors int    `json:"logicalProcessors"`
}

var (
	staticOnce sync.Once
	staticInfo Info
)

// GetInfo collects host details once and serves the cached copy afterwards.
// Fields that cannot be read are left empty.
func GetInfo(ctx context.Context) Info {
	staticOnce.Do(func() {
		s := Info{OS: runtime.GOOS, CPUName: "Unknown"}

		if hostInfo, err := host.InfoWithContext(ctx); err == nil {
			s.Hostname = hostInfo.Hostname
			s.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
		}
		if cpuInfos, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfos) > 0 {
			s.CPUName = cpuInfos[0].ModelName
		}
		if n, err := cpu.CountsWithContext(ctx, false); err == nil {
			s.CPUCores = n
		}
		if n, err := cpu.CountsWithContext(ctx, true); err == nil {
			s.LogicalProcessors = n
		}

		staticInfo = s
	})
	return staticInfo
}

// CPUUsage samples aggregate CPU usage over the given window.
func CPUUsage(ctx context.Context, window time.Duration) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("no CPU usage data returned")
	}
	return Round(percentages[0], 2), nil
}

// Uptime returns how long the machine has been running.
func Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get uptime: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

// Round rounds val to the given number of decimal places.
func Round(val float64, places int) float64 {
	factor := 1.0
	for i := 0; i < places; i++ {
		factor *= 10
	}
	if val < 0 {
		return -float64(int64(-val*factor+0.5)) / factor
	}
	return float64(int64(val*factor+0.5)) / factor
}
