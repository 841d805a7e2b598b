package diskscan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// DefaultLabel is shown for volumes without a label.
const DefaultLabel = "Local Disk"

// Drive is a point-in-time view of one fixed drive.
type Drive struct {
	Letter     string `json:"letter"`
	Label      string `json:"label"`
	FileSystem string `json:"fileSystem"`
	Total      uint64 `json:"total"`
	Free       uint64 `json:"free"`
}

// Used returns the bytes in use.
func (d Drive) Used() uint64 {
	if d.Free > d.Total {
		return 0
	}
	return d.Total - d.Free
}

// UsedPercent returns the used share of the drive in the 0-100 range.
func (d Drive) UsedPercent() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Used()) / float64(d.Total) * 100
}

// Drives lists the ready, fixed drives of the machine. A drive that fails
// to report usage is left out.
func Drives(ctx context.Context) ([]Drive, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	drives := []Drive{}
	seen := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		mount := p.Mountpoint
		if seen[mount] || !isFixedDrive(mount) {
			continue
		}
		seen[mount] = true

		usage, err := disk.UsageWithContext(ctx, mount)
		if err != nil {
			slog.Debug("skipping drive without usage data", "drive", mount, "error", err)
			continue
		}

		label := strings.TrimSpace(volumeLabel(mount))
		if label == "" {
			label = DefaultLabel
		}

		drives = append(drives, Drive{
			Letter:     driveLetter(mount),
			Label:      label,
			FileSystem: p.Fstype,
			Total:      usage.Total,
			Free:       usage.Free,
		})
	}
	return drives, nil
}

// driveLetter trims a mount point like `C:\` down to `C:`.
func driveLetter(mount string) string {
	if len(mount) >= 2 && mount[1] == ':' {
		return strings.ToUpper(mount[:2])
	}
	return mount
}
