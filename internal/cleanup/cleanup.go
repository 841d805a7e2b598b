// Package cleanup measures and empties temporary and cache folders.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Category groups cleanup targets.
type Category string

const (
	CategoryTemporary Category = "temporary"
	CategoryCache     Category = "cache"
)

// Item is a folder that can be emptied.
type Item struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Category    Category `json:"category"`
	Size        int64    `json:"size"`
	FileCount   int      `json:"fileCount"`
	Selected    bool     `json:"selected"`
}

// Result summarizes a Clean call.
type Result struct {
	BytesFreed   int64    `json:"bytesFreed"`
	FilesDeleted int      `json:"filesDeleted"`
	ItemsCleaned int      `json:"itemsCleaned"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message"`
}

// target is a folder the Cleaner knows about. Paths that resolve to ""
// are dropped.
type target struct {
	name        string
	description string
	path        string
	category    Category
	selected    bool
}

// Cleaner analyzes and empties a fixed set of folders.
type Cleaner struct {
	targets []target
}

// New returns a Cleaner for the current user's temp and cache folders.
func New() *Cleaner {
	return &Cleaner{targets: defaultTargets()}
}

func defaultTargets() []target {
	localAppData := os.Getenv("LOCALAPPDATA")
	join := func(base string, elem ...string) string {
		if base == "" {
			return ""
		}
		return filepath.Join(append([]string{base}, elem...)...)
	}

	targets := []target{
		{"Temporary Files", "Temp folder of the current process", os.TempDir(), CategoryTemporary, true},
		{"Windows Temp", "System-wide Windows temp folder", join(os.Getenv("WINDIR"), "Temp"), CategoryTemporary, true},
		{"User Temp", "Temp folder in your user profile", join(localAppData, "Temp"), CategoryTemporary, true},
		{"Chrome Cache", "Google Chrome browser cache", join(localAppData, "Google", "Chrome", "User Data", "Default", "Cache"), CategoryCache, false},
		{"Chrome Code Cache", "Google Chrome compiled script cache", join(localAppData, "Google", "Chrome", "User Data", "Default", "Code Cache"), CategoryCache, false},
		{"Edge Cache", "Microsoft Edge browser cache", join(localAppData, "Microsoft", "Edge", "User Data", "Default", "Cache"), CategoryCache, false},
		{"Edge Code Cache", "Microsoft Edge compiled script cache", join(localAppData, "Microsoft", "Edge", "User Data", "Default", "Code Cache"), CategoryCache, false},
	}

	if localAppData != "" {
		matches, _ := filepath.Glob(filepath.Join(localAppData, "Mozilla", "Firefox", "Profiles", "*", "cache2"))
		for _, m := range matches {
			profile := filepath.Base(filepath.Dir(m))
			targets = append(targets, target{"Firefox Cache (" + profile + ")", "Mozilla Firefox browser cache", m, CategoryCache, false})
		}
	}
	return targets
}

// Analyze measures every known folder that exists. Folders reached through
// more than one path are listed once.
func (c *Cleaner) Analyze(ctx context.Context) ([]Item, error) {
	seen := make(map[string]bool)
	items := make([]Item, 0, len(c.targets))

	for _, t := range c.targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.path == "" {
			continue
		}
		key := pathKey(t.path)
		if seen[key] {
			continue
		}

		info, err := os.Stat(t.path)
		if err != nil || !info.IsDir() {
			continue
		}
		seen[key] = true

		size, count, err := scanDirectory(ctx, t.path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Debug("cleanup target partly unreadable", "path", t.path, "error", err)
		}
		items = append(items, Item{
			Name:        t.name,
			Description: t.description,
			Path:        filepath.Clean(t.path),
			Category:    t.category,
			Size:        size,
			FileCount:   count,
			Selected:    t.selected,
		})
	}
	return items, nil
}

// Clean empties each selected item. The folders themselves are kept.
// Files that cannot be deleted are reported in Result.Errors and do not
// stop the run.
func (c *Cleaner) Clean(ctx context.Context, items []Item) (Result, error) {
	res := Result{Errors: []string{}}

	for _, item := range items {
		if !item.Selected {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Message = summary(res)
			return res, err
		}

		freed, deleted, errs := cleanPath(item.Path)
		res.BytesFreed += freed
		res.FilesDeleted += deleted
		res.Errors = append(res.Errors, errs...)
		if deleted > 0 || len(errs) == 0 {
			res.ItemsCleaned++
		}
	}

	res.Message = summary(res)
	slog.Info("cleanup finished", "items", res.ItemsCleaned, "files", res.FilesDeleted, "bytes", res.BytesFreed, "errors", len(res.Errors))
	return res, nil
}

func summary(r Result) string {
	msg := fmt.Sprintf("%d item(s) cleaned, %d file(s) deleted, %s freed", r.ItemsCleaned, r.FilesDeleted, humanize.IBytes(uint64(r.BytesFreed)))
	if n := len(r.Errors); n > 0 {
		msg += fmt.Sprintf(", %d file(s) could not be removed", n)
	}
	return msg
}

// pathKey normalizes a path for duplicate detection. Windows paths are
// case-insensitive.
func pathKey(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

// scanDirectory walks path and returns total size and file count.
// Unreadable entries are skipped; the first such error is returned with
// the partial totals.
func scanDirectory(ctx context.Context, path string) (int64, int, error) {
	var total int64
	var count int
	var firstErr error

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		count++
		return nil
	})
	if err != nil {
		return total, count, err
	}
	return total, count, firstErr
}

// cleanPath deletes everything inside path and keeps path itself.
func cleanPath(path string) (int64, int, []string) {
	var freed int64
	var deleted int
	var errs []string

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, []string{fmt.Sprintf("%s: cannot read directory: %v", path, err)}
	}

	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			size, count, _ := scanDirectory(context.Background(), entryPath)
			if err := os.RemoveAll(entryPath); err != nil {
				// RemoveAll stops at the first failure; count what is gone.
				left, leftCount, _ := scanDirectory(context.Background(), entryPath)
				freed += size - left
				deleted += count - leftCount
				errs = append(errs, fmt.Sprintf("%s: %v", entryPath, err))
				continue
			}
			freed += size
			deleted += count
			continue
		}

		info, err := entry.Info()
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: cannot get file info: %v", entryPath, err))
			continue
		}
		if err := os.Remove(entryPath); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", entryPath, err))
			continue
		}
		freed += info.Size()
		deleted++
	}

	return freed, deleted, errs
}
