// Package diskscan walks directory trees to find where disk space goes.
//
// Both walks are best effort: a file or directory that cannot be read is
// skipped and the walk carries on with its siblings. Hidden and system
// directories are never entered, and neither are symlinks, junctions or
// other reparse points, so a link loop cannot make a walk run forever.
package diskscan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultMaxDepth is the folder-size depth used when the caller passes 0.
const DefaultMaxDepth = 3

// FolderSize describes one directory visited by FolderSizes. Size and
// FileCount cover only the files directly inside the directory.
type FolderSize struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	FileCount   int    `json:"fileCount"`
	FolderCount int    `json:"folderCount"`
	Depth       int    `json:"depth"`
}

// LargeFile is a file found by LargeFiles.
type LargeFile struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Directory string    `json:"directory"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension"`
}

// Stats counts what a walk touched. Skipped is the number of files and
// directories dropped because they could not be read.
type Stats struct {
	Dirs    int `json:"dirs"`
	Files   int `json:"files"`
	Skipped int `json:"skipped"`
}

// Scanner performs the walks. The zero value is not usable; use NewScanner.
type Scanner struct {
	readDir func(name string) ([]fs.DirEntry, error)
	log     *slog.Logger
}

// NewScanner returns a Scanner that reads the real filesystem.
func NewScanner() *Scanner {
	return &Scanner{
		readDir: os.ReadDir,
		log:     slog.Default(),
	}
}

var defaultScanner = NewScanner()

// FolderSizes runs Scanner.FolderSizes on the real filesystem.
func FolderSizes(ctx context.Context, root string, maxDepth int) ([]FolderSize, Stats, error) {
	return defaultScanner.FolderSizes(ctx, root, maxDepth)
}

// LargeFiles runs Scanner.LargeFiles on the real filesystem.
func LargeFiles(ctx context.Context, root string, minSize int64) ([]LargeFile, Stats, error) {
	return defaultScanner.LargeFiles(ctx, root, minSize)
}

// FolderTotal runs Scanner.FolderTotal on the real filesystem.
func FolderTotal(ctx context.Context, root string) (int64, Stats, error) {
	return defaultScanner.FolderTotal(ctx, root)
}

type pendingDir struct {
	path  string
	depth int
}

// FolderSizes visits the subdirectories of root level by level, down to
// maxDepth levels below root, and reports each one's immediate file size,
// file count and subfolder count. Root itself is not reported. Results are
// sorted by size, largest first. The only error returned is ctx.Err().
func (s *Scanner) FolderSizes(ctx context.Context, root string, maxDepth int) ([]FolderSize, Stats, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var stats Stats
	folders := []FolderSize{}
	if !isDir(root) {
		s.log.Debug("folder scan root not found", "root", root)
		return folders, stats, nil
	}

	queue := []pendingDir{{path: root, depth: 0}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		cur := queue[0]
		queue = queue[1:]

		entries, err := s.readDir(cur.path)
		if err != nil {
			stats.Skipped++
			s.log.Debug("skipping unreadable directory", "path", cur.path, "error", err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() || skipDir(entry) {
				continue
			}

			childPath := filepath.Join(cur.path, entry.Name())
			folder, ok := s.measureFolder(childPath, entry.Name(), &stats)
			if !ok {
				continue
			}
			folder.Depth = cur.depth + 1
			folders = append(folders, folder)

			if folder.Depth < maxDepth {
				queue = append(queue, pendingDir{path: childPath, depth: folder.Depth})
			}
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		if folders[i].Size != folders[j].Size {
			return folders[i].Size > folders[j].Size
		}
		return folders[i].Path < folders[j].Path
	})
	return folders, stats, nil
}

// measureFolder sums the files directly inside path. A directory whose
// listing fails is dropped from the results altogether.
func (s *Scanner) measureFolder(path, name string, stats *Stats) (FolderSize, bool) {
	entries, err := s.readDir(path)
	if err != nil {
		stats.Skipped++
		s.log.Debug("skipping unreadable directory", "path", path, "error", err)
		return FolderSize{}, false
	}
	stats.Dirs++

	folder := FolderSize{Path: path, Name: name}
	for _, entry := range entries {
		if entry.IsDir() {
			folder.FolderCount++
			continue
		}
		if !isFile(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.Files++
		folder.FileCount++
		folder.Size += info.Size()
	}
	return folder, true
}

// LargeFiles walks the whole tree under root and returns every file whose
// size is at least minSize, largest first. The only error returned is
// ctx.Err().
func (s *Scanner) LargeFiles(ctx context.Context, root string, minSize int64) ([]LargeFile, Stats, error) {
	var stats Stats
	files := []LargeFile{}
	if !isDir(root) {
		s.log.Debug("large file scan root not found", "root", root)
		return files, stats, nil
	}

	err := s.walk(ctx, root, &stats, func(dir string, entry fs.DirEntry, info fs.FileInfo) {
		if info.Size() < minSize {
			return
		}
		name := entry.Name()
		files = append(files, LargeFile{
			Path:      filepath.Join(dir, name),
			Name:      name,
			Directory: dir,
			Size:      info.Size(),
			Modified:  info.ModTime(),
			Extension: filepath.Ext(name),
		})
	})
	if err != nil {
		return nil, stats, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Size != files[j].Size {
			return files[i].Size > files[j].Size
		}
		return files[i].Path < files[j].Path
	})
	return files, stats, nil
}

// FolderTotal returns the recursive size of every readable file under root.
func (s *Scanner) FolderTotal(ctx context.Context, root string) (int64, Stats, error) {
	var stats Stats
	var total int64
	if !isDir(root) {
		return 0, stats, nil
	}

	err := s.walk(ctx, root, &stats, func(_ string, _ fs.DirEntry, info fs.FileInfo) {
		total += info.Size()
	})
	if err != nil {
		return 0, stats, err
	}
	return total, stats, nil
}

// walk is a depth-first, unbounded traversal calling visit for each
// readable regular file.
func (s *Scanner) walk(ctx context.Context, root string, stats *Stats, visit func(dir string, entry fs.DirEntry, info fs.FileInfo)) error {
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := s.readDir(dir)
		if err != nil {
			stats.Skipped++
			s.log.Debug("skipping unreadable directory", "path", dir, "error", err)
			continue
		}
		stats.Dirs++

		for _, entry := range entries {
			if entry.IsDir() {
				if !skipDir(entry) {
					stack = append(stack, filepath.Join(dir, entry.Name()))
				}
				continue
			}
			if !isFile(entry) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				stats.Skipped++
				continue
			}
			stats.Files++
			visit(dir, entry, info)
		}
	}
	return nil
}

// skipDir reports whether a directory entry must not be entered.
func skipDir(entry fs.DirEntry) bool {
	if entry.Type()&(fs.ModeSymlink|fs.ModeIrregular) != 0 {
		return true
	}
	return isHiddenOrSystem(entry)
}

func isFile(entry fs.DirEntry) bool {
	return entry.Type()&(fs.ModeSymlink|fs.ModeIrregular|fs.ModeNamedPipe|fs.ModeSocket|fs.ModeDevice) == 0
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
