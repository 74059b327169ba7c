package fileloader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Batch discovery for multi-file imports. Each discovered file becomes its
// own import session; discovery only finds and orders the candidates.

// DirectoryInfo contains metadata about a discovered directory of import files.
type DirectoryInfo struct {
	RootPath   string   // Absolute path to the directory
	Files      []string // Absolute file paths in sorted order
	TotalFiles int
	TotalSize  int64
}

// DiscoverFiles finds all files matching the pattern under dirPath.
// Pattern is a doublestar glob relative to the directory (e.g. "*.csv",
// "**/*.xlsx", "exports/*.csv.gz"). Results are sorted so batch imports
// process files in a stable order.
func DiscoverFiles(dirPath string, pattern string) (*DirectoryInfo, error) {
	if pattern == "" {
		return nil, fmt.Errorf("file pattern is required (e.g. *.csv, **/*.xlsx)")
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	var files []string
	var totalSize int64

	fsys := os.DirFS(absPath)
	err = doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // unreadable entry, skip it
		}
		files = append(files, filepath.Join(absPath, path))
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)

	return &DirectoryInfo{
		RootPath:   absPath,
		Files:      files,
		TotalFiles: len(files),
		TotalSize:  totalSize,
	}, nil
}
