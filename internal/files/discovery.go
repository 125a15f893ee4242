package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "rankdelta/internal/errors"
)

// FileInfo represents information about a discovered snapshot file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds snapshot input files in the data directory.
type Discovery struct {
	dataDir    string
	extensions []string
}

// NewDiscovery creates a discovery over dataDir accepting the given
// lowercased, dot-prefixed extensions.
func NewDiscovery(dataDir string, extensions []string) *Discovery {
	return &Discovery{dataDir: dataDir, extensions: extensions}
}

// Find lists regular files directly under the data directory (non-recursive)
// whose lowercased extension is accepted, sorted ascending by modification
// time. Name breaks modification-time ties so the order is deterministic.
func (d *Discovery) Find() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dataDir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !d.accepts(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(d.dataDir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// Latest returns the paths of the n most recently modified accepted files,
// oldest of the selected window first.
func (d *Discovery) Latest(n int) ([]string, error) {
	files, err := d.Find()
	if err != nil {
		return nil, err
	}
	if len(files) > n {
		files = files[len(files)-n:]
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Prepare resolves the input paths for one pipeline run. An explicit list
// bypasses discovery entirely; either way the result must carry at least
// minInputs paths or the run fails with an insufficient-inputs error.
func (d *Discovery) Prepare(explicit []string, minInputs int) ([]string, error) {
	paths := explicit
	if len(paths) == 0 {
		var err error
		paths, err = d.Latest(minInputs)
		if err != nil {
			return nil, err
		}
	}
	if len(paths) < minInputs {
		return nil, apperrors.NewInsufficientInputsError(len(paths), minInputs)
	}
	return paths, nil
}

func (d *Discovery) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range d.extensions {
		if ext == accepted {
			return true
		}
	}
	return false
}
