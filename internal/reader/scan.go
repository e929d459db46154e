package reader

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo describes a statement file found by Scan.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan walks root recursively and returns regular files whose extension is
// in formats (all files when formats is empty), sorted by path. Entries that
// cannot be read are reported to onErr and skipped; only an unreadable root
// fails the scan.
func Scan(root string, formats []string, onErr func(path string, err error)) ([]FileInfo, error) {
	want := make(map[string]bool, len(formats))
	for _, f := range formats {
		want[strings.ToLower(strings.TrimPrefix(f, "."))] = true
	}

	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if onErr != nil {
				onErr(path, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(want) > 0 && !want[FormatOf(path)] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if onErr != nil {
				onErr(path, err)
			}
			return nil
		}
		files = append(files, FileInfo{
			Name: d.Name(),
			Path: path,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
