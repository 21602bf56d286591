package update

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// CleanResult records what DeleteAll did. Errors are collected, never returned.
type CleanResult struct {
	Path    string   `json:"path" yaml:"path"`
	Refused bool     `json:"refused,omitempty" yaml:"refused,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Errors  []error  `json:"-" yaml:"-"`
}

// OK reports whether every entry under Path was removed.
func (r CleanResult) OK() bool {
	return !r.Refused && len(r.Errors) == 0
}

// Cleaner deletes directory trees best-effort.
type Cleaner struct {
	fs afero.Fs
}

// NewCleaner creates a cleaner operating on fs.
func NewCleaner(fs afero.Fs) *Cleaner {
	return &Cleaner{fs: fs}
}

// IsProtectedPath reports whether path is one DeleteAll refuses to touch:
// the empty string, the filesystem root or a drive root such as "C:/".
func IsProtectedPath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return true
	}
	p := strings.ReplaceAll(path, `\`, "/")
	if strings.Trim(p, "/") == "" {
		return true
	}
	if len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]) && strings.Trim(p[2:], "/") == "" {
		return true
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// DeleteAll removes path and everything below it. Symlinks are removed, never
// followed. Failures on individual entries are recorded and the walk carries
// on, so whatever could not be removed stays in place.
func (c *Cleaner) DeleteAll(path string) CleanResult {
	result := CleanResult{Path: path}
	if IsProtectedPath(path) {
		result.Refused = true
		return result
	}

	if c.isSymlink(path) {
		c.remove(path, &result)
		return result
	}
	if info, err := c.fs.Stat(path); err == nil && !info.IsDir() {
		result.Errors = append(result.Errors, fmt.Errorf("%s is not a directory", path))
		return result
	}

	// Directories are collected in discovery order and removed in reverse, so
	// children always go before their parents.
	var dirs []string
	visited := make(map[string]bool)
	stack := []string{path}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := filepath.Clean(dir)
		if visited[key] {
			continue
		}
		visited[key] = true
		dirs = append(dirs, dir)

		entries, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if name == "." || name == ".." {
				continue
			}
			child := filepath.Join(dir, name)

			if entry.IsDir() && !c.isSymlink(child) {
				stack = append(stack, child)
				continue
			}
			c.remove(child, &result)
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		c.remove(dirs[i], &result)
	}

	return result
}

func (c *Cleaner) isSymlink(path string) bool {
	lstater, ok := c.fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, _, err := lstater.LstatIfPossible(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

func (c *Cleaner) remove(path string, result *CleanResult) {
	if err := c.fs.Remove(path); err != nil {
		result.Errors = append(result.Errors, err)
		return
	}
	result.Removed = append(result.Removed, path)
}
