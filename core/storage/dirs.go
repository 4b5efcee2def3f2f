// Package storage resolves platform-native directories with XDG support.
package storage

import (
	"os"
	"path/filepath"
	"sync"
)

const appName = "semhash"

// Dirs holds user-level directories.
type Dirs struct {
	Config string // User configuration
	Cache  string // Regenerable data
}

// ProjectDirs holds project-local paths.
type ProjectDirs struct {
	Root   string // .semhash/
	Config string // .semhash/config.yaml
}

var (
	globalDirs     *Dirs
	globalDirsOnce sync.Once
)

// ResolveDirs returns platform-appropriate directories.
// Results are cached after first call.
func ResolveDirs() *Dirs {
	globalDirsOnce.Do(func() {
		globalDirs = &Dirs{
			Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
			Cache:  resolveDir("XDG_CACHE_HOME", platformCacheDefault()),
		}
	})
	return globalDirs
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	return fallback
}

// ResolveProjectDirs returns project-local paths for the given project root.
func ResolveProjectDirs(projectRoot string) *ProjectDirs {
	root := filepath.Join(projectRoot, "."+appName)
	return &ProjectDirs{
		Root:   root,
		Config: filepath.Join(root, "config.yaml"),
	}
}

// EnsureDir creates a directory if it doesn't exist. A zero perm means 0700.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = 0700
	}
	return os.MkdirAll(path, perm)
}

// ConfigDir joins subpath onto the config directory.
func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}

// CacheDir joins subpath onto the cache directory.
func (d *Dirs) CacheDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Cache}, subpath...)...)
}
