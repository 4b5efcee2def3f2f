//go:build !windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".config", appName)
}

func platformCacheDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".cache", appName)
}
