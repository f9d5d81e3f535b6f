package include

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	return path
}

func ResolvePath(basePath, includePath string) string {
	includePath = ExpandHome(includePath)

	if filepath.IsAbs(includePath) {
		return filepath.Clean(includePath)
	}

	baseDir := filepath.Dir(basePath)
	return filepath.Clean(filepath.Join(baseDir, includePath))
}
