package filesource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenPathChars are rejected in task file paths taken from config or
// the command line.
const forbiddenPathChars = ";&|$`<>!\n\r\x00"

// resolveTaskFile cleans path, makes it absolute and follows symlinks.
// The target must be a regular file.
func resolveTaskFile(path string) (string, os.FileInfo, error) {
	if i := strings.IndexAny(path, forbiddenPathChars); i >= 0 {
		return "", nil, fmt.Errorf("task file path contains forbidden character %q", path[i])
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve task file path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat task file: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat task file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("task file %s is not a regular file", path)
	}
	return resolved, info, nil
}
