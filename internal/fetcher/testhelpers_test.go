package fetcher

import (
	"os"
	"path/filepath"
)

// writeTestFile writes data to a path under dir, creating parents.
func writeTestFile(dir, name, content string) error {
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}
