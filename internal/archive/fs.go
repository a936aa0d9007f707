package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSSink writes raw pages to the local filesystem, one file per RSN.
type FSSink struct {
	baseDir string
}

// NewFSSink creates a filesystem sink rooted at baseDir, creating the
// directory if needed.
func NewFSSink(baseDir string) (*FSSink, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("archive.dir is required")
	}
	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create archive dir: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat archive dir: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("archive dir %q is not a directory", baseDir)
	}
	return &FSSink{baseDir: baseDir}, nil
}

// Put writes the page to <baseDir>/<rsn>.html and returns a file:// URI.
func (s *FSSink) Put(_ context.Context, rsn int64, markup []byte) (string, error) {
	path := filepath.Join(s.baseDir, fmt.Sprintf("%d.html", rsn))
	if err := os.WriteFile(path, markup, 0o600); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return "file://" + path, nil
}
