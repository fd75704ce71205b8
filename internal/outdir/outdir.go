// Package outdir resolves and prepares extraction output locations
package outdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the directory created under the working directory
const DirName = "output"

// DefaultPath returns {cwd}/output/{packageID}
func DefaultPath(packageID string) (string, error) {
	// TIGER_OUTPUT_DIR replaces {cwd}/output
	if base := os.Getenv("TIGER_OUTPUT_DIR"); base != "" {
		return filepath.Join(base, packageID), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, DirName, packageID), nil
}

// Create creates root and every subdirectory below it
func Create(root string, dirs []DirectorySpec) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, dir := range dirs {
		dirPath := filepath.Join(root, filepath.FromSlash(dir.Path))
		mode := dir.Mode
		if mode == 0 {
			mode = 0755
		}

		if err := os.MkdirAll(dirPath, os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}

	return nil
}

// DirectorySpec specifies a directory to create, relative to the root
type DirectorySpec struct {
	Path string
	Mode uint32
}
