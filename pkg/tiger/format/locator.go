package format

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// MaxPatchDigit is the highest patch index a single-character name can carry
const MaxPatchDigit = 9

// Locator finds the newest patch of a package in a packages directory.
// Each directory is listed at most once per Locator.
type Locator struct {
	mu       sync.Mutex
	listings map[string][]string
	logger   hclog.Logger
}

// NewLocator creates a Locator with an empty listing cache
func NewLocator(logger hclog.Logger) *Locator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Locator{
		listings: make(map[string][]string),
		logger:   logger,
	}
}

func (l *Locator) list(dir string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if names, ok := l.listings[dir]; ok {
		return names, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: packages path does not exist: %s", terr.ErrConfiguration, dir)
		}
		return nil, fmt.Errorf("%w: %v", terr.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: packages path is not a directory: %s", terr.ErrConfiguration, dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", terr.ErrIO, dir, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}

	l.logger.Debug("📂 Listed packages directory", "dir", dir, "files", len(names))
	l.listings[dir] = names
	return names, nil
}

// Locate returns {dir}/{base}_{patch}.pkg for the highest patch digit
// among files whose name contains id.
func (l *Locator) Locate(dir, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: package id is required", terr.ErrConfiguration)
	}

	names, err := l.list(dir)
	if err != nil {
		return "", err
	}

	best := -1
	base := ""
	for _, name := range names {
		if !strings.Contains(name, id) {
			continue
		}
		patch, ok := patchDigit(name)
		if !ok {
			l.logger.Debug("Skipping file without a patch digit", "name", name)
			continue
		}
		if patch > best {
			best = patch
			base = name[:len(name)-PatchDigitOffset-1]
		}
	}

	if best < 0 {
		return "", fmt.Errorf("%w: no package matching %q in %s", terr.ErrConfiguration, id, dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.pkg", base, best))
	l.logger.Debug("🔍 Located package", "id", id, "patch", best, "path", path)
	return path, nil
}

// patchDigit reads the digit sitting before a 4-character extension
// ("..._7.pkg" -> 7).
func patchDigit(name string) (int, bool) {
	if len(name) < PatchDigitOffset+1 {
		return 0, false
	}
	ch := name[len(name)-PatchDigitOffset]
	if ch < '0' || ch > '9' {
		return 0, false
	}
	return int(ch - '0'), true
}

// PatchPaths returns one path per patch index 0..patchCount by replacing
// the patch digit of primary. Indices past MaxPatchDigit cannot be named
// and are left out; blocks that reference them fail when read.
func PatchPaths(primary string, patchCount uint16) ([]string, error) {
	if _, ok := patchDigit(primary); !ok {
		return nil, fmt.Errorf("%w: package path has no patch digit: %s", terr.ErrConfiguration, primary)
	}

	last := int(patchCount)
	if last > MaxPatchDigit {
		last = MaxPatchDigit
	}

	pos := len(primary) - PatchDigitOffset
	paths := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		b := []byte(primary)
		b[pos] = byte('0' + i)
		paths = append(paths, string(b))
	}
	return paths, nil
}

// PackageNames returns the newest patch file name of every package in dir,
// sorted by name.
func (l *Locator) PackageNames(dir string) ([]string, error) {
	names, err := l.list(dir)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]int)
	for _, name := range names {
		patch, ok := patchDigit(name)
		if !ok {
			continue
		}
		base := name[:len(name)-PatchDigitOffset-1]
		if cur, seen := latest[base]; !seen || patch > cur {
			latest[base] = patch
		}
	}

	out := make([]string, 0, len(latest))
	for base, patch := range latest {
		out = append(out, fmt.Sprintf("%s_%d.pkg", base, patch))
	}
	sort.Strings(out)
	return out, nil
}
