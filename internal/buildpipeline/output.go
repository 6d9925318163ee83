package buildpipeline

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"swiftwinrt/internal/project"
	"swiftwinrt/internal/writers"
)

// dirOnce creates a directory at most once, however many tasks ask first.
type dirOnce struct {
	once sync.Once
	err  error
}

// Output writes generated files below one root. Files are rewritten only
// when their content changes. Distinct tasks never share a path, so only
// directory creation needs coordination.
type Output struct {
	root      string
	overwrite bool
	dirs      sync.Map // string -> *dirOnce
}

// NewOutput returns an Output rooted at root. overwrite allows replacing
// files marked Preserve.
func NewOutput(root string, overwrite bool) *Output {
	return &Output{root: root, overwrite: overwrite}
}

// Root returns the output root.
func (o *Output) Root() string { return o.root }

func (o *Output) ensureDir(dir string) error {
	v, _ := o.dirs.LoadOrStore(dir, &dirOnce{})
	d := v.(*dirOnce)
	d.once.Do(func() {
		d.err = os.MkdirAll(dir, 0o755)
	})
	return d.err
}

// WriteResult tells what Write did with one file.
type WriteResult struct {
	Path    string
	Hash    project.Digest
	Written bool
	// Kept is set for a preserved file that already existed.
	Kept bool
}

// Write stores f under the root.
func (o *Output) Write(f writers.File) (WriteResult, error) {
	res := WriteResult{Path: f.Path, Hash: sha256.Sum256(f.Content)}
	full := filepath.Join(o.root, filepath.FromSlash(f.Path))
	if err := o.ensureDir(filepath.Dir(full)); err != nil {
		return res, fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	existing, err := os.ReadFile(full)
	switch {
	case err == nil:
		if f.Preserve && !o.overwrite {
			res.Kept = true
			res.Hash = sha256.Sum256(existing)
			return res, nil
		}
		if bytes.Equal(existing, f.Content) {
			return res, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return res, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if err := os.WriteFile(full, f.Content, 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", f.Path, err)
	}
	res.Written = true
	return res, nil
}

// fileLog collects what one module produced. Tasks record concurrently.
type fileLog struct {
	mu      sync.Mutex
	results []WriteResult
}

func (l *fileLog) record(r WriteResult) {
	l.mu.Lock()
	l.results = append(l.results, r)
	l.mu.Unlock()
}

// sorted returns the results ordered by path. Call after the tasks joined.
func (l *fileLog) sorted() []WriteResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.results)
	slices.SortFunc(out, func(a, b WriteResult) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out
}
