package buildpipeline

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"swiftwinrt/internal/project"
	"swiftwinrt/internal/writers"
)

func TestOutputCreatesSharedDirectoryOnce(t *testing.T) {
	out := NewOutput(t.TempDir(), false)
	var g errgroup.Group
	for i := range 32 {
		g.Go(func() error {
			_, err := out.Write(writers.File{
				Path:    fmt.Sprintf("Test/Sources/Test/File%d.swift", i),
				Content: []byte("// generated\n"),
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	entries, err := os.ReadDir(filepath.Join(out.Root(), "Test", "Sources", "Test"))
	require.NoError(t, err)
	require.Len(t, entries, 32)
	n := 0
	out.dirs.Range(func(any, any) bool { n++; return true })
	require.Equal(t, 1, n)
}

func TestOutputSkipsUnchangedContent(t *testing.T) {
	out := NewOutput(t.TempDir(), false)
	f := writers.File{Path: "Test/Package.swift", Content: []byte("// swift-tools-version:5.9\n")}

	first, err := out.Write(f)
	require.NoError(t, err)
	require.True(t, first.Written)

	full := filepath.Join(out.Root(), "Test", "Package.swift")
	stamp := mustModTime(t, full)
	second, err := out.Write(f)
	require.NoError(t, err)
	require.False(t, second.Written)
	require.Equal(t, first.Hash, second.Hash)
	require.Equal(t, stamp, mustModTime(t, full))

	f.Content = []byte("// swift-tools-version:5.10\n")
	third, err := out.Write(f)
	require.NoError(t, err)
	require.True(t, third.Written)
	require.Equal(t, project.Digest(sha256.Sum256(f.Content)), third.Hash)
}

func TestOutputKeepsPreservedFiles(t *testing.T) {
	root := t.TempDir()
	f := writers.File{Path: "Shape.swift", Content: []byte("// stub\n"), Preserve: true}
	_, err := NewOutput(root, false).Write(f)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "Shape.swift"), []byte("// mine\n"), 0o644))

	res, err := NewOutput(root, false).Write(f)
	require.NoError(t, err)
	require.True(t, res.Kept)
	require.False(t, res.Written)
	require.Equal(t, project.Digest(sha256.Sum256([]byte("// mine\n"))), res.Hash)

	res, err = NewOutput(root, true).Write(f)
	require.NoError(t, err)
	require.True(t, res.Written)
}

func mustModTime(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime().UnixNano()
}
