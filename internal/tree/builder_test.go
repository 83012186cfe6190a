package tree

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := fs.MkdirAll(filepath.Dir(name), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := afero.WriteFile(fs, name, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

// sampleFs lays out a tree of 74 visible bytes plus hidden entries.
func sampleFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/test/a":            "1234567",
		"/test/c":            "12345",
		"/test/asd/x":        "0123456789",
		"/test/asd/y":        strings.Repeat("y", 20),
		"/test/asd/z":        strings.Repeat("z", 32),
		"/test/.secret":      "hidden",
		"/test/.git/config":  "[core]",
		"/test/asd/.profile": "hidden too",
	})
	return fs
}

func collectFiles(t *testing.T, root Node) []string {
	t.Helper()
	var paths []string
	err := Walk(root, func(rel string, f *File) error {
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	sort.Strings(paths)
	return paths
}

func checkSizes(t *testing.T, n Node) int64 {
	t.Helper()
	d, ok := n.(*Directory)
	if !ok {
		return n.Size()
	}
	var sum int64
	for _, child := range d.Children() {
		sum += checkSizes(t, child)
	}
	if sum != d.Size() {
		t.Errorf("Directory %s: size %d, children sum %d", d.Path(), d.Size(), sum)
	}
	return d.Size()
}

func TestBuild_RootSize(t *testing.T) {
	root, err := NewBuilder(sampleFs(t)).Build("/test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if root.Size() != 74 {
		t.Errorf("Expected root size 74, got %d", root.Size())
	}
	checkSizes(t, root)
}

func TestBuild_SkipsHiddenEntries(t *testing.T) {
	root, err := NewBuilder(sampleFs(t)).Build("/test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := collectFiles(t, root)
	expected := []string{"a", "asd/x", "asd/y", "asd/z", "c"}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected files %v, got %v", expected, got)
	}
}

func TestBuild_NotFound(t *testing.T) {
	_, err := NewBuilder(afero.NewMemMapFs()).Build("/nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBuild_SingleFileRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/data/only.txt": "abc"})

	root, err := NewBuilder(fs).Build("/data/only.txt")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	f, ok := root.(*File)
	if !ok {
		t.Fatalf("Expected *File root, got %T", root)
	}
	if f.Size() != 3 {
		t.Errorf("Expected size 3, got %d", f.Size())
	}
	if got := collectFiles(t, root); len(got) != 1 || got[0] != "only.txt" {
		t.Errorf("Expected [only.txt], got %v", got)
	}
}

func TestBuild_EmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/empty", 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	root, err := NewBuilder(fs).Build("/empty")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	d, ok := root.(*Directory)
	if !ok {
		t.Fatalf("Expected *Directory root, got %T", root)
	}
	if d.Size() != 0 || len(d.Children()) != 0 {
		t.Errorf("Expected empty directory, got size %d with %d children", d.Size(), len(d.Children()))
	}
}

func TestBuild_WithExclusions(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/src/main.go":              "package main",
		"/src/main.log":             "log",
		"/src/node_modules/lib.js":  "js",
		"/src/pkg/node_modules/x":   "x",
		"/src/pkg/util.go":          "package pkg",
		"/src/build/out/result.bin": "bin",
	})

	root, err := NewBuilder(fs, WithExclude("*.log", "node_modules/", "build/out/*")).Build("/src")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := collectFiles(t, root)
	expected := []string{"main.go", "pkg/util.go"}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected files %v, got %v", expected, got)
	}
	checkSizes(t, root)
}

func symlinkFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, "real"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "real", "data.txt"), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := os.Symlink("real", filepath.Join(dir, "dirlink")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink("real/data.txt", filepath.Join(dir, "filelink")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	if err := os.Symlink("missing", filepath.Join(dir, "dangling")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	return dir
}

func TestBuild_NoLinksKeepsSymlinksAsLeaves(t *testing.T) {
	dir := symlinkFixture(t)

	root, err := NewBuilder(afero.NewOsFs()).Build(dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	links := make(map[string]*File)
	err = Walk(root, func(rel string, f *File) error {
		if f.IsSymlink() {
			links[rel] = f
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(links) != 3 {
		t.Fatalf("Expected 3 symlink leaves, got %d", len(links))
	}
	if l := links["dirlink"]; l == nil || l.Target() != "real" || l.Size() != 4 {
		t.Errorf("dirlink should be a 4-byte leaf pointing at real, got %+v", l)
	}
	if l := links["dangling"]; l == nil || l.Size() != int64(len("missing")) {
		t.Errorf("dangling link should be kept as a leaf, got %+v", l)
	}

	// real/data.txt (10) + "real" (4) + "real/data.txt" (13) + "missing" (7)
	if root.Size() != 34 {
		t.Errorf("Expected root size 34, got %d", root.Size())
	}
	checkSizes(t, root)
}

func TestBuild_WithLinksDescendsIntoDirectories(t *testing.T) {
	dir := symlinkFixture(t)

	root, err := NewBuilder(afero.NewOsFs(), WithFollowLinks()).Build(dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := collectFiles(t, root)
	expected := []string{"dirlink/data.txt", "filelink", "real/data.txt"}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected files %v, got %v", expected, got)
	}
	if root.Size() != 30 {
		t.Errorf("Expected root size 30, got %d", root.Size())
	}
	checkSizes(t, root)
}

func TestBuild_WithLinksPathLengthCap(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(".", filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := NewBuilder(afero.NewOsFs(), WithFollowLinks(), WithMaxPathLength(len(dir)+40)).Build(dir)
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Expected ErrPathTooLong, got %v", err)
	}

	// the same layout is a plain leaf without link following
	root, err := NewBuilder(afero.NewOsFs()).Build(dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if root.Size() != 1 {
		t.Errorf("Expected root size 1, got %d", root.Size())
	}
}

func TestBuild_WithLinksDefaultCapStopsCycles(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(".", filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := NewBuilder(afero.NewOsFs(), WithFollowLinks()).Build(dir)
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Expected ErrPathTooLong, got %v", err)
	}

	// a pair of links pointing at each other never resolves
	other := t.TempDir()
	if err := os.Symlink(filepath.Join(other, "b"), filepath.Join(other, "a")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(other, "a"), filepath.Join(other, "b")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	_, err = NewBuilder(afero.NewOsFs(), WithFollowLinks()).Build(other)
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Expected ErrPathTooLong for a link cycle, got %v", err)
	}
}
