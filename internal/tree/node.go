package tree

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Node is one entry of a scanned filesystem subtree.
type Node interface {
	Path() string
	Name() string
	Size() int64
	Accept(v Visitor) error
}

// Visitor processes the two node kinds of a tree.
type Visitor interface {
	VisitFile(f *File) error
	VisitDirectory(d *Directory) error
}

// File is a regular file or a symbolic link. A symbolic link is sized and
// hashed by its target text, not by the content it points to.
type File struct {
	fs     afero.Fs
	path   string
	size   int64
	target string
	link   bool
}

func (f *File) Path() string { return f.path }
func (f *File) Name() string { return filepath.Base(f.path) }
func (f *File) Size() int64  { return f.size }

// IsSymlink reports whether the file is an unfollowed symbolic link.
func (f *File) IsSymlink() bool { return f.link }

// Target returns the link text of a symbolic link, or "" for a regular file.
func (f *File) Target() string { return f.target }

// Open returns the byte stream that represents the file for hashing.
func (f *File) Open() (io.ReadCloser, error) {
	if f.link {
		return io.NopCloser(strings.NewReader(f.target)), nil
	}
	return f.fs.Open(f.path)
}

func (f *File) Accept(v Visitor) error { return v.VisitFile(f) }

// Directory owns its children in filesystem iteration order. Its size is
// the sum of the children's sizes, fixed at construction.
type Directory struct {
	path     string
	size     int64
	children []Node
}

// NewDirectory creates a directory node and aggregates the size of its children.
func NewDirectory(path string, children []Node) *Directory {
	d := &Directory{path: path, children: children}
	for _, child := range children {
		d.size += child.Size()
	}
	return d
}

func (d *Directory) Path() string { return d.path }
func (d *Directory) Name() string { return filepath.Base(d.path) }
func (d *Directory) Size() int64  { return d.size }

// Children returns the directory entries in stored order.
func (d *Directory) Children() []Node { return d.children }

func (d *Directory) Accept(v Visitor) error { return v.VisitDirectory(d) }
