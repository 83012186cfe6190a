package report

import (
	"fmt"
	"io"

	"hasher/internal/tree"
)

const (
	dirItem       = "─<"
	fileItem      = "─ "
	middleItem    = "  ├"
	lastItem      = "  └"
	branchSpace   = "  │"
	noBranchSpace = "   "
)

// TreePrinter draws the tree with box-drawing characters, one node per
// line with its name and size in bytes.
type TreePrinter struct {
	out io.Writer
	// branches holds one entry per open ancestor: true while that ancestor
	// still has siblings below, so its column needs a vertical bar.
	branches []bool
}

func NewTreePrinter(out io.Writer) *TreePrinter {
	return &TreePrinter{out: out}
}

func (p *TreePrinter) VisitFile(f *tree.File) error {
	return writeString(p.out, fmt.Sprintf("%s%s : %d\n", fileItem, f.Name(), f.Size()))
}

func (p *TreePrinter) VisitDirectory(d *tree.Directory) error {
	if err := writeString(p.out, fmt.Sprintf("%s%s : %d\n", dirItem, d.Name(), d.Size())); err != nil {
		return err
	}

	children := d.Children()
	for i, child := range children {
		if err := p.visitChild(child, i == len(children)-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *TreePrinter) visitChild(child tree.Node, last bool) error {
	indent := ""
	for _, open := range p.branches {
		if open {
			indent += branchSpace
		} else {
			indent += noBranchSpace
		}
	}
	if last {
		indent += lastItem
	} else {
		indent += middleItem
	}
	if err := writeString(p.out, indent); err != nil {
		return err
	}

	p.branches = append(p.branches, !last)
	defer func() { p.branches = p.branches[:len(p.branches)-1] }()

	return child.Accept(p)
}

func (p *TreePrinter) Flush() error { return nil }

// Lister prints every directory as "path:" followed by the names of its
// entries and a blank line, then descends into its subdirectories.
type Lister struct {
	out    io.Writer
	prefix tree.Prefix
}

func NewLister(out io.Writer) *Lister {
	return &Lister{out: out}
}

// VisitFile is only reached when the traversal root is a file.
func (l *Lister) VisitFile(f *tree.File) error {
	return writeString(l.out, f.Name()+"\n")
}

func (l *Lister) VisitDirectory(d *tree.Directory) error {
	defer l.prefix.Enter(d.Name())()

	listing := l.prefix.Dir() + ":\n"
	for _, child := range d.Children() {
		listing += child.Name() + "\n"
	}
	if err := writeString(l.out, listing+"\n"); err != nil {
		return err
	}

	for _, child := range d.Children() {
		if sub, ok := child.(*tree.Directory); ok {
			if err := sub.Accept(l); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Lister) Flush() error { return nil }
