package tree

import "path"

// Descend visits the children of d in stored order and stops at the first error.
// It is the default directory behavior for visitors that only care about files.
func Descend(d *Directory, v Visitor) error {
	for _, child := range d.children {
		if err := child.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

// Prefix tracks the slash-separated location of the directory currently being
// visited, relative to the traversal root. The root directory itself
// contributes no segment.
type Prefix struct {
	segments []string
	depth    int
}

// Enter descends into the named directory and returns the function that
// restores the previous state. Callers defer it so the prefix is restored on
// every return path:
//
//	defer p.Enter(d.Name())()
func (p *Prefix) Enter(name string) func() {
	if p.depth > 0 {
		p.segments = append(p.segments, name)
	}
	p.depth++
	return func() {
		p.depth--
		if p.depth > 0 {
			p.segments = p.segments[:len(p.segments)-1]
		}
	}
}

// Depth is the number of directories currently entered.
func (p *Prefix) Depth() int { return p.depth }

// Dir returns the relative path of the current directory, "." for the root.
func (p *Prefix) Dir() string {
	if len(p.segments) == 0 {
		return "."
	}
	return path.Join(p.segments...)
}

// Rel returns the relative path of an entry named name inside the current directory.
func (p *Prefix) Rel(name string) string {
	if len(p.segments) == 0 {
		return name
	}
	return path.Join(p.Dir(), name)
}

// FileFunc is called for every file reached by Walk.
type FileFunc func(rel string, f *File) error

type fileWalker struct {
	prefix Prefix
	fn     FileFunc
}

func (w *fileWalker) VisitFile(f *File) error {
	return w.fn(w.prefix.Rel(f.Name()), f)
}

func (w *fileWalker) VisitDirectory(d *Directory) error {
	defer w.prefix.Enter(d.Name())()
	return Descend(d, w)
}

// Walk calls fn for every file below root, depth first in stored order.
// A root that is itself a file is reported under its base name.
func Walk(root Node, fn FileFunc) error {
	return root.Accept(&fileWalker{fn: fn})
}
