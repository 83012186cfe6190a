package tree

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var (
	ErrNotFound    = errors.New("tree: path not found")
	ErrPathTooLong = errors.New("tree: maximum path length exceeded")
)

// Builder materializes a Node tree from a filesystem. Apart from its options
// it holds no state, so one Builder can serve any number of Build calls.
type Builder struct {
	fs   afero.Fs
	opts *options
}

// NewBuilder creates a builder reading from fs. Without WithFollowLinks,
// symbolic links become leaf files carrying their link text.
func NewBuilder(fs afero.Fs, opts ...Option) *Builder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Builder{fs: fs, opts: o}
}

// Build scans the subtree at root. Entries whose name starts with "." are
// skipped together with everything below them. The root itself is always
// included, so "." and ".." are valid roots.
func (b *Builder) Build(root string) (Node, error) {
	info, err := b.stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		if errors.Is(err, syscall.ELOOP) {
			return nil, fmt.Errorf("%w: symbolic link loop at %s: %v", ErrPathTooLong, root, err)
		}
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}

	node, err := b.build(root, "", info)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("unsupported file type: %s", root)
	}
	return node, nil
}

func (b *Builder) build(absPath, relPath string, info os.FileInfo) (Node, error) {
	if b.opts.followLinks && len(absPath) > b.opts.maxPathLength {
		return nil, fmt.Errorf("%w: %d bytes at %s", ErrPathTooLong, len(absPath), relPath)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		target, err := b.readlink(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read link %s: %w", absPath, err)
		}
		return &File{
			fs:     b.fs,
			path:   absPath,
			size:   int64(len(target)),
			target: target,
			link:   true,
		}, nil

	case mode.IsDir():
		return b.buildDirectory(absPath, relPath)

	case mode.IsRegular():
		return &File{fs: b.fs, path: absPath, size: info.Size()}, nil

	default:
		log.WithField("path", absPath).Debugf("skipping special file (%s)", mode.Type())
		return nil, nil
	}
}

func (b *Builder) buildDirectory(absPath, relPath string) (Node, error) {
	names, err := b.readDirNames(absPath)
	if err != nil {
		if errors.Is(err, syscall.ELOOP) {
			return nil, fmt.Errorf("%w: symbolic link loop at %s: %v", ErrPathTooLong, relPath, err)
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", absPath, err)
	}

	children := make([]Node, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			log.WithField("path", path.Join(relPath, name)).Debug("skipping hidden entry")
			continue
		}

		childAbs := filepath.Join(absPath, name)
		childRel := path.Join(relPath, name)

		info, err := b.stat(childAbs)
		if err != nil {
			if os.IsNotExist(err) {
				// dangling link while following links, or removed during the scan
				log.WithField("path", childRel).Debug("skipping vanished entry")
				continue
			}
			// the kernel gives up on a cyclic link before the length limit does
			if errors.Is(err, syscall.ELOOP) {
				return nil, fmt.Errorf("%w: symbolic link loop at %s: %v", ErrPathTooLong, childRel, err)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", childAbs, err)
		}

		if b.opts.shouldExclude(childRel, info.IsDir()) {
			log.WithField("path", childRel).Debug("skipping excluded entry")
			continue
		}

		child, err := b.build(childAbs, childRel, info)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	return NewDirectory(absPath, children), nil
}

func (b *Builder) stat(name string) (os.FileInfo, error) {
	if b.opts.followLinks {
		return b.fs.Stat(name)
	}
	if lstater, ok := b.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err
	}
	return b.fs.Stat(name)
}

func (b *Builder) readlink(name string) (string, error) {
	reader, ok := b.fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("filesystem %s cannot read links", b.fs.Name())
	}
	return reader.ReadlinkIfPossible(name)
}

// readDirNames lists a directory in the order the filesystem reports it.
func (b *Builder) readDirNames(name string) ([]string, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}
