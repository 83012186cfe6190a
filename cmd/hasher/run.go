package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"hasher/internal/compare"
	"hasher/internal/hash"
	"hasher/internal/manifest"
	"hasher/internal/progress"
	"hasher/internal/report"
	"hasher/internal/tree"
	"hasher/internal/walker"
)

// errDifferences ends a verify run whose tree does not match the manifest.
var errDifferences = errors.New("verification found differences")

type options struct {
	root           string
	algorithm      string
	format         string
	followLinks    bool
	output         string
	verify         string
	manifestFormat string
	exclude        []string
	progress       bool
	rootDigest     bool
}

type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	// interactive enables banners and colored verify output.
	interactive bool
	log         *log.Entry
}

func title(s string) string {
	return aurora.Bold(s).String()
}

func (a *app) banner(format string, args ...interface{}) {
	if a.interactive {
		fmt.Fprintln(a.stderr, title(fmt.Sprintf(format, args...)))
	}
}

func (a *app) run(opts options) error {
	calc, err := hash.DefaultCatalog().New(opts.algorithm)
	if err != nil {
		return err
	}

	var parse manifest.ParseFunc
	formats := report.DefaultFormats()
	if opts.verify != "" {
		if parse, err = manifest.DefaultParsers().Lookup(opts.manifestFormat); err != nil {
			return err
		}
	} else if !formats.Has(opts.format) {
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, opts.format)
	}

	a.log.WithFields(log.Fields{
		"algorithm": opts.algorithm,
		"format":    opts.format,
		"links":     opts.followLinks,
	}).Debug("Settings resolved")

	var expected manifest.Data
	if opts.verify != "" {
		if expected, err = manifest.Load(a.fs, opts.verify, parse); err != nil {
			return err
		}
		a.log.WithField("entries", len(expected)).Debug("Manifest loaded")
	}

	builderOpts := []tree.Option{tree.WithExclude(opts.exclude...)}
	if opts.followLinks {
		builderOpts = append(builderOpts, tree.WithFollowLinks())
	}

	a.banner("Scanning %s", opts.root)
	root, err := tree.NewBuilder(a.fs, builderOpts...).Build(opts.root)
	if err != nil {
		return err
	}

	return a.withOutput(opts.output, func(out io.Writer) error {
		if opts.verify != "" {
			return a.verify(opts, out, root, calc, expected)
		}
		return a.hash(opts, out, root, calc, formats)
	})
}

func (a *app) hash(opts options, out io.Writer, root tree.Node, calc hash.Calculator, formats *report.Formats) error {
	w, err := formats.New(opts.format, out, calc)
	if err != nil {
		return err
	}

	var recorded manifest.Data
	if opts.rootDigest {
		recorder, ok := w.(report.Recorder)
		if !ok {
			return fmt.Errorf("format %q has no checksums for a root digest", opts.format)
		}
		recorder.Record(&recorded)
	}

	a.banner("Hashing %d bytes with %s", root.Size(), opts.algorithm)
	if err := a.traverse(opts, root, w); err != nil {
		return err
	}

	if opts.rootDigest {
		return a.printRootDigest(recorded, calc)
	}
	return nil
}

func (a *app) verify(opts options, out io.Writer, root tree.Node, calc hash.Calculator, expected manifest.Data) error {
	var actual manifest.Data
	a.banner("Verifying %s against %s", opts.root, opts.verify)
	if err := a.traverse(opts, root, report.NewCapture(calc, &actual)); err != nil {
		return err
	}

	result := compare.Compare(expected, actual)
	colorize := a.interactive && opts.output == ""
	if err := compare.WriteReport(out, result, colorize); err != nil {
		return err
	}

	if opts.rootDigest {
		if err := a.printRootDigest(actual, calc); err != nil {
			return err
		}
	}

	s := result.Summary()
	a.log.WithFields(log.Fields{
		"ok":       s.OK,
		"modified": s.Modified,
		"new":      s.New,
		"deleted":  s.Deleted,
	}).Info("Verification finished")

	if result.HasChanges() {
		return errDifferences
	}
	return nil
}

func (a *app) traverse(opts options, root tree.Node, w report.Writer) error {
	if !opts.progress {
		return walker.Run(root, w)
	}

	bar := progress.New(a.stderr, root.Size())
	err := walker.Run(root, w, bar)
	bar.Finish()
	return err
}

func (a *app) printRootDigest(data manifest.Data, calc hash.Calculator) error {
	digest, err := data.RootDigest(calc)
	if err != nil {
		return err
	}
	label := "Root digest:"
	if a.interactive {
		label = title(label)
	}
	fmt.Fprintf(a.stderr, "%s %s\n", label, digest)
	return nil
}

// withOutput runs fn on stdout or on the named file. Writes go straight
// through so a broken sink stops the traversal at the next file. The file is
// closed even when fn fails.
func (a *app) withOutput(path string, fn func(out io.Writer) error) (err error) {
	if path == "" {
		return fn(a.stdout)
	}

	f, err := a.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return fn(f)
}
