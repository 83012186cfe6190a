package walker

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hasher/internal/report"
	"hasher/internal/tree"
)

// Run traverses root with w on a background goroutine and blocks until the
// traversal and the final Flush are done. Observers are attached when w
// hashes file content and are notified on the traversal goroutine.
// A started traversal cannot be cancelled.
func Run(root tree.Node, w report.Writer, observers ...report.Observer) error {
	if len(observers) > 0 {
		observable, ok := w.(report.Observable)
		if ok {
			for _, o := range observers {
				observable.AddObserver(o)
			}
		} else {
			log.Debug("Report format does not hash files, progress observers ignored")
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := root.Accept(w); err != nil {
			return fmt.Errorf("failed to traverse %s: %w", root.Path(), err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to finish report: %w", err)
		}
		return nil
	})

	return g.Wait()
}
