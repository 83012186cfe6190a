package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Bar renders a single self-overwriting progress line from the byte counts
// reported by a hashing writer.
type Bar struct {
	mu        sync.Mutex
	writer    io.Writer
	width     int
	total     int64
	completed int64 // bytes of fully hashed files
	current   int64 // bytes of the file being hashed
	path      string
	start     time.Time
	now       func() time.Time
}

func New(out io.Writer, total int64) *Bar {
	b := &Bar{
		writer: out,
		width:  30,
		total:  total,
		now:    time.Now,
	}
	b.start = b.now()
	return b
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func (b *Bar) FileStarted(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.completed += b.current
	b.current = 0
	b.path = path
	b.render()
}

// BytesProcessed receives the running count for the current file.
func (b *Bar) BytesProcessed(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = n
	b.render()
}

// Processed returns the bytes hashed so far across all files.
func (b *Bar) Processed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed + b.current
}

// ETA extrapolates the remaining time from the throughput so far.
func (b *Bar) ETA() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eta()
}

func (b *Bar) eta() time.Duration {
	done := b.completed + b.current
	if done <= 0 {
		return 0
	}
	remaining := b.total - done
	if remaining <= 0 {
		return 0
	}
	elapsed := b.now().Sub(b.start)
	return time.Duration(float64(remaining) * float64(elapsed) / float64(done))
}

// render must be called with mu already locked. Write errors are ignored so
// that a broken terminal never affects hashing.
func (b *Bar) render() {
	done := b.completed + b.current

	percent := 100
	filledWidth := b.width
	if b.total > 0 {
		percent = int(done * 100 / b.total)
		filledWidth = int(int64(b.width) * done / b.total)
	}
	percent = min(percent, 100)
	filledWidth = min(filledWidth, b.width)

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", b.width-filledWidth)

	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% %s/%s ETA %s %s",
		bar, percent,
		humanize.Bytes(uint64(done)), humanize.Bytes(uint64(max(b.total, 0))),
		b.eta().Round(time.Second), b.path)
}

// Finish marks the current file as complete and ends the progress line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.completed += b.current
	b.current = 0
	b.path = ""
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
