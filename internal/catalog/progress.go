package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// Progress reports catalog files as they finish parsing
type Progress interface {
	// FileDone marks one file as parsed
	FileDone(path string, products int) error
	// Close clears the progress line
	Close()
}

// NoopProgress is a progress tracker that does nothing
type NoopProgress struct{}

func (p *NoopProgress) FileDone(string, int) error { return nil }
func (p *NoopProgress) Close()                     {}

// NewNoopProgress creates a new no-op progress tracker
func NewNoopProgress() *NoopProgress {
	return &NoopProgress{}
}

// BarProgress shows a bar over catalog files with a running product count
type BarProgress struct {
	bar      *progressbar.ProgressBar
	w        io.Writer
	products int
}

// FileDone advances the bar and shows the last file and the products so far.
// Files finish concurrently, so callers serialise calls.
func (p *BarProgress) FileDone(path string, products int) error {
	p.products += products
	p.bar.Describe(fmt.Sprintf("%s (%d products)", filepath.Base(path), p.products))
	return p.bar.Add(1)
}

func (p *BarProgress) Close() {
	fmt.Fprint(p.w, "\r\033[K")
}

// NewBarProgress creates a progress bar over total catalog files on stderr
func NewBarProgress(total int) *BarProgress {
	return newBarProgress(total, os.Stderr)
}

func newBarProgress(total int, w io.Writer) *BarProgress {
	return &BarProgress{
		w: w,
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Loading catalog"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(0),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "#",
				SaucerPadding: ".",
				BarStart:      "|",
				BarEnd:        "|",
			})),
	}
}
