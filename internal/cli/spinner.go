package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
)

var styleIconSpinner = StyleNumber

// Spinner is a progress indicator for a batch of references. It doubles as
// extract hooks so the label tracks how many references have finished.
type Spinner struct {
	w       io.Writer
	message string
	total   int
	done    atomic.Int64
	ctx     context.Context
	cancel  context.CancelFunc
	stop    chan struct{}
	stopped chan struct{}
	frames  []string
	once    sync.Once
	mu      sync.Mutex
	width   int
}

// newSpinner creates a spinner that writes to w and stops when ctx is
// cancelled. total is the number of references in the batch.
func newSpinner(ctx context.Context, w io.Writer, message string, total int) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		total:   total,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
			}
		}
	}()
}

// Stop stops the spinner and clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.stop)
		<-s.stopped
		s.clearLine()
	})
}

// Cancelled reports whether the spinner stopped because its context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// Label returns the current text, e.g. "Extracting 2/5".
func (s *Spinner) Label() string {
	return fmt.Sprintf("%s %d/%d", s.message, s.done.Load(), s.total)
}

// OnExtractStart implements observability.ExtractHooks.
func (s *Spinner) OnExtractStart(context.Context, string) {}

// OnExtractComplete implements observability.ExtractHooks.
func (s *Spinner) OnExtractComplete(context.Context, string, int, time.Duration, error) {
	s.done.Add(1)
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.Label()
	s.width = max(s.width, len(line)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
