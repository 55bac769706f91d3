package status

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// TerminalRenderer draws one mpb bar per batch. On a non-TTY it falls
// back to plain text lines, one per state change.
type TerminalRenderer struct {
	mu         sync.Mutex
	progress   *mpb.Progress
	bars       map[string]*mpb.Bar
	lastLine   map[string]string
	isTerminal bool
	lastRender time.Time
	out        io.Writer
}

// NewTerminalRenderer creates a renderer writing to stderr.
func NewTerminalRenderer() *TerminalRenderer {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &TerminalRenderer{
		progress:   p,
		bars:       make(map[string]*mpb.Bar),
		lastLine:   make(map[string]string),
		isTerminal: isTerminal,
		out:        os.Stderr,
	}
}

// Render draws the model. Throttled: repaints closer together than the
// minimum interval are dropped (the next poll repaints anyway).
func (r *TerminalRenderer) Render(model Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastRender) < constants.StatusRenderMinInterval {
		return
	}
	r.lastRender = time.Now()

	for _, batch := range model.Batches {
		if r.isTerminal {
			r.renderBar(batch)
		} else {
			r.renderLine(batch)
		}
		if model.Expanded {
			r.renderFiles(batch)
		}
	}
}

func (r *TerminalRenderer) renderBar(batch BatchView) {
	bar, ok := r.bars[batch.BatchID]
	if !ok {
		id := batch.BatchID
		strategy := batch.Strategy
		bar = r.progress.New(100,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					return fmt.Sprintf("%s (%s)", id, strategy)
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncSpace),
			),
		)
		r.bars[batch.BatchID] = bar
	}

	bar.SetCurrent(int64(batch.Percent))
	if batch.Done() {
		bar.SetTotal(100, true)
	}
}

func (r *TerminalRenderer) renderLine(batch BatchView) {
	line := fmt.Sprintf("%s (%s): %s %d/%d files, %.0f%%",
		batch.BatchID, batch.Strategy, batch.Status,
		batch.UploadedFiles, batch.TotalFiles, batch.Percent)
	if batch.FailedFiles > 0 {
		line += fmt.Sprintf(", %d failed", batch.FailedFiles)
	}

	// Only print on change; non-TTY output is likely a log file
	if r.lastLine[batch.BatchID] == line {
		return
	}
	r.lastLine[batch.BatchID] = line
	fmt.Fprintln(r.out, line)
}

func (r *TerminalRenderer) renderFiles(batch BatchView) {
	for _, f := range batch.Files {
		state := "pending"
		switch {
		case f.Done && f.OK:
			state = "done"
		case f.Done:
			state = "failed: " + f.Error
		}
		line := fmt.Sprintf("  %s: %s", f.Filename, state)
		key := batch.BatchID + "/" + f.Filename
		if r.lastLine[key] == line {
			continue
		}
		r.lastLine[key] = line

		if r.isTerminal {
			r.progress.Write([]byte(line + "\n"))
		} else {
			fmt.Fprintln(r.out, line)
		}
	}
}

// Close waits for the bars to settle.
func (r *TerminalRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bar := range r.bars {
		if !bar.Completed() && !bar.Aborted() {
			bar.Abort(true)
		}
	}
	r.progress.Wait()
}
