// Package status implements the upload status widget: a pull/push
// hybrid view that merges lifecycle events from the bus with polled
// spool daemon state into one batch list.
package status

import (
	"errors"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
)

// FileView is one file row, shown only while the widget is expanded.
type FileView struct {
	Filename string
	Done     bool
	OK       bool
	Error    string
}

// BatchView is one batch row of the widget.
type BatchView struct {
	BatchID  string
	Strategy string
	Status   string // spool.Status* values
	Percent  float64

	UploadedFiles int
	FailedFiles   int
	TotalFiles    int

	UploadedBytes int64
	TotalBytes    int64

	// FinishedAt is stamped when the batch first turns terminal; Prune
	// uses it to age batches out of the display.
	FinishedAt time.Time

	Files []FileView
}

// Done reports whether the batch is terminal.
func (b BatchView) Done() bool {
	switch b.Status {
	case spool.StatusCompleted, spool.StatusFailed, spool.StatusAborted:
		return true
	}
	return false
}

// Model is the widget's whole state. Merge functions below are pure:
// they return the next model plus a changed flag, and applying the
// same input twice never reports a change twice.
type Model struct {
	Batches  []BatchView
	Expanded bool
}

// ActiveSpoolBatches lists the spool batches still worth polling.
func (m Model) ActiveSpoolBatches() []string {
	var ids []string
	for _, b := range m.Batches {
		if b.Strategy == "spool" && !b.Done() {
			ids = append(ids, b.BatchID)
		}
	}
	return ids
}

// Drained reports whether every known batch is terminal.
func (m Model) Drained() bool {
	if len(m.Batches) == 0 {
		return false
	}
	for _, b := range m.Batches {
		if !b.Done() {
			return false
		}
	}
	return true
}

func (m Model) cloneBatches() []BatchView {
	out := make([]BatchView, len(m.Batches))
	copy(out, m.Batches)
	return out
}

func (m Model) find(batchID string) int {
	for i, b := range m.Batches {
		if b.BatchID == batchID {
			return i
		}
	}
	return -1
}

// ApplyEvent folds one bus event into the model.
func ApplyEvent(m Model, ev events.Event) (Model, bool) {
	switch e := ev.(type) {
	case *events.UploadStartEvent:
		if m.find(e.BatchID) >= 0 {
			return m, false
		}
		next := m
		next.Batches = append(m.cloneBatches(), BatchView{
			BatchID:    e.BatchID,
			Strategy:   e.Strategy,
			Status:     spool.StatusUploading,
			TotalFiles: e.Total,
		})
		return next, true

	case *events.UploadProgressEvent:
		i := m.find(e.BatchID)
		if i < 0 {
			return m, false
		}
		b := m.Batches[i]
		if b.Done() {
			return m, false
		}
		// Current is the file being uploaded; completed count is one behind
		uploaded := e.Current - 1
		percent := 0.0
		if e.Total > 0 {
			percent = float64(uploaded) / float64(e.Total) * 100
		}
		if b.UploadedFiles == uploaded && b.Percent == percent && b.Status == spool.StatusUploading {
			return m, false
		}
		b.UploadedFiles = uploaded
		b.Percent = percent
		b.Status = spool.StatusUploading
		next := m
		next.Batches = m.cloneBatches()
		next.Batches[i] = b
		return next, true

	case *events.UploadCompleteEvent:
		i := m.find(e.BatchID)
		if i < 0 {
			return m, false
		}
		b := m.Batches[i]
		if b.Done() {
			return m, false
		}
		uploaded, failed := 0, 0
		files := make([]FileView, len(e.Results))
		for j, r := range e.Results {
			files[j] = FileView{Filename: r.Filename, Done: true, OK: r.OK}
			if r.OK {
				uploaded++
			} else {
				failed++
				if r.Err != nil {
					files[j].Error = r.Err.Error()
				}
			}
		}
		b.Status = spool.StatusCompleted
		if failed > 0 {
			b.Status = spool.StatusFailed
		}
		b.UploadedFiles = uploaded
		b.FailedFiles = failed
		b.Percent = 100
		b.Files = files
		b.FinishedAt = now()
		next := m
		next.Batches = m.cloneBatches()
		next.Batches[i] = b
		return next, true

	case *events.UploadErrorEvent:
		// Per-file errors surface through complete/records; only a
		// batch-level error changes the batch row.
		if e.Filename != "" {
			return m, false
		}
		i := m.find(e.BatchID)
		if i < 0 || m.Batches[i].Done() {
			return m, false
		}
		b := m.Batches[i]
		b.Status = spool.StatusFailed
		if errors.Is(e.Err, events.ErrCancelled) {
			b.Status = spool.StatusAborted
		}
		b.FinishedAt = now()
		next := m
		next.Batches = m.cloneBatches()
		next.Batches[i] = b
		return next, true
	}

	return m, false
}

// ApplyProgress folds one polled spool aggregate into the model. Byte
// totals win over file counts for the percent when the daemon knows
// them.
func ApplyProgress(m Model, p *spool.Progress) (Model, bool) {
	i := m.find(p.BatchID)
	if i < 0 {
		// The daemon can know batches this process never started
		next := m
		next.Batches = append(m.cloneBatches(), batchFromProgress(p))
		return next, true
	}

	b := m.Batches[i]
	updated := batchFromProgress(p)
	updated.Files = b.Files
	updated.FinishedAt = b.FinishedAt
	if updated.Done() && updated.FinishedAt.IsZero() {
		updated.FinishedAt = now()
	}
	if batchEqual(b, updated) {
		return m, false
	}
	next := m
	next.Batches = m.cloneBatches()
	next.Batches[i] = updated
	return next, true
}

// ApplyRecords folds the expensive per-file view into the model.
func ApplyRecords(m Model, batchID string, records []spool.Record) (Model, bool) {
	i := m.find(batchID)
	if i < 0 {
		return m, false
	}

	files := make([]FileView, len(records))
	for j, r := range records {
		files[j] = FileView{
			Filename: r.Filename,
			Done:     r.ResponseReady,
			OK:       r.ResponseOK,
			Error:    r.Error,
		}
	}

	if filesEqual(m.Batches[i].Files, files) {
		return m, false
	}
	next := m
	next.Batches = m.cloneBatches()
	next.Batches[i].Files = files
	return next, true
}

// SetExpanded toggles the per-file view.
func SetExpanded(m Model, expanded bool) (Model, bool) {
	if m.Expanded == expanded {
		return m, false
	}
	next := m
	next.Expanded = expanded
	return next, true
}

func batchFromProgress(p *spool.Progress) BatchView {
	b := BatchView{
		BatchID:       p.BatchID,
		Strategy:      "spool",
		Status:        p.Status,
		UploadedFiles: p.UploadedFiles,
		FailedFiles:   p.FailedFiles,
		TotalFiles:    p.TotalFiles,
		UploadedBytes: p.Uploaded,
		TotalBytes:    p.Total,
	}
	if p.Total > 0 {
		b.Percent = float64(p.Uploaded) / float64(p.Total) * 100
	} else if p.TotalFiles > 0 {
		b.Percent = float64(p.UploadedFiles+p.FailedFiles) / float64(p.TotalFiles) * 100
	}
	if b.Done() {
		b.Percent = 100
		b.FinishedAt = now()
	}
	return b
}

// Prune drops batches that have been terminal longer than grace, so a
// long-running watch never accumulates finished rows.
func Prune(m Model, grace time.Duration) (Model, bool) {
	var kept []BatchView
	changed := false
	for _, b := range m.Batches {
		if b.Done() && !b.FinishedAt.IsZero() && now().Sub(b.FinishedAt) >= grace {
			changed = true
			continue
		}
		kept = append(kept, b)
	}
	if !changed {
		return m, false
	}
	next := m
	next.Batches = kept
	return next, true
}

func batchEqual(a, b BatchView) bool {
	return a.BatchID == b.BatchID &&
		a.Strategy == b.Strategy &&
		a.Status == b.Status &&
		a.Percent == b.Percent &&
		a.UploadedFiles == b.UploadedFiles &&
		a.FailedFiles == b.FailedFiles &&
		a.TotalFiles == b.TotalFiles &&
		a.UploadedBytes == b.UploadedBytes &&
		a.TotalBytes == b.TotalBytes
}

func filesEqual(a, b []FileView) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// now is stubbed in tests.
var now = time.Now
