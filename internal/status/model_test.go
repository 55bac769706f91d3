package status

import (
	"errors"
	"testing"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
)

func startEvent(batchID, strategy string, total int) *events.UploadStartEvent {
	return &events.UploadStartEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadStart, Time: time.Now()},
		BatchID:   batchID,
		Strategy:  strategy,
		Total:     total,
	}
}

func TestApplyEventStart(t *testing.T) {
	m, changed := ApplyEvent(Model{}, startEvent("b1", "spool", 3))
	if !changed {
		t.Fatal("Expected change on first start event")
	}
	if len(m.Batches) != 1 || m.Batches[0].TotalFiles != 3 {
		t.Errorf("Unexpected model: %+v", m)
	}

	// Same event again: no change (idempotent)
	m2, changed := ApplyEvent(m, startEvent("b1", "spool", 3))
	if changed {
		t.Error("Duplicate start event must not report change")
	}
	if len(m2.Batches) != 1 {
		t.Errorf("Duplicate start event must not add a batch")
	}
}

func TestApplyEventProgressAndComplete(t *testing.T) {
	m, _ := ApplyEvent(Model{}, startEvent("b1", "sequential", 2))

	progress := &events.UploadProgressEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadProgress, Time: time.Now()},
		BatchID:   "b1", Current: 2, Total: 2, Filename: "b.jpg",
	}
	m, changed := ApplyEvent(m, progress)
	if !changed {
		t.Fatal("Expected change")
	}
	if m.Batches[0].UploadedFiles != 1 {
		t.Errorf("Current=2 means one file finished, got %d", m.Batches[0].UploadedFiles)
	}

	// Idempotent
	if _, changed := ApplyEvent(m, progress); changed {
		t.Error("Re-applying the same progress must not report change")
	}

	complete := &events.UploadCompleteEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadComplete, Time: time.Now()},
		BatchID:   "b1", Total: 2,
		Results: []events.FileResult{
			{Filename: "a.jpg", OK: true},
			{Filename: "b.jpg", OK: false, Err: errors.New("quota exceeded")},
		},
	}
	m, changed = ApplyEvent(m, complete)
	if !changed {
		t.Fatal("Expected change")
	}
	b := m.Batches[0]
	if b.Status != spool.StatusFailed {
		t.Errorf("Partial failure finishes as failed, got %s", b.Status)
	}
	if b.UploadedFiles != 1 || b.FailedFiles != 1 || b.Percent != 100 {
		t.Errorf("Unexpected terminal batch: %+v", b)
	}
	if len(b.Files) != 2 || b.Files[1].Error == "" {
		t.Errorf("Complete event must populate file rows: %+v", b.Files)
	}

	// Terminal states stick
	if _, changed := ApplyEvent(m, progress); changed {
		t.Error("Progress after completion must not change the model")
	}
	if _, changed := ApplyEvent(m, complete); changed {
		t.Error("Re-applying complete must not report change")
	}
}

func TestApplyEventIgnoresUnknownBatch(t *testing.T) {
	progress := &events.UploadProgressEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadProgress, Time: time.Now()},
		BatchID:   "ghost", Current: 1, Total: 1,
	}
	if _, changed := ApplyEvent(Model{}, progress); changed {
		t.Error("Progress for an unknown batch must be ignored")
	}
}

func TestApplyEventBatchLevelError(t *testing.T) {
	m, _ := ApplyEvent(Model{}, startEvent("b1", "sequential", 1))

	perFile := &events.UploadErrorEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadError, Time: time.Now()},
		BatchID:   "b1", Filename: "a.jpg", Err: errors.New("boom"),
	}
	if _, changed := ApplyEvent(m, perFile); changed {
		t.Error("Per-file errors do not change the batch row")
	}

	batchLevel := &events.UploadErrorEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadError, Time: time.Now()},
		BatchID:   "b1", Err: errors.New("boom"),
	}
	m, changed := ApplyEvent(m, batchLevel)
	if !changed || m.Batches[0].Status != spool.StatusFailed {
		t.Errorf("Batch-level error must fail the batch: %+v", m.Batches[0])
	}
}

func TestApplyEventCancellation(t *testing.T) {
	m, _ := ApplyEvent(Model{}, startEvent("b1", "sequential", 2))

	cancelEv := &events.UploadErrorEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadError, Time: time.Now()},
		BatchID:   "b1", Err: events.ErrCancelled,
	}
	m, changed := ApplyEvent(m, cancelEv)
	if !changed {
		t.Fatal("Expected change")
	}
	b := m.Batches[0]
	if b.Status != spool.StatusAborted {
		t.Errorf("Cancellation must show as aborted, not failed: %+v", b)
	}
	if b.FinishedAt.IsZero() {
		t.Error("Terminal batch must carry a finish time")
	}

	// Terminal states stick
	if _, changed := ApplyEvent(m, cancelEv); changed {
		t.Error("Re-applying the cancellation must not report change")
	}
}

func TestPruneDropsAgedTerminalBatches(t *testing.T) {
	m, _ := ApplyProgress(Model{}, &spool.Progress{
		BatchID: "b1", Status: spool.StatusCompleted,
		TotalFiles: 1, UploadedFiles: 1, Done: true,
	})
	m, _ = ApplyProgress(m, &spool.Progress{
		BatchID: "b2", Status: spool.StatusUploading, TotalFiles: 1,
	})

	if _, changed := Prune(m, time.Hour); changed {
		t.Error("Freshly finished batches stay within the grace period")
	}

	restore := now
	now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	defer func() { now = restore }()

	pruned, changed := Prune(m, time.Hour)
	if !changed {
		t.Fatal("Expected the aged batch to be pruned")
	}
	if len(pruned.Batches) != 1 || pruned.Batches[0].BatchID != "b2" {
		t.Errorf("Active batch must survive the prune: %+v", pruned.Batches)
	}

	if _, changed := Prune(pruned, time.Hour); changed {
		t.Error("Pruning an active-only model must not report change")
	}
}

func TestApplyProgressPrefersBytes(t *testing.T) {
	p := &spool.Progress{
		BatchID: "b1", Status: spool.StatusUploading,
		Uploaded: 250, Total: 1000,
		UploadedFiles: 1, TotalFiles: 2,
	}

	m, changed := ApplyProgress(Model{}, p)
	if !changed {
		t.Fatal("Expected change for new batch")
	}
	if m.Batches[0].Percent != 25 {
		t.Errorf("Expected byte-based 25%%, got %f", m.Batches[0].Percent)
	}

	// Idempotent
	if _, changed := ApplyProgress(m, p); changed {
		t.Error("Re-applying the same progress must not report change")
	}

	// Without byte totals, fall back to file counts
	noBytes := &spool.Progress{
		BatchID: "b2", Status: spool.StatusUploading,
		UploadedFiles: 1, TotalFiles: 4,
	}
	m, _ = ApplyProgress(m, noBytes)
	if got := m.Batches[1].Percent; got != 25 {
		t.Errorf("Expected file-count 25%%, got %f", got)
	}
}

func TestApplyRecords(t *testing.T) {
	m, _ := ApplyProgress(Model{}, &spool.Progress{BatchID: "b1", Status: spool.StatusUploading, TotalFiles: 2})

	records := []spool.Record{
		{Filename: "a.jpg", ResponseReady: true, ResponseOK: true},
		{Filename: "b.jpg", Error: ""},
	}
	m, changed := ApplyRecords(m, "b1", records)
	if !changed {
		t.Fatal("Expected change")
	}
	if len(m.Batches[0].Files) != 2 || !m.Batches[0].Files[0].OK {
		t.Errorf("Unexpected file rows: %+v", m.Batches[0].Files)
	}

	if _, changed := ApplyRecords(m, "b1", records); changed {
		t.Error("Re-applying the same records must not report change")
	}
	if _, changed := ApplyRecords(m, "ghost", records); changed {
		t.Error("Records for an unknown batch must be ignored")
	}
}

func TestModelDrained(t *testing.T) {
	if (Model{}).Drained() {
		t.Error("Empty model has nothing to drain")
	}

	m, _ := ApplyProgress(Model{}, &spool.Progress{BatchID: "b1", Status: spool.StatusUploading, TotalFiles: 1})
	if m.Drained() {
		t.Error("Active batch means not drained")
	}
	if ids := m.ActiveSpoolBatches(); len(ids) != 1 || ids[0] != "b1" {
		t.Errorf("Expected b1 active, got %v", ids)
	}

	m, _ = ApplyProgress(m, &spool.Progress{BatchID: "b1", Status: spool.StatusCompleted, TotalFiles: 1, UploadedFiles: 1, Done: true})
	if !m.Drained() {
		t.Error("All batches terminal means drained")
	}
	if len(m.ActiveSpoolBatches()) != 0 {
		t.Error("Terminal batches are not polled")
	}
}

func TestSetExpanded(t *testing.T) {
	m, changed := SetExpanded(Model{}, true)
	if !changed || !m.Expanded {
		t.Error("Expected expansion")
	}
	if _, changed := SetExpanded(m, true); changed {
		t.Error("Setting the same state must not report change")
	}
}
