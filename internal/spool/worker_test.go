package spool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/api"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// fakeUploader records upload calls and fails the filenames it is told to.
type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	failWith map[string]error

	// onUpload lets a test interleave actions mid-batch
	onUpload func(filename string)
}

func (f *fakeUploader) UploadPhoto(ctx context.Context, localPath, filename string, progress api.ProgressFunc) (*models.UploadResult, error) {
	f.mu.Lock()
	f.uploaded = append(f.uploaded, filename)
	hook := f.onUpload
	err := f.failWith[filename]
	f.mu.Unlock()

	if hook != nil {
		hook(filename)
	}
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(100, 100)
	}
	return &models.UploadResult{PhotoID: "ph-" + filename, Status: "completed"}, nil
}

func (f *fakeUploader) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

func TestWorkerDrainsBatchInOrder(t *testing.T) {
	state := newTestState(t)
	uploader := &fakeUploader{}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	if err := state.AddBatch("b1", testRecords("a.jpg", "b.jpg", "c.jpg")); err != nil {
		t.Fatal(err)
	}

	worker.drainBatch(context.Background(), "b1")

	calls := uploader.calls()
	if len(calls) != 3 || calls[0] != "a.jpg" || calls[1] != "b.jpg" || calls[2] != "c.jpg" {
		t.Errorf("Expected in-order uploads, got %v", calls)
	}

	status, _ := state.Status("b1")
	if status != StatusCompleted {
		t.Errorf("Expected completed, got %s", status)
	}

	records, _ := state.Records("b1")
	for _, r := range records {
		if !r.ResponseReady || !r.ResponseOK {
			t.Errorf("Record %s not marked uploaded: %+v", r.Filename, r)
		}
		if r.PhotoID == "" {
			t.Errorf("Record %s missing photo ID", r.Filename)
		}
	}
}

func TestWorkerIsolatesFileFailures(t *testing.T) {
	state := newTestState(t)
	uploader := &fakeUploader{
		failWith: map[string]error{"b.jpg": errors.New("quota exceeded")},
	}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	if err := state.AddBatch("b1", testRecords("a.jpg", "b.jpg", "c.jpg")); err != nil {
		t.Fatal(err)
	}

	worker.drainBatch(context.Background(), "b1")

	// The failure must not stop the files after it
	if calls := uploader.calls(); len(calls) != 3 {
		t.Errorf("Expected all 3 files attempted, got %v", calls)
	}

	status, _ := state.Status("b1")
	if status != StatusFailed {
		t.Errorf("Expected failed, got %s", status)
	}

	p, err := state.Progress("b1")
	if err != nil {
		t.Fatal(err)
	}
	if p.UploadedFiles != 2 || p.FailedFiles != 1 {
		t.Errorf("Unexpected counts: %+v", p)
	}
	if !p.Done {
		t.Error("Terminal batch must report done")
	}

	records, _ := state.Records("b1")
	if records[1].Error == "" {
		t.Error("Failed record must carry the error message")
	}
}

func TestWorkerSkipsAlreadyFinishedRecords(t *testing.T) {
	state := newTestState(t)
	uploader := &fakeUploader{}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	if err := state.AddBatch("b1", testRecords("a.jpg", "b.jpg")); err != nil {
		t.Fatal(err)
	}
	// a.jpg finished before a daemon restart
	if err := state.UpdateRecord("b1", 0, func(r *Record) {
		r.ResponseReady = true
		r.ResponseOK = true
	}); err != nil {
		t.Fatal(err)
	}

	worker.drainBatch(context.Background(), "b1")

	calls := uploader.calls()
	if len(calls) != 1 || calls[0] != "b.jpg" {
		t.Errorf("Expected only b.jpg uploaded, got %v", calls)
	}
}

func TestWorkerStopsOnAbort(t *testing.T) {
	state := newTestState(t)
	uploader := &fakeUploader{}
	uploader.onUpload = func(filename string) {
		// Abort lands while the first file is in flight
		if filename == "a.jpg" {
			if err := state.SetStatus("b1", StatusAborted); err != nil {
				t.Error(err)
			}
		}
	}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	if err := state.AddBatch("b1", testRecords("a.jpg", "b.jpg", "c.jpg")); err != nil {
		t.Fatal(err)
	}

	worker.drainBatch(context.Background(), "b1")

	if calls := uploader.calls(); len(calls) != 1 {
		t.Errorf("Expected upload loop to stop after abort, got %v", calls)
	}
	status, _ := state.Status("b1")
	if status != StatusAborted {
		t.Errorf("Expected aborted, got %s", status)
	}
}

// blockingUploader holds every upload open until its context is
// cancelled.
type blockingUploader struct {
	mu       sync.Mutex
	uploaded []string
	inFlight chan string // receives the filename when an upload starts
}

func (b *blockingUploader) UploadPhoto(ctx context.Context, localPath, filename string, progress api.ProgressFunc) (*models.UploadResult, error) {
	b.mu.Lock()
	b.uploaded = append(b.uploaded, filename)
	b.mu.Unlock()

	select {
	case b.inFlight <- filename:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingUploader) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploaded...)
}

func TestAbortCancelsInFlightUpload(t *testing.T) {
	state := newTestState(t)
	uploader := &blockingUploader{inFlight: make(chan string, 1)}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	if err := state.AddBatch("b1", testRecords("a.jpg", "b.jpg")); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.drainBatch(context.Background(), "b1")
	}()

	select {
	case <-uploader.inFlight:
	case <-time.After(2 * time.Second):
		t.Fatal("Upload never started")
	}

	// The abort handler's sequence: mark the batch, cut the upload
	if err := state.AbortBatch("b1"); err != nil {
		t.Fatal(err)
	}
	worker.CancelBatch("b1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Abort must cancel the upload in flight")
	}

	status, _ := state.Status("b1")
	if status != StatusAborted {
		t.Errorf("Expected aborted, got %s", status)
	}
	records, _ := state.Records("b1")
	for _, r := range records {
		if !r.ResponseReady || r.ResponseOK {
			t.Errorf("Aborted record must be marked, got %+v", r)
		}
	}
	if calls := uploader.calls(); len(calls) != 1 {
		t.Errorf("Files after the abort must never start, got %v", calls)
	}
}

func TestWorkerReportsBatchDone(t *testing.T) {
	state := newTestState(t)
	uploader := &fakeUploader{}
	worker := NewWorker(state, uploader, logging.NewDefaultCLILogger())

	var doneBatch string
	var doneProgress *Progress
	worker.OnBatchDone = func(batchID string, p *Progress) {
		doneBatch = batchID
		doneProgress = p
	}

	if err := state.AddBatch("b1", testRecords("a.jpg")); err != nil {
		t.Fatal(err)
	}
	worker.drainBatch(context.Background(), "b1")

	if doneBatch != "b1" {
		t.Errorf("Expected done callback for b1, got %q", doneBatch)
	}
	if doneProgress == nil || doneProgress.UploadedFiles != 1 {
		t.Errorf("Unexpected done progress: %+v", doneProgress)
	}
}
