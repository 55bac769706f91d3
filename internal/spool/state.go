package spool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// batchState is the daemon-side record of one registration.
type batchState struct {
	BatchID    string    `json:"batch_id"`
	Status     string    `json:"status"`
	Records    []*Record `json:"records"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// State maintains the daemon's persistent registration state. Batches
// survive daemon restarts: pending and uploading batches resume.
type State struct {
	mu sync.RWMutex

	// Batches keyed by batch ID
	Batches map[string]*batchState `json:"batches"`

	// Version for state file format migration
	Version string `json:"version"`

	// Origin is the API origin this daemon is bound to
	Origin string `json:"origin"`

	filePath string
}

// NewState creates a state instance bound to the given API origin.
func NewState(filePath, origin string) *State {
	return &State{
		Batches:  make(map[string]*batchState),
		Version:  constants.SpoolStateVersion,
		Origin:   origin,
		filePath: filePath,
	}
}

// Load reads state from the file system. A missing file means a fresh
// state. Batches interrupted mid-upload are reset to pending so the
// worker picks them up again.
func (s *State) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.Batches = make(map[string]*batchState)
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	origin := s.Origin
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	// The binding origin comes from config, not from disk
	s.Origin = origin

	if s.Batches == nil {
		s.Batches = make(map[string]*batchState)
	}
	for _, b := range s.Batches {
		if b.Status == StatusUploading {
			b.Status = StatusPending
		}
	}
	return nil
}

// Save writes state to the file system atomically.
func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *State) saveLocked() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// AddBatch registers a new batch in pending state.
func (s *State) AddBatch(batchID string, records []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Batches[batchID]; exists {
		return fmt.Errorf("batch %s already registered", batchID)
	}

	s.Batches[batchID] = &batchState{
		BatchID:   batchID,
		Status:    StatusPending,
		Records:   records,
		CreatedAt: time.Now(),
	}
	return s.saveLocked()
}

// NextPending returns the oldest pending batch ID, or "" when the
// queue is drained.
func (s *State) NextPending() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *batchState
	for _, b := range s.Batches {
		if b.Status != StatusPending {
			continue
		}
		if oldest == nil || b.CreatedAt.Before(oldest.CreatedAt) {
			oldest = b
		}
	}
	if oldest == nil {
		return ""
	}
	return oldest.BatchID
}

// SetStatus moves a batch to the given status, stamping FinishedAt for
// terminal states.
func (s *State) SetStatus(batchID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return ErrUnknownBatch
	}
	b.Status = status
	switch status {
	case StatusCompleted, StatusFailed, StatusAborted:
		b.FinishedAt = time.Now()
	}
	return s.saveLocked()
}

// AbortBatch marks the batch aborted and stamps every unfinished record
// so the per-file view shows what never uploaded.
func (s *State) AbortBatch(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return ErrUnknownBatch
	}
	b.Status = StatusAborted
	b.FinishedAt = time.Now()
	for _, r := range b.Records {
		if !r.ResponseReady {
			r.ResponseReady = true
			r.ResponseOK = false
			r.Error = "aborted"
		}
	}
	return s.saveLocked()
}

// Status returns the batch status, or ErrUnknownBatch.
func (s *State) Status(batchID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return "", ErrUnknownBatch
	}
	return b.Status, nil
}

// UpdateRecord applies fn to the record at index i of the batch and
// persists. The worker uses it to stream byte counts and responses.
func (s *State) UpdateRecord(batchID string, i int, fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return ErrUnknownBatch
	}
	if i < 0 || i >= len(b.Records) {
		return fmt.Errorf("record index %d out of range for batch %s", i, batchID)
	}
	fn(b.Records[i])
	return s.saveLocked()
}

// SetRecordBytes updates the uploaded byte count without persisting;
// byte progress is volatile and not worth an fsync per chunk.
func (s *State) SetRecordBytes(batchID string, i int, uploaded int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.Batches[batchID]
	if !exists || i < 0 || i >= len(b.Records) {
		return
	}
	b.Records[i].Uploaded = uploaded
}

// Registrations returns the batch-level view, newest first.
func (s *State) Registrations() []Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regs := make([]Registration, 0, len(s.Batches))
	for _, b := range s.Batches {
		var total int64
		for _, r := range b.Records {
			total += r.Size
		}
		regs = append(regs, Registration{
			BatchID:    b.BatchID,
			Status:     b.Status,
			FileCount:  len(b.Records),
			TotalBytes: total,
			CreatedAt:  b.CreatedAt,
			FinishedAt: b.FinishedAt,
		})
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
	return regs
}

// Progress computes the aggregate for one batch.
func (s *State) Progress(batchID string) (*Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return nil, ErrUnknownBatch
	}

	p := &Progress{
		BatchID:    b.BatchID,
		Status:     b.Status,
		TotalFiles: len(b.Records),
	}
	for _, r := range b.Records {
		p.Total += r.Size
		p.Uploaded += r.Uploaded
		if r.ResponseReady {
			if r.ResponseOK {
				p.UploadedFiles++
			} else {
				p.FailedFiles++
			}
		}
	}
	switch b.Status {
	case StatusCompleted, StatusFailed, StatusAborted:
		p.Done = true
	}
	return p, nil
}

// Records returns copies of the per-file records for one batch.
func (s *State) Records(batchID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.Batches[batchID]
	if !exists {
		return nil, ErrUnknownBatch
	}

	out := make([]Record, len(b.Records))
	for i, r := range b.Records {
		out[i] = *r
	}
	return out, nil
}

// PruneFinished drops terminal batches older than maxAge. Returns the
// number removed.
func (s *State) PruneFinished(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, b := range s.Batches {
		switch b.Status {
		case StatusCompleted, StatusFailed, StatusAborted:
			if b.FinishedAt.Before(cutoff) {
				delete(s.Batches, id)
				removed++
			}
		}
	}
	if removed > 0 {
		_ = s.saveLocked()
	}
	return removed
}
