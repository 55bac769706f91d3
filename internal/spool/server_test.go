package spool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
)

// startTestDaemon runs a server with a no-op worker on a short-lived
// unix socket and returns a client for it.
func startTestDaemon(t *testing.T) (*Client, *State) {
	t.Helper()

	state := NewState(filepath.Join(t.TempDir(), "state.json"), "https://photos.example.com")
	worker := NewWorker(state, &fakeUploader{}, logging.NewDefaultCLILogger())

	// Unix socket paths have a tight length limit; keep it short
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("pb-%d.sock", time.Now().UnixNano()%1e9))
	t.Cleanup(func() { os.Remove(socketPath) })

	server := NewServer(socketPath, state, worker, logging.NewDefaultCLILogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := server.Serve(ctx); err != nil {
			t.Errorf("server error: %v", err)
		}
	}()

	client := NewClient(socketPath)
	require.Eventually(t, func() bool {
		return client.Available(context.Background())
	}, 2*time.Second, 10*time.Millisecond, "daemon never came up")

	return client, state
}

func TestServerRegisterAndQuery(t *testing.T) {
	client, _ := startTestDaemon(t)
	ctx := context.Background()

	origin, err := client.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.example.com", origin)

	files := []UploadRequest{
		{LocalPath: "/tmp/a.jpg", Filename: "a.jpg", Size: 100},
		{LocalPath: "/tmp/b.jpg", Filename: "b.jpg", Size: 200},
	}
	require.NoError(t, client.Register(ctx, "native-123", files))

	// Duplicate registration is rejected
	require.Error(t, client.Register(ctx, "native-123", files))

	regs, err := client.Registrations(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "native-123", regs[0].BatchID)
	assert.Equal(t, 2, regs[0].FileCount)
	assert.Equal(t, int64(300), regs[0].TotalBytes)

	progress, err := client.Progress(ctx, "native-123")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.TotalFiles)
	assert.Equal(t, int64(300), progress.Total)

	records, err := client.Records(ctx, "native-123")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.jpg", records[0].Filename)
	assert.NotEmpty(t, records[0].ID)
}

func TestServerUnknownBatch(t *testing.T) {
	client, _ := startTestDaemon(t)
	ctx := context.Background()

	_, err := client.Progress(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownBatch)

	_, err = client.Records(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownBatch)

	assert.ErrorIs(t, client.Abort(ctx, "missing"), ErrUnknownBatch)
}

func TestServerAbort(t *testing.T) {
	client, state := startTestDaemon(t)
	ctx := context.Background()

	files := []UploadRequest{{LocalPath: "/tmp/a.jpg", Filename: "a.jpg", Size: 100}}
	require.NoError(t, client.Register(ctx, "b1", files))

	require.NoError(t, client.Abort(ctx, "b1"))
	status, err := state.Status("b1")
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, status)

	// The unfinished record is stamped so the per-file view shows what
	// never uploaded
	records, err := state.Records("b1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].ResponseReady)
	assert.False(t, records[0].ResponseOK)
	assert.Equal(t, "aborted", records[0].Error)

	// Aborting a terminal batch is a no-op, not an error
	require.NoError(t, client.Abort(ctx, "b1"))
}

func TestServerRejectsEmptyRegistration(t *testing.T) {
	client, _ := startTestDaemon(t)

	err := client.Register(context.Background(), "b1", nil)
	require.Error(t, err)
}

func TestClientUnavailableWithoutDaemon(t *testing.T) {
	client := NewClient(filepath.Join(os.TempDir(), "pb-never-exists.sock"))
	assert.False(t, client.Available(context.Background()))
}
