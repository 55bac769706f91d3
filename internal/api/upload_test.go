package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

func writeTempPhoto(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beach.jpg")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestUploadPhotoMultipart(t *testing.T) {
	photoPath := writeTempPhoto(t, 4096)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/upload/direct", r.URL.Path)
		assert.Equal(t, "beach.jpg", r.URL.Query().Get("filename"))
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile(constants.MultipartFieldName)
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "beach.jpg", header.Filename)
		assert.Equal(t, int64(4096), header.Size)

		json.NewEncoder(w).Encode(map[string]string{
			"photo_id": "ph-123", "status": "completed",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.Tokens().Set("access-1", ""))

	var lastSent, lastTotal int64
	result, err := client.UploadPhoto(context.Background(), photoPath, "beach.jpg", func(sent, total int64) {
		lastSent, lastTotal = sent, total
	})
	require.NoError(t, err)
	assert.Equal(t, "ph-123", result.PhotoID)
	assert.Equal(t, "completed", result.Status)

	assert.Equal(t, int64(4096), lastSent)
	assert.Equal(t, int64(4096), lastTotal)
}

func TestUploadPhotoRetriesOnceAfter401(t *testing.T) {
	photoPath := writeTempPhoto(t, 1024)
	var uploadCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "access-new",
				"refresh_token": "refresh-new",
			})
		case "/api/upload/direct":
			uploadCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer access-new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile(constants.MultipartFieldName)
			require.NoError(t, err)
			// Second attempt must carry the full file, not a drained stream
			assert.Equal(t, int64(1024), header.Size)
			json.NewEncoder(w).Encode(map[string]string{"photo_id": "ph-9", "status": "completed"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.Tokens().Set("access-stale", "refresh-1"))

	result, err := client.UploadPhoto(context.Background(), photoPath, "beach.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, "ph-9", result.PhotoID)
	assert.Equal(t, int32(2), uploadCalls.Load())
}

func TestUploadPhotoDuplicate(t *testing.T) {
	photoPath := writeTempPhoto(t, 128)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "duplicate photo"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.Tokens().Set("a", ""))

	_, err := client.UploadPhoto(context.Background(), photoPath, "dup.jpg", nil)
	require.Error(t, err)
	assert.True(t, IsDuplicateError(err))
}

func TestUploadPhotoMissingFile(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	require.NoError(t, client.Tokens().Set("a", ""))

	_, err := client.UploadPhoto(context.Background(), "/does/not/exist.jpg", "x.jpg", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
