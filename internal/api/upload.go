package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"os"
	"sync/atomic"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// ProgressFunc receives cumulative bytes sent and the file's total size.
type ProgressFunc func(sent, total int64)

// countingReader tracks bytes read from the underlying file and reports
// them through the progress callback.
type countingReader struct {
	r        io.Reader
	total    int64
	sent     atomic.Int64
	progress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		sent := cr.sent.Add(int64(n))
		if cr.progress != nil {
			cr.progress(sent, cr.total)
		}
	}
	return n, err
}

// UploadPhoto streams one local file to the direct-upload endpoint as a
// multipart request. The upload bypasses the retrying JSON client: the
// body is a one-shot stream, so a 401 is handled by refreshing and
// reopening the file for exactly one more attempt.
func (c *Client) UploadPhoto(ctx context.Context, localPath, filename string, progress ProgressFunc) (*models.UploadResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("upload filename must not be empty")
	}

	if c.tokens != nil && c.tokens.Refresh() != "" && c.tokens.NeedsRefresh() {
		if err := c.refreshTokens(ctx, c.tokens.Generation()); err != nil {
			c.logger.Debug().Err(err).Msg("Proactive token refresh failed, relying on 401 handling")
		}
	}

	gen := uint64(0)
	if c.tokens != nil {
		gen = c.tokens.Generation()
	}

	resp, err := c.sendUpload(ctx, localPath, filename, progress)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized && c.tokens != nil && c.tokens.Refresh() != "" {
		drainAndClose(resp.Body)
		if err := c.refreshTokens(ctx, gen); err != nil {
			return nil, err
		}
		resp, err = c.sendUpload(ctx, localPath, filename, progress)
		if err != nil {
			return nil, err
		}
	}

	var result models.UploadResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("upload of %s failed: %w", filename, err)
	}
	return &result, nil
}

// sendUpload performs a single multipart POST attempt, opening the file
// fresh so retries never resume a half-consumed stream.
func (c *Client) sendUpload(ctx context.Context, localPath, filename string, progress ProgressFunc) (*nethttp.Response, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", localPath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	counted := &countingReader{r: file, total: info.Size(), progress: progress}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		defer file.Close()

		part, err := writer.CreateFormFile(constants.MultipartFieldName, filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, counted); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	uploadURL := c.baseURL + "/api/upload/direct?filename=" + url.QueryEscape(filename)
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, uploadURL, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if access := c.tokens.Access(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload of %s failed: %w", filename, err)
	}
	return resp, nil
}
