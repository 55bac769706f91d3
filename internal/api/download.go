package api

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"
)

// DownloadPhoto streams the original photo bytes to destPath, reporting
// byte progress. Returns the number of bytes written. Like uploads, a
// 401 is handled by refreshing and retrying once.
func (c *Client) DownloadPhoto(ctx context.Context, photoID, destPath string, progress ProgressFunc) (int64, error) {
	if c.tokens != nil && c.tokens.Refresh() != "" && c.tokens.NeedsRefresh() {
		if err := c.refreshTokens(ctx, c.tokens.Generation()); err != nil {
			c.logger.Debug().Err(err).Msg("Proactive token refresh failed, relying on 401 handling")
		}
	}

	gen := uint64(0)
	if c.tokens != nil {
		gen = c.tokens.Generation()
	}

	resp, err := c.sendDownload(ctx, photoID)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized && c.tokens != nil && c.tokens.Refresh() != "" {
		drainAndClose(resp.Body)
		if err := c.refreshTokens(ctx, gen); err != nil {
			return 0, err
		}
		resp, err = c.sendDownload(ctx, photoID)
		if err != nil {
			return 0, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer drainAndClose(resp.Body)
		return 0, fmt.Errorf("download of %s failed: %w", photoID, errorFromResponse(resp))
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Write to a partial file first so an interrupted download never
	// leaves a truncated photo at the final path.
	tmpPath := destPath + ".partial"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	counted := &countingReader{r: resp.Body, total: resp.ContentLength, progress: progress}
	written, err := io.Copy(out, counted)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return written, fmt.Errorf("download of %s failed: %w", photoID, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return written, fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	return written, nil
}

func (c *Client) sendDownload(ctx context.Context, photoID string) (*nethttp.Response, error) {
	downloadURL := c.baseURL + "/api/photos/" + url.PathEscape(photoID) + "/original"
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	if c.tokens != nil {
		if access := c.tokens.Access(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download of %s failed: %w", photoID, err)
	}
	return resp, nil
}
