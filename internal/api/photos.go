package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// ListPhotos fetches one page of the photo timeline, newest first.
func (c *Client) ListPhotos(ctx context.Context, offset, limit int) (*models.PhotoList, error) {
	path := fmt.Sprintf("/api/photos?offset=%d&limit=%d", offset, limit)

	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list models.PhotoList
	if err := decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return &list, nil
}

// GetPhoto fetches a single photo record.
func (c *Client) GetPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/photos/"+url.PathEscape(photoID), nil)
	if err != nil {
		return nil, err
	}

	var photo models.Photo
	if err := decodeResponse(resp, &photo); err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", photoID, err)
	}
	return &photo, nil
}

// DeletePhoto removes a photo.
func (c *Client) DeletePhoto(ctx context.Context, photoID string) error {
	resp, err := c.doRequest(ctx, nethttp.MethodDelete, "/api/photos/"+url.PathEscape(photoID), nil)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", photoID, err)
	}
	return nil
}

// ListAlbums fetches all albums for the account.
func (c *Client) ListAlbums(ctx context.Context) ([]models.Album, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/albums", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Albums []models.Album `json:"albums"`
	}
	if err := decodeResponse(resp, &payload); err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return payload.Albums, nil
}

// CreateAlbum creates a new empty album.
func (c *Client) CreateAlbum(ctx context.Context, name string) (*models.Album, error) {
	body := map[string]string{"name": name}

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/api/albums", body)
	if err != nil {
		return nil, err
	}

	var album models.Album
	if err := decodeResponse(resp, &album); err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return &album, nil
}

// DeleteAlbum removes an album. Photos in it are kept.
func (c *Client) DeleteAlbum(ctx context.Context, albumID string) error {
	resp, err := c.doRequest(ctx, nethttp.MethodDelete, "/api/albums/"+url.PathEscape(albumID), nil)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("failed to delete album %s: %w", albumID, err)
	}
	return nil
}

// AddPhotoToAlbum links an existing photo into an album.
func (c *Client) AddPhotoToAlbum(ctx context.Context, albumID, photoID string) error {
	body := map[string]string{"photo_id": photoID}

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/api/albums/"+url.PathEscape(albumID)+"/photos", body)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("failed to add photo to album %s: %w", albumID, err)
	}
	return nil
}
