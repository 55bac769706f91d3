package cache

import (
	"context"
	"testing"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

type countingClient struct {
	photoCalls int
	albumCalls int
	total      int
}

func (c *countingClient) ListPhotos(ctx context.Context, offset, limit int) (*models.PhotoList, error) {
	c.photoCalls++
	return &models.PhotoList{Total: c.total, Offset: offset, Limit: limit}, nil
}

func (c *countingClient) ListAlbums(ctx context.Context) ([]models.Album, error) {
	c.albumCalls++
	return []models.Album{{AlbumID: "al-1", Name: "Trips"}}, nil
}

func TestListingsCachesPhotos(t *testing.T) {
	client := &countingClient{total: 10}
	l := NewListings(client, time.Minute, logging.NewDefaultCLILogger())

	for i := 0; i < 3; i++ {
		list, err := l.Photos(context.Background(), 0, 50)
		if err != nil {
			t.Fatal(err)
		}
		if list.Total != 10 {
			t.Errorf("Unexpected total %d", list.Total)
		}
	}
	if client.photoCalls != 1 {
		t.Errorf("Expected 1 service call, got %d", client.photoCalls)
	}

	// A different page misses
	if _, err := l.Photos(context.Background(), 50, 50); err != nil {
		t.Fatal(err)
	}
	if client.photoCalls != 2 {
		t.Errorf("Expected 2 service calls, got %d", client.photoCalls)
	}
}

func TestListingsRefetchesAfterInvalidation(t *testing.T) {
	client := &countingClient{total: 10}
	l := NewListings(client, time.Minute, logging.NewDefaultCLILogger())

	if _, err := l.Photos(context.Background(), 0, 50); err != nil {
		t.Fatal(err)
	}

	client.total = 12
	l.Cache().Invalidate(constants.CacheKeyPhotos)

	list, err := l.Photos(context.Background(), 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if list.Total != 12 {
		t.Errorf("Expected fresh total 12 after invalidation, got %d", list.Total)
	}
	if client.photoCalls != 2 {
		t.Errorf("Expected refetch, got %d calls", client.photoCalls)
	}
}

func TestListingsCachesAlbums(t *testing.T) {
	client := &countingClient{}
	l := NewListings(client, time.Minute, logging.NewDefaultCLILogger())

	for i := 0; i < 2; i++ {
		albums, err := l.Albums(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(albums) != 1 {
			t.Errorf("Unexpected albums: %+v", albums)
		}
	}
	if client.albumCalls != 1 {
		t.Errorf("Expected 1 service call, got %d", client.albumCalls)
	}
}
