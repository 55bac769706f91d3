package cache

import (
	"context"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// ListingClient is the slice of the API client the listings cache
// wraps.
type ListingClient interface {
	ListPhotos(ctx context.Context, offset, limit int) (*models.PhotoList, error)
	ListAlbums(ctx context.Context) ([]models.Album, error)
}

// Listings serves photo and album listings through the TTL cache, so
// repeated reads inside one session hit the service once until an
// upload drain (or expiry) invalidates them.
type Listings struct {
	cache  *Cache
	client ListingClient
}

type photoPage struct {
	offset, limit int
	list          *models.PhotoList
}

// NewListings wraps a client with the cache.
func NewListings(client ListingClient, ttl time.Duration, logger *logging.Logger) *Listings {
	return &Listings{
		cache:  New(ttl, logger),
		client: client,
	}
}

// Cache exposes the underlying cache (for Watch).
func (l *Listings) Cache() *Cache {
	return l.cache
}

// Photos returns one listing page, cached. Only the exact same page is
// a hit; a different offset or limit refetches.
func (l *Listings) Photos(ctx context.Context, offset, limit int) (*models.PhotoList, error) {
	if v, ok := l.cache.Get(constants.CacheKeyPhotos); ok {
		if page, ok := v.(photoPage); ok && page.offset == offset && page.limit == limit {
			return page.list, nil
		}
	}

	list, err := l.client.ListPhotos(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	l.cache.Put(constants.CacheKeyPhotos, photoPage{offset: offset, limit: limit, list: list})
	return list, nil
}

// Albums returns the album listing, cached.
func (l *Listings) Albums(ctx context.Context) ([]models.Album, error) {
	if v, ok := l.cache.Get(constants.CacheKeyAlbums); ok {
		if albums, ok := v.([]models.Album); ok {
			return albums, nil
		}
	}

	albums, err := l.client.ListAlbums(ctx)
	if err != nil {
		return nil, err
	}
	l.cache.Put(constants.CacheKeyAlbums, albums)
	return albums, nil
}
