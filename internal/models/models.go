// Package models defines the wire types exchanged with the PhotoBomb API.
package models

import "time"

// TokenPair is the auth response from login/register/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// User describes the authenticated account.
type User struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	StorageQuotaBytes int64  `json:"storage_quota_bytes"`
	StorageUsedBytes  int64  `json:"storage_used_bytes"`
}

// Photo is one photo record in the timeline listing.
type Photo struct {
	PhotoID    string    `json:"photo_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	SHA256     string    `json:"sha256"`
	UploadedAt time.Time `json:"uploaded_at"`
	TakenAt    time.Time `json:"taken_at,omitempty"`
}

// PhotoList is the paginated photo listing response.
type PhotoList struct {
	Photos []Photo `json:"photos"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// Album groups photos.
type Album struct {
	AlbumID    string    `json:"album_id"`
	Name       string    `json:"name"`
	PhotoCount int       `json:"photo_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadResult is the response of a direct photo upload.
// Status is "completed" when the photo was stored, "processing" when a
// backend pipeline is still working on it.
type UploadResult struct {
	PhotoID string `json:"photo_id"`
	Status  string `json:"status"`
}
