package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// Object storage folders.
const (
	FolderResources = "study-resources"
	FolderAvatars   = "avatars"
)

// Uploaded identifies a stored object.
type Uploaded struct {
	Key string
	URL string
}

// Uploader puts in-memory files into one folder of a Storage.
// Each call issues a single request; there is no retry or resumable upload.
type Uploader struct {
	store   Storage
	folder  string
	timeout time.Duration
}

func NewUploader(store Storage, folder string, timeout time.Duration) *Uploader {
	return &Uploader{
		store:   store,
		folder:  folder,
		timeout: timeout,
	}
}

// Upload stores body under <folder>/<uuid>-<sanitized name> and returns its key and URL.
func (u *Uploader) Upload(ctx context.Context, body []byte, originalName, contentType string) (*Uploaded, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	key := ObjectKey(u.folder, originalName)
	err := u.store.Save(ctx, key, bytes.NewReader(body), int64(len(body)), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", originalName, err)
	}

	return &Uploaded{Key: key, URL: u.store.URL(key)}, nil
}

// Remove deletes an object previously returned by Upload.
func (u *Uploader) Remove(ctx context.Context, key string) error {
	return u.store.Delete(ctx, key)
}

// Open streams an object previously returned by Upload.
func (u *Uploader) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	return u.store.Open(ctx, key)
}

// ObjectKey builds a unique key for originalName inside folder.
func ObjectKey(folder, originalName string) string {
	return path.Join(folder, uuid.New().String()+"-"+SanitizeFileName(originalName))
}
