package service

import (
	"context"
	"io"

	"github.com/smartstudy/smartstudy/internal/storage"
)

// FileUploader is the object storage surface the services need.
// *storage.Uploader implements it.
type FileUploader interface {
	Upload(ctx context.Context, body []byte, originalName, contentType string) (*storage.Uploaded, error)
	Remove(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error)
}

// FileInput is an uploaded file read into memory by the handler.
// A nil *FileInput means no file was sent.
type FileInput struct {
	Name string
	Data []byte
}
