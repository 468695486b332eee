package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/smartstudy/smartstudy/internal/repository"
	"github.com/smartstudy/smartstudy/internal/respond"
	"github.com/smartstudy/smartstudy/internal/service"
	"github.com/smartstudy/smartstudy/internal/storage"
)

const maxJSONBody = 1 << 20

// writeError maps service and repository errors to API responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.AsValidation(err); ok {
		respond.Error(w, http.StatusBadRequest, ve.Msg)
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailAlreadyExists):
		respond.Error(w, http.StatusConflict, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, "Invalid Credentials")
	case errors.Is(err, repository.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrResourceNotFound):
		respond.Error(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, repository.ErrDiscussionNotFound):
		respond.Error(w, http.StatusNotFound, "Discussion not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		respond.Error(w, http.StatusNotFound, "File not found")
	default:
		respond.ServerError(w, r, err)
	}
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// readFormFile parses a multipart request of at most maxBytes and reads
// the named file into memory. It returns nil when no file was sent.
func readFormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*service.FileInput, error) {
	// Room for the other form fields and multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	err := r.ParseMultipartForm(maxBytes + 1<<20)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &service.ValidationError{Msg: fmt.Sprintf("file too large: maximum size is %d MB", maxBytes>>20)}
		}
		return nil, &service.ValidationError{Msg: "Invalid multipart form"}
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		return nil, &service.ValidationError{Msg: fmt.Sprintf("file too large: maximum size is %d MB", maxBytes>>20)}
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}

	return &service.FileInput{Name: header.Filename, Data: data}, nil
}
