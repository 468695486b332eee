package validation

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ImageConstraints defines validation rules for avatar uploads
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
		MaxSize: 5 << 20, // 5MB
	}

	// PDFConstraints defines validation rules for study resources
	PDFConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"application/pdf": true,
		},
		AllowedExtensions: map[string]bool{
			".pdf": true,
		},
		MaxSize: 10 << 20, // 10MB
	}
)

// ValidateContent checks size, magic number and extension of an in-memory
// file and returns the detected content type.
func ValidateContent(name string, data []byte, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", errors.New("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		contentType, err := validateAgainstConstraint(name, data, constraint)
		if err == nil {
			return contentType, nil
		}
		lastErr = err
	}

	return "", lastErr
}

func validateAgainstConstraint(name string, data []byte, constraints FileConstraints) (string, error) {
	if int64(len(data)) > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}
	if len(data) == 0 {
		return "", errors.New("file is empty")
	}

	// Detect actual content type from the magic number (first 512 bytes),
	// not from the client supplied Content-Type header
	detectedType := http.DetectContentType(data[:min(len(data), 512)])
	detectedType, _, _ = strings.Cut(detectedType, ";")

	if !constraints.AllowedMimeTypes[detectedType] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !constraints.AllowedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %s", ext)
	}

	return detectedType, nil
}
