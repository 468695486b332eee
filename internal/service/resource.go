package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/smartstudy/smartstudy/internal/cache"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/observability"
	"github.com/smartstudy/smartstudy/internal/repository"
	"github.com/smartstudy/smartstudy/internal/storage"
	"github.com/smartstudy/smartstudy/internal/validation"
)

type CreateResourceInput struct {
	Title       string
	Description string
	Subject     string
	File        *FileInput
}

type ResourceService struct {
	resourceRepository repository.ResourceRepository
	userRepository     repository.UserRepository
	files              FileUploader
	cache              *cache.Cache
	feedTTL            time.Duration
	populate           populator
}

func NewResourceService(
	resourceRepository repository.ResourceRepository,
	userRepository repository.UserRepository,
	files FileUploader,
	c *cache.Cache,
	feedTTL time.Duration,
) *ResourceService {
	return &ResourceService{
		resourceRepository: resourceRepository,
		userRepository:     userRepository,
		files:              files,
		cache:              c,
		feedTTL:            feedTTL,
		populate:           populator{users: userRepository},
	}
}

// Create validates the input, uploads the PDF and then records the resource.
// Nothing reaches storage unless validation passed; if the record cannot be
// written the uploaded object is removed.
func (s *ResourceService) Create(ctx context.Context, userID string, in CreateResourceInput) (*model.Resource, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, invalid("Title and description are required")
	}
	if in.File == nil || len(in.File.Data) == 0 {
		return nil, invalid("Please upload a PDF file")
	}

	contentType, err := validation.ValidateContent(in.File.Name, in.File.Data, validation.PDFConstraints)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}

	uploaded, err := s.files.Upload(ctx, in.File.Data, in.File.Name, contentType)
	if err != nil {
		observability.Uploads.WithLabelValues("resource", "error").Inc()
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	resource := &model.Resource{
		Title:            title,
		Description:      description,
		Subject:          strings.TrimSpace(in.Subject),
		FileURL:          uploaded.URL,
		FileKey:          uploaded.Key,
		OriginalFileName: in.File.Name,
		MimeType:         contentType,
		Size:             int64(len(in.File.Data)),
		CreatedByID:      userID,
		CreatedAt:        time.Now().UTC(),
	}

	err = s.resourceRepository.Create(ctx, resource)
	if err != nil {
		delErr := s.files.Remove(context.WithoutCancel(ctx), uploaded.Key)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "key", uploaded.Key)
		}
		observability.Uploads.WithLabelValues("resource", "error").Inc()
		return nil, fmt.Errorf("failed to create resource record: %w", err)
	}
	observability.Uploads.WithLabelValues("resource", "ok").Inc()
	slog.Info("resource uploaded", "resource_id", resource.ID, "user_id", userID, "size", resource.Size)

	s.cache.Invalidate(ctx, cache.KeyResourceFeed)

	err = s.populate.resources(ctx, resource)
	if err != nil {
		return nil, err
	}
	return resource, nil
}

// List returns all resources newest first, served from the feed cache when possible.
func (s *ResourceService) List(ctx context.Context) ([]*model.Resource, error) {
	var resources []*model.Resource
	err := s.cache.Aside(ctx, cache.KeyResourceFeed, &resources, s.feedTTL, func() error {
		list, err := s.resourceRepository.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list resources: %w", err)
		}
		err = s.populate.resources(ctx, list...)
		if err != nil {
			return err
		}
		resources = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resources == nil {
		resources = []*model.Resource{}
	}
	return resources, nil
}

// Saved returns the user's saved resources newest first. Saved ids whose
// resource no longer exists are skipped.
func (s *ResourceService) Saved(ctx context.Context, userID string) ([]*model.Resource, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.SavedResources) == 0 {
		return []*model.Resource{}, nil
	}

	resources, err := s.resourceRepository.ByIDs(ctx, user.SavedResources)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved resources: %w", err)
	}

	err = s.populate.resources(ctx, resources...)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// ToggleLike likes the resource for userID or removes the like.
func (s *ResourceService) ToggleLike(ctx context.Context, resourceID, userID string) ([]string, error) {
	likes, liked, err := s.resourceRepository.ToggleLike(ctx, resourceID, userID)
	if err != nil {
		return nil, err
	}

	observability.Toggles.WithLabelValues("like", observability.State(liked)).Inc()
	s.cache.Invalidate(ctx, cache.KeyResourceFeed)
	return likes, nil
}

// Download opens the stored file of a resource. The caller closes the reader.
func (s *ResourceService) Download(ctx context.Context, resourceID string) (*model.Resource, io.ReadCloser, *storage.ObjectInfo, error) {
	resource, err := s.resourceRepository.ByID(ctx, resourceID)
	if err != nil {
		return nil, nil, nil, err
	}

	body, info, err := s.files.Open(ctx, resource.FileKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	if info.ContentType == "" {
		info.ContentType = resource.MimeType
	}
	return resource, body, info, nil
}
