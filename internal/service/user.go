package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartstudy/smartstudy/internal/cache"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/observability"
	"github.com/smartstudy/smartstudy/internal/repository"
	"github.com/smartstudy/smartstudy/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	avatars        FileUploader
	cache          *cache.Cache
}

func NewUserService(userRepository repository.UserRepository, avatars FileUploader, c *cache.Cache) *UserService {
	return &UserService{
		userRepository: userRepository,
		avatars:        avatars,
		cache:          c,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

// UpdateProfile applies the provided fields. A provided name must be valid;
// bio and major may be cleared.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		err := validation.ValidateName(name)
		if err != nil {
			return nil, invalid("%s", err.Error())
		}
		update.Name = &name
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		update.Bio = &bio
	}
	if update.Major != nil {
		major := strings.TrimSpace(*update.Major)
		update.Major = &major
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return user, nil
	}

	update.Apply(user)
	err = s.userRepository.UpdateProfile(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// Feeds embed author names
	s.cache.Invalidate(ctx, cache.KeyResourceFeed, cache.KeyDiscussionFeed)
	return user, nil
}

// ToggleSave saves resourceID for the user or removes it when already saved.
func (s *UserService) ToggleSave(ctx context.Context, userID, resourceID string) ([]string, error) {
	saved, added, err := s.userRepository.ToggleSaved(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	observability.Toggles.WithLabelValues("save", observability.State(added)).Inc()
	slog.Debug("saved resources toggled", "user_id", userID, "resource_id", resourceID, "saved", added)
	return saved, nil
}

// UploadAvatar stores an image and points profilePicture at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, file *FileInput) (*model.User, error) {
	if file == nil {
		return nil, invalid("Please upload an image")
	}

	contentType, err := validation.ValidateContent(file.Name, file.Data, validation.ImageConstraints)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}

	_, err = s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.avatars.Upload(ctx, file.Data, file.Name, contentType)
	if err != nil {
		observability.Uploads.WithLabelValues("avatar", "error").Inc()
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	err = s.userRepository.SetProfilePicture(ctx, userID, uploaded.URL)
	if err != nil {
		s.removeObject(ctx, uploaded.Key)
		observability.Uploads.WithLabelValues("avatar", "error").Inc()
		return nil, fmt.Errorf("failed to set profile picture: %w", err)
	}
	observability.Uploads.WithLabelValues("avatar", "ok").Inc()

	s.cache.Invalidate(ctx, cache.KeyResourceFeed, cache.KeyDiscussionFeed)
	return s.userRepository.ByID(ctx, userID)
}

func (s *UserService) removeObject(ctx context.Context, key string) {
	err := s.avatars.Remove(context.WithoutCancel(ctx), key)
	if err != nil {
		slog.Error("failed to delete file from storage during cleanup", "error", err, "key", key)
	}
}
