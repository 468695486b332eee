package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartstudy/smartstudy/internal/cache"
	"github.com/smartstudy/smartstudy/internal/markdown"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/repository"
)

type CreateDiscussionInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type DiscussionService struct {
	discussionRepository repository.DiscussionRepository
	markdown             *markdown.Parser
	cache                *cache.Cache
	feedTTL              time.Duration
	populate             populator
}

func NewDiscussionService(
	discussionRepository repository.DiscussionRepository,
	userRepository repository.UserRepository,
	parser *markdown.Parser,
	c *cache.Cache,
	feedTTL time.Duration,
) *DiscussionService {
	return &DiscussionService{
		discussionRepository: discussionRepository,
		markdown:             parser,
		cache:                c,
		feedTTL:              feedTTL,
		populate:             populator{users: userRepository},
	}
}

func (s *DiscussionService) Create(ctx context.Context, authorID string, in CreateDiscussionInput) (*model.Discussion, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, invalid("Title and content are required")
	}

	discussion := &model.Discussion{
		Title:     title,
		Content:   content,
		Tags:      cleanTags(in.Tags),
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	err := s.discussionRepository.Create(ctx, discussion)
	if err != nil {
		return nil, fmt.Errorf("failed to create discussion: %w", err)
	}
	s.cache.Invalidate(ctx, cache.KeyDiscussionFeed)

	err = s.populate.discussions(ctx, discussion)
	if err != nil {
		return nil, err
	}
	s.render(discussion)
	return discussion, nil
}

// List returns all discussions newest first with authors populated.
func (s *DiscussionService) List(ctx context.Context) ([]*model.Discussion, error) {
	var discussions []*model.Discussion
	err := s.cache.Aside(ctx, cache.KeyDiscussionFeed, &discussions, s.feedTTL, func() error {
		list, err := s.discussionRepository.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list discussions: %w", err)
		}
		err = s.populate.discussions(ctx, list...)
		if err != nil {
			return err
		}
		for _, d := range list {
			s.render(d)
		}
		discussions = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	if discussions == nil {
		discussions = []*model.Discussion{}
	}
	return discussions, nil
}

func (s *DiscussionService) ByID(ctx context.Context, id string) (*model.Discussion, error) {
	discussion, err := s.discussionRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.populate.discussions(ctx, discussion)
	if err != nil {
		return nil, err
	}
	s.render(discussion)
	return discussion, nil
}

// AddAnswer prepends an answer and returns the answers newest first.
func (s *DiscussionService) AddAnswer(ctx context.Context, discussionID, authorID, text string) ([]*model.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Answer text is required")
	}

	answer := &model.Answer{
		Text:      text,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	answers, err := s.discussionRepository.AddAnswer(ctx, discussionID, answer)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyDiscussionFeed)

	err = s.populate.answers(ctx, answers)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		a.TextHTML = s.markdown.HTML(a.Text)
	}
	return answers, nil
}

func (s *DiscussionService) render(d *model.Discussion) {
	d.ContentHTML = s.markdown.HTML(d.Content)
	for _, a := range d.Answers {
		a.TextHTML = s.markdown.HTML(a.Text)
	}
}

// cleanTags trims tags and drops empty ones.
func cleanTags(tags []string) model.Tags {
	out := model.Tags{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
