package service

import (
	"context"
	"fmt"

	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/repository"
)

// populator resolves soft user references with one lookup per call.
type populator struct {
	users repository.UserRepository
}

func (p populator) lookup(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	summaries, err := p.users.Summaries(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to populate users: %w", err)
	}
	return summaries, nil
}

// summary returns the resolved user, or a bare reference when the user is gone.
func summary(summaries map[string]model.UserSummary, id string) model.UserSummary {
	s, ok := summaries[id]
	if !ok {
		return model.UserSummary{ID: id}
	}
	return s
}

func (p populator) resources(ctx context.Context, resources ...*model.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.CreatedByID)
	}

	summaries, err := p.lookup(ctx, ids)
	if err != nil {
		return err
	}

	for _, r := range resources {
		r.CreatedBy = summary(summaries, r.CreatedByID)
		if r.Likes == nil {
			r.Likes = []string{}
		}
	}
	return nil
}

func (p populator) discussions(ctx context.Context, discussions ...*model.Discussion) error {
	if len(discussions) == 0 {
		return nil
	}

	var ids []string
	for _, d := range discussions {
		ids = append(ids, d.AuthorID)
		for _, a := range d.Answers {
			ids = append(ids, a.AuthorID)
		}
	}

	summaries, err := p.lookup(ctx, ids)
	if err != nil {
		return err
	}

	for _, d := range discussions {
		d.Author = summary(summaries, d.AuthorID)
		for _, a := range d.Answers {
			a.Author = summary(summaries, a.AuthorID)
		}
	}
	return nil
}

func (p populator) answers(ctx context.Context, answers []*model.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.AuthorID)
	}

	summaries, err := p.lookup(ctx, ids)
	if err != nil {
		return err
	}

	for _, a := range answers {
		a.Author = summary(summaries, a.AuthorID)
	}
	return nil
}
