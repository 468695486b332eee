package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smartstudy/smartstudy/internal/model"
)

type DiscussionRepository interface {
	Create(ctx context.Context, discussion *model.Discussion) error
	// List returns every discussion newest first, answers included.
	List(ctx context.Context) ([]*model.Discussion, error)
	ByID(ctx context.Context, id string) (*model.Discussion, error)
	// AddAnswer prepends answer and returns the full answers list, newest first.
	AddAnswer(ctx context.Context, discussionID string, answer *model.Answer) ([]*model.Answer, error)
}

type discussionRepository struct {
	db *sqlx.DB
}

func NewDiscussionRepository(db *sqlx.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) Create(ctx context.Context, discussion *model.Discussion) error {
	if discussion.ID == "" {
		discussion.ID = uuid.New().String()
	}
	if discussion.CreatedAt.IsZero() {
		discussion.CreatedAt = time.Now().UTC()
	}
	if discussion.Tags == nil {
		discussion.Tags = model.Tags{}
	}

	query := `INSERT INTO discussions (id, title, content, tags, author_id, answer_count, created_at)
	          VALUES ($1, $2, $3, $4, $5, 0, $6)`

	_, err := r.db.ExecContext(ctx, query,
		discussion.ID,
		discussion.Title,
		discussion.Content,
		discussion.Tags,
		discussion.AuthorID,
		discussion.CreatedAt,
	)
	if err != nil {
		return err
	}

	discussion.Answers = []*model.Answer{}
	return nil
}

func (r *discussionRepository) List(ctx context.Context) ([]*model.Discussion, error) {
	discussions := []*model.Discussion{}
	query := `SELECT * FROM discussions ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &discussions, query)
	if err != nil {
		return nil, err
	}

	err = r.loadAnswers(ctx, discussions)
	if err != nil {
		return nil, err
	}
	return discussions, nil
}

func (r *discussionRepository) ByID(ctx context.Context, id string) (*model.Discussion, error) {
	discussion := &model.Discussion{}
	query := `SELECT * FROM discussions WHERE id = $1`

	err := r.db.GetContext(ctx, discussion, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiscussionNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.loadAnswers(ctx, []*model.Discussion{discussion})
	if err != nil {
		return nil, err
	}
	return discussion, nil
}

func (r *discussionRepository) AddAnswer(ctx context.Context, discussionID string, answer *model.Answer) ([]*model.Answer, error) {
	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}
	answer.DiscussionID = discussionID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The counter update locks the discussion row and hands out the sequence number
	var seq int64
	err = tx.GetContext(ctx, &seq,
		`UPDATE discussions SET answer_count = answer_count + 1 WHERE id = $1 RETURNING answer_count`,
		discussionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiscussionNotFound
	}
	if err != nil {
		return nil, err
	}
	answer.Seq = seq

	query := `INSERT INTO answers (id, discussion_id, text, author_id, upvotes, seq, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, query,
		answer.ID,
		answer.DiscussionID,
		answer.Text,
		answer.AuthorID,
		answer.Upvotes,
		answer.Seq,
		answer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	answers := []*model.Answer{}
	err = tx.SelectContext(ctx, &answers, `SELECT * FROM answers WHERE discussion_id = $1 ORDER BY seq DESC`, discussionID)
	if err != nil {
		return nil, err
	}

	return answers, tx.Commit()
}

// loadAnswers fills Answers (newest first) for all discussions with a single query.
func (r *discussionRepository) loadAnswers(ctx context.Context, discussions []*model.Discussion) error {
	if len(discussions) == 0 {
		return nil
	}

	byID := make(map[string]*model.Discussion, len(discussions))
	ids := make([]string, 0, len(discussions))
	for _, d := range discussions {
		d.Answers = []*model.Answer{}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	query, args, err := sqlx.In(`SELECT * FROM answers WHERE discussion_id IN (?) ORDER BY seq DESC`, ids)
	if err != nil {
		return err
	}

	var answers []*model.Answer
	err = r.db.SelectContext(ctx, &answers, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}

	for _, a := range answers {
		if d, ok := byID[a.DiscussionID]; ok {
			d.Answers = append(d.Answers, a)
		}
	}
	return nil
}
