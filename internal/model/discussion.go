package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Discussion struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	Tags        Tags      `db:"tags" json:"tags"`
	AuthorID    string    `db:"author_id" json:"-"`
	AnswerCount int64     `db:"answer_count" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	ContentHTML string    `db:"-" json:"contentHtml"`

	Author  UserSummary `db:"-" json:"author"`
	Answers []*Answer   `db:"-" json:"answers"` // newest first
}

type Answer struct {
	ID           string    `db:"id" json:"id"`
	DiscussionID string    `db:"discussion_id" json:"-"`
	Text         string    `db:"text" json:"text"`
	AuthorID     string    `db:"author_id" json:"-"`
	Upvotes      int       `db:"upvotes" json:"upvotes"`
	Seq          int64     `db:"seq" json:"-"` // insertion order, highest is newest
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	TextHTML     string    `db:"-" json:"textHtml"`

	Author UserSummary `db:"-" json:"author"`
}

// Tags is stored as a JSON array in SQL databases.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported type %T", src)
	}
	var out []string
	err := json.Unmarshal(raw, &out)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}
