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

type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	ByID(ctx context.Context, id string) (*model.Resource, error)
	// List returns every resource, newest first.
	List(ctx context.Context) ([]*model.Resource, error)
	// ByIDs returns the resources that exist among ids, newest first.
	ByIDs(ctx context.Context, ids []string) ([]*model.Resource, error)
	// ToggleLike adds userID to the likes or removes it when present,
	// as one atomic operation. It returns the new likes list.
	ToggleLike(ctx context.Context, resourceID, userID string) (likes []string, liked bool, err error)
}

type resourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.New().String()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO resources (id, title, description, subject, file_url, file_key, original_file_name, mime_type, size, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		resource.ID,
		resource.Title,
		resource.Description,
		resource.Subject,
		resource.FileURL,
		resource.FileKey,
		resource.OriginalFileName,
		resource.MimeType,
		resource.Size,
		resource.CreatedByID,
		resource.CreatedAt,
	)
	if err != nil {
		return err
	}

	if resource.Likes == nil {
		resource.Likes = []string{}
	}
	return nil
}

func (r *resourceRepository) ByID(ctx context.Context, id string) (*model.Resource, error) {
	resource := &model.Resource{}
	query := `SELECT * FROM resources WHERE id = $1`

	err := r.db.GetContext(ctx, resource, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.loadLikes(ctx, []*model.Resource{resource})
	if err != nil {
		return nil, err
	}
	return resource, nil
}

func (r *resourceRepository) List(ctx context.Context) ([]*model.Resource, error) {
	resources := []*model.Resource{}
	query := `SELECT * FROM resources ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &resources, query)
	if err != nil {
		return nil, err
	}

	err = r.loadLikes(ctx, resources)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepository) ByIDs(ctx context.Context, ids []string) ([]*model.Resource, error) {
	resources := []*model.Resource{}
	if len(ids) == 0 {
		return resources, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM resources WHERE id IN (?) ORDER BY created_at DESC, id DESC`, ids)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &resources, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	err = r.loadLikes(ctx, resources)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepository) ToggleLike(ctx context.Context, resourceID, userID string) ([]string, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, lockForUpdate(r.db, `SELECT 1 FROM resources WHERE id = $1`), resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrResourceNotFound
	}
	if err != nil {
		return nil, false, err
	}

	liked, err := toggleRow(ctx, tx,
		`DELETE FROM resource_likes WHERE resource_id = $1 AND user_id = $2`,
		`INSERT INTO resource_likes (resource_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		resourceID, userID,
	)
	if err != nil {
		return nil, false, err
	}

	likes := []string{}
	err = tx.SelectContext(ctx, &likes, `SELECT user_id FROM resource_likes WHERE resource_id = $1 ORDER BY created_at, user_id`, resourceID)
	if err != nil {
		return nil, false, err
	}

	return likes, liked, tx.Commit()
}

type likeRow struct {
	ResourceID string `db:"resource_id"`
	UserID     string `db:"user_id"`
}

// loadLikes fills Likes for all resources with a single query.
func (r *resourceRepository) loadLikes(ctx context.Context, resources []*model.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	byID := make(map[string]*model.Resource, len(resources))
	ids := make([]string, 0, len(resources))
	for _, res := range resources {
		res.Likes = []string{}
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	query, args, err := sqlx.In(`SELECT resource_id, user_id FROM resource_likes WHERE resource_id IN (?) ORDER BY created_at, user_id`, ids)
	if err != nil {
		return err
	}

	var rows []likeRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if res, ok := byID[row.ResourceID]; ok {
			res.Likes = append(res.Likes, row.UserID)
		}
	}
	return nil
}
