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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	// Summaries resolves user references. Unknown ids are absent from the map.
	Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	SetProfilePicture(ctx context.Context, id, url string) error
	// ToggleSaved adds resourceID to the user's saved list or removes it
	// when present, as one atomic operation. It returns the new list.
	ToggleSaved(ctx context.Context, userID, resourceID string) (saved []string, added bool, err error)
	SavedIDs(ctx context.Context, userID string) ([]string, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (id, name, email, password_hash, bio, major, profile_picture, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.Major,
		user.ProfilePicture,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	if user.SavedResources == nil {
		user.SavedResources = []string{}
	}
	return nil
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.SavedResources, err = r.SavedIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.SavedResources, err = r.SavedIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, profile_picture FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var rows []model.UserSummary
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, bio = $2, major = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Bio, user.Major, user.ID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrUserNotFound)
}

func (r *userRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	query := `UPDATE users SET profile_picture = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, url, id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrUserNotFound)
}

func (r *userRepository) ToggleSaved(ctx context.Context, userID, resourceID string) ([]string, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var exists int
	// The parent row lock serializes toggles for the same user on PostgreSQL
	err = tx.GetContext(ctx, &exists, lockForUpdate(r.db, `SELECT 1 FROM users WHERE id = $1`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrUserNotFound
	}
	if err != nil {
		return nil, false, err
	}

	added, err := toggleRow(ctx, tx,
		`DELETE FROM saved_resources WHERE user_id = $1 AND resource_id = $2`,
		`INSERT INTO saved_resources (user_id, resource_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		userID, resourceID,
	)
	if err != nil {
		return nil, false, err
	}

	saved := []string{}
	err = tx.SelectContext(ctx, &saved, `SELECT resource_id FROM saved_resources WHERE user_id = $1 ORDER BY created_at, resource_id`, userID)
	if err != nil {
		return nil, false, err
	}

	return saved, added, tx.Commit()
}

func (r *userRepository) SavedIDs(ctx context.Context, userID string) ([]string, error) {
	saved := []string{}
	query := `SELECT resource_id FROM saved_resources WHERE user_id = $1 ORDER BY created_at, resource_id`

	err := r.db.SelectContext(ctx, &saved, query, userID)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// toggleRow deletes the (a, b) row, or inserts it when nothing was deleted.
// It reports whether the row exists afterwards.
// lockForUpdate appends a row lock for drivers that support one.
// SQLite has a single writer, so its transactions never interleave.
func lockForUpdate(db *sqlx.DB, query string) string {
	switch db.DriverName() {
	case "pgx", "postgres":
		return query + " FOR UPDATE"
	}
	return query
}

func toggleRow(ctx context.Context, tx *sqlx.Tx, deleteQuery, insertQuery, a, b string) (bool, error) {
	result, err := tx.ExecContext(ctx, deleteQuery, a, b)
	if err != nil {
		return false, err
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed > 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, insertQuery, a, b, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return true, nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
