package seed

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartstudy/smartstudy/internal/app"
	"github.com/smartstudy/smartstudy/internal/config"
	"github.com/smartstudy/smartstudy/internal/db"
	"github.com/smartstudy/smartstudy/internal/storage"
	"github.com/smartstudy/smartstudy/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T) (*Seeder, *storage.MemoryStorage) {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "seed.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	a := &app.App{
		Cfg: &config.Config{
			AppName:         "SmartStudy",
			AppURL:          "http://localhost:5000",
			JWTSecret:       "seed-secret-seed-secret-seed-secret",
			JWTExpiry:       time.Hour,
			RateLimitAuth:   10,
			RateLimitWindow: time.Minute,
			EmailDevMode:    true,
			S3UploadTimeout: 5 * time.Second,
		},
		DB: database,
	}
	store := storage.NewMemoryStorage("http://files.test")
	app.Wire(a, app.SQLRepositories(database), store)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	return New(a.AuthService, a.UserService, a.ResourceService, a.DiscussionService), store
}

func TestRun(t *testing.T) {
	s, store := newSeeder(t)
	ctx := t.Context()

	res, err := s.Run(ctx, Counts{Users: 3, Resources: 4, Discussions: 2})
	require.NoError(t, err)
	assert.Len(t, res.UserIDs, 3)
	assert.Len(t, res.ResourceIDs, 4)
	assert.Len(t, res.DiscussionIDs, 2)
	assert.Len(t, store.Keys(), 4)

	resources, err := s.Resources.List(ctx)
	require.NoError(t, err)
	assert.Len(t, resources, 4)

	discussions, err := s.Discussions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, discussions, 2)

	// every seeded account can log in with the shared password
	user, err := s.Users.ByID(ctx, res.UserIDs[0])
	require.NoError(t, err)
	_, err = s.Auth.Login(ctx, user.Email, Password)
	assert.NoError(t, err)
}

func TestRunRequiresUsers(t *testing.T) {
	s, _ := newSeeder(t)

	_, err := s.Run(t.Context(), Counts{Resources: 1})
	assert.Error(t, err)
}

func TestPDF(t *testing.T) {
	data := PDF("Limits (and continuity)")

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.Contains(t, string(data), `(Limits \(and continuity\))`)
	_, err := validation.ValidateContent("notes.pdf", data, validation.PDFConstraints)
	assert.NoError(t, err)
}
