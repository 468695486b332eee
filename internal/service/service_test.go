package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smartstudy/smartstudy/internal/cache"
	"github.com/smartstudy/smartstudy/internal/db"
	"github.com/smartstudy/smartstudy/internal/markdown"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/repository"
	"github.com/smartstudy/smartstudy/internal/storage"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123"

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

// spyUploader counts calls before delegating to a real Uploader.
type spyUploader struct {
	*storage.Uploader
	mu      sync.Mutex
	uploads int
	removes int
}

func (s *spyUploader) Upload(ctx context.Context, body []byte, name, contentType string) (*storage.Uploaded, error) {
	s.mu.Lock()
	s.uploads++
	s.mu.Unlock()
	return s.Uploader.Upload(ctx, body, name, contentType)
}

func (s *spyUploader) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	s.removes++
	s.mu.Unlock()
	return s.Uploader.Remove(ctx, key)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *stubMailer) SendWelcomeEmail(_ context.Context, email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return m.err
}

type fixture struct {
	users       repository.UserRepository
	resRepo     repository.ResourceRepository
	discRepo    repository.DiscussionRepository
	store       *storage.MemoryStorage
	files       *spyUploader
	avatars     *spyUploader
	mailer      *stubMailer
	cache       *cache.Cache
	auth        *AuthService
	userSvc     *UserService
	resources   *ResourceService
	discussions *DiscussionService
}

type fixtureOption func(f *fixture)

func withRedis(t *testing.T) fixtureOption {
	return func(f *fixture) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		f.cache = cache.New(client)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "svc.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	store := storage.NewMemoryStorage("http://files.test")
	f := &fixture{
		users:    repository.NewUserRepository(database),
		resRepo:  repository.NewResourceRepository(database),
		discRepo: repository.NewDiscussionRepository(database),
		store:    store,
		files:    &spyUploader{Uploader: storage.NewUploader(store, storage.FolderResources, time.Second)},
		avatars:  &spyUploader{Uploader: storage.NewUploader(store, storage.FolderAvatars, time.Second)},
		mailer:   &stubMailer{},
	}
	for _, opt := range opts {
		opt(f)
	}

	f.auth = NewAuthService(f.users, f.mailer, testSecret, time.Hour)
	f.userSvc = NewUserService(f.users, f.avatars, f.cache)
	f.resources = NewResourceService(f.resRepo, f.users, f.files, f.cache, time.Minute)
	f.discussions = NewDiscussionService(f.discRepo, f.users, markdown.NewParser(), f.cache, time.Minute)
	return f
}

func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "correct horse"})
	require.NoError(t, err)
	return res.User
}

func (f *fixture) upload(t *testing.T, userID, title string) *model.Resource {
	t.Helper()
	res, err := f.resources.Create(context.Background(), userID, CreateResourceInput{
		Title:       title,
		Description: "chapter summary",
		Subject:     "Math",
		File:        &FileInput{Name: title + ".pdf", Data: pdfBytes},
	})
	require.NoError(t, err)
	return res
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

var errBoom = errors.New("boom")
