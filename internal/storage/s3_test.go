package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

type putRecord struct {
	path        string
	contentType string
}

// fakeS3 answers the handful of path-style calls S3Storage makes.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]string
	puts     []putRecord
	deletes  []string
	buckets  int
	notFound bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodHead:
			if f.notFound {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			f.buckets++
			f.notFound = false
			w.WriteHeader(http.StatusOK)
		}
		return
	}

	key := parts[1]
	switch r.Method {
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.puts = append(f.puts, putRecord{path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, noSuchKey)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "8")
		_, _ = io.WriteString(w, body)
	case http.MethodDelete:
		f.deletes = append(f.deletes, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestS3(t *testing.T, fake *fakeS3) *S3Storage {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Storage(context.Background(), S3Config{
		Region:    "us-east-1",
		Bucket:    "smartstudy",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
	})
	require.NoError(t, err)
	return store
}

func TestS3Storage_CreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, notFound: true}
	newTestS3(t, fake)

	assert.Equal(t, 1, fake.buckets)
}

func TestS3Storage_SaveOpenDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"study-resources/a.pdf": "%PDF-1.4"}}
	store := newTestS3(t, fake)
	ctx := context.Background()

	err := store.Save(ctx, "study-resources/b.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "/smartstudy/study-resources/b.pdf", fake.puts[0].path)
	assert.Equal(t, "application/pdf", fake.puts[0].contentType)

	rc, info, err := store.Open(ctx, "study-resources/a.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.EqualValues(t, 8, info.Size)

	require.NoError(t, store.Delete(ctx, "study-resources/a.pdf"))
	assert.Equal(t, []string{"study-resources/a.pdf"}, fake.deletes)
}

func TestS3Storage_OpenMissingKey(t *testing.T) {
	store := newTestS3(t, &fakeS3{objects: map[string]string{}})

	_, _, err := store.Open(context.Background(), "study-resources/missing.pdf")

	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Storage_URL(t *testing.T) {
	store := &S3Storage{publicURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/avatars/x.png", store.URL("avatars/x.png"))
}
