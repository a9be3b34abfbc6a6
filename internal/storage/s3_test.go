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

	"github.com/edvin/saasadmin/internal/core"
)

// fakeS3 serves path-style object PUT/GET/HEAD from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		f.types[path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[path])
		w.Write(body)
	case http.MethodHead:
		if path == "avatars" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, bucket string) *S3Store {
	t.Helper()
	srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}, types: map[string]string{}})
	t.Cleanup(srv.Close)
	return NewS3Store(Config{Endpoint: srv.URL, Region: "us-east-1", Bucket: bucket, AccessKey: "k", SecretKey: "s"})
}

func TestS3Store_PutGet(t *testing.T) {
	store := newTestStore(t, "avatars")
	ctx := context.Background()

	data := "\x89PNG fake"
	require.NoError(t, store.Put(ctx, "avatars/adm_1", "image/png", strings.NewReader(data), int64(len(data))))

	rc, ct, err := store.Get(ctx, "avatars/adm_1")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, data, string(got))
	assert.Equal(t, "image/png", ct)
}

func TestS3Store_GetMissing(t *testing.T) {
	store := newTestStore(t, "avatars")

	_, _, err := store.Get(context.Background(), "avatars/nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestS3Store_Ping(t *testing.T) {
	assert.NoError(t, newTestStore(t, "avatars").Ping(context.Background()))
	assert.Error(t, newTestStore(t, "missing").Ping(context.Background()))
}
