package history

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTurns = []Turn{
	{Role: "user", Content: "what is the gas price on ethereum?"},
	{Role: "assistant", Content: "Base fee is 25.00 Gwei right now."},
	{Role: "user", Content: "and on polygon?"},
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns))

	got, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTurns, got)

	// The stored copy must not alias the caller's slice.
	got[0].Content = "mutated"
	again, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTurns[0].Content, again[0].Content)
}

func TestMemoryStore_SaveReplaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns[:1]))
	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns))

	got, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, t.TempDir()+"/history.db")
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns))
	got, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTurns, got)

	// Upsert path.
	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns[:2]))
	got, err = s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// fakeAkave emulates the gateway closely enough for the store: bucket checks,
// bucket creation, multipart upload, download.
type fakeAkave struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func newFakeAkave() *fakeAkave {
	return &fakeAkave{buckets: map[string]map[string][]byte{}}
}

func (f *fakeAkave) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/buckets":
			f.buckets["chat-history"] = map[string][]byte{}
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet && r.URL.Path == "/buckets/chat-history":
			if _, ok := f.buckets["chat-history"]; !ok {
				http.NotFound(w, r)
				return
			}
		case r.Method == http.MethodPost && r.URL.Path == "/buckets/chat-history/files":
			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			buf, err := io.ReadAll(file)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			f.buckets["chat-history"][header.Filename] = buf
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet:
			// /buckets/chat-history/files/<name>/download
			name := r.URL.Path[len("/buckets/chat-history/files/") : len(r.URL.Path)-len("/download")]
			data, ok := f.buckets["chat-history"][name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestAkaveStore_RoundTrip(t *testing.T) {
	fake := newFakeAkave()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	ctx := context.Background()
	s, err := NewAkaveStore(ctx, srv.URL, "chat-history", zerolog.Nop())
	require.NoError(t, err)

	// Bucket was created on construction.
	_, ok := fake.buckets["chat-history"]
	require.True(t, ok)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "conv-1", sampleTurns))
	got, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTurns, got)
}
