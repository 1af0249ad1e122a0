package store

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakePath = "/repos/acme/intake/contents/data/submissions.jsonl"

// fakeContents is a minimal Contents API holding one file.
type fakeContents struct {
	mu      sync.Mutex
	content []byte
	sha     string
	exists  bool
	// rawOnly mimics files above 1MB: metadata without inline content.
	rawOnly bool
	// interlopers is the number of upcoming writes that lose a race against
	// another writer.
	interlopers int
	gets        int
	branches    []string
}

func blobSHA(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func (f *fakeContents) set(b []byte) {
	f.content = append([]byte(nil), b...)
	f.sha = blobSHA(b)
	f.exists = true
}

func (f *fakeContents) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeContents) raceNextWrite() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interlopers++
}

func (f *fakeContents) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/intake":
		_, _ = w.Write([]byte(`{"id":1,"name":"intake","full_name":"acme/intake"}`))
	case r.Method == http.MethodGet && r.URL.Path == fakePath:
		f.gets++
		f.branches = append(f.branches, r.URL.Query().Get("ref"))
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		body := map[string]any{"type": "file", "path": "data/submissions.jsonl", "sha": f.sha}
		if f.rawOnly {
			body["encoding"] = "none"
			body["content"] = ""
		} else {
			body["encoding"] = "base64"
			body["content"] = base64.StdEncoding.EncodeToString(f.content)
		}
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/repos/acme/intake/git/blobs/"):
		if strings.TrimPrefix(r.URL.Path, "/repos/acme/intake/git/blobs/") != f.sha {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(f.content)
	case r.Method == http.MethodPut && r.URL.Path == fakePath:
		var req struct {
			Message string  `json:"message"`
			Content []byte  `json:"content"`
			SHA     *string `json:"sha"`
			Branch  *string `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.interlopers > 0 {
			f.interlopers--
			f.set(append(append([]byte(nil), f.content...), []byte("{\"id\":\"00000000T000000.000000000Z-other\",\"form\":\"pdg\",\"fields\":{}}\n")...))
		}
		switch {
		case f.exists && req.SHA == nil:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`))
			return
		case f.exists && *req.SHA != f.sha:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"is at ` + f.sha + ` but expected ` + *req.SHA + `"}`))
			return
		}
		created := !f.exists
		f.set(req.Content)
		if created {
			w.WriteHeader(http.StatusCreated)
		}
		_, _ = w.Write([]byte(`{"content":{"sha":"` + f.sha + `"},"commit":{"sha":"c0ffee"}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newGitHub(t *testing.T, fake *fakeContents, cache *ReadCache) *GitHub {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	g, err := NewGitHub(GitHubConfig{
		Token:   "t0ken",
		Owner:   "acme",
		Repo:    "intake",
		Branch:  "main",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, cache, stepClock(), nil)
	require.NoError(t, err)
	return g
}

func TestGitHub_Contract(t *testing.T) {
	runContract(t, newGitHub(t, &fakeContents{}, nil))
}

func TestGitHub_ReadsBranch(t *testing.T) {
	fake := &fakeContents{}
	g := newGitHub(t, fake, nil)
	_, err := g.List(context.Background())
	require.NoError(t, err)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"main"}, fake.branches)
}

func TestGitHub_StaleSHAIsConflict(t *testing.T) {
	fake := &fakeContents{}
	g := newGitHub(t, fake, nil)
	ctx := context.Background()
	_, err := g.Append(ctx, presales("Acme"))
	require.NoError(t, err)

	fake.raceNextWrite()
	_, err = g.Append(ctx, presales("Globex"))
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	list, err := g.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "the other writer's record is kept, ours is not merged in")
}

func TestGitHub_RetryRereadsAfterConflict(t *testing.T) {
	fake := &fakeContents{}
	s := WithRetry(newGitHub(t, fake, nil), 3, time.Millisecond)
	ctx := context.Background()
	_, err := s.Append(ctx, presales("Acme"))
	require.NoError(t, err)

	fake.raceNextWrite()
	_, err = s.Append(ctx, presales("Globex"))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestGitHub_CacheWithinTTL(t *testing.T) {
	fake := &fakeContents{}
	clock := &manualClock{now: epoch}
	g := newGitHub(t, fake, NewReadCache(30*time.Second, clock.Now))
	ctx := context.Background()

	_, err := g.List(ctx)
	require.NoError(t, err)
	_, err = g.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.getCount())

	rec, err := g.Append(ctx, presales("Acme"))
	require.NoError(t, err)
	assert.Equal(t, 2, fake.getCount(), "writes always read fresh")

	got, err := g.Get(ctx, rec.ID)
	require.NoError(t, err, "write invalidates the cache")
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 3, fake.getCount())

	_, err = g.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.getCount())

	clock.Advance(31 * time.Second)
	_, err = g.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, fake.getCount())
}

func TestGitHub_LargeFileUsesBlobAPI(t *testing.T) {
	fake := &fakeContents{rawOnly: true}
	fake.set([]byte("{\"id\":\"20261019T000000.000000000Z-abcdef01\",\"form\":\"pdg\",\"fields\":{}}\n"))
	g := newGitHub(t, fake, nil)
	list, err := g.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pdg", list[0].Form)
}

func TestGitHub_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	g, err := NewGitHub(GitHubConfig{Token: "t", Owner: "acme", Repo: "intake", BaseURL: srv.URL}, nil, nil, nil)
	require.NoError(t, err)

	_, err = g.List(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(g.Ping(context.Background()), ErrUnavailable))
}

func TestNewGitHub_NeedsCredentials(t *testing.T) {
	_, err := NewGitHub(GitHubConfig{Owner: "acme", Repo: "intake"}, nil, nil, nil)
	assert.Error(t, err)
}
