package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/segfal/Lockdin/internal/idem"
	"github.com/segfal/Lockdin/internal/shared/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", httpx.Wrap(h.Page))
	mux.Handle("GET /feed", httpx.Wrap(h.GetFeed))
	mux.Handle("GET /feed/posts", httpx.Wrap(h.ListPosts))
	mux.Handle("POST /feed/posts", httpx.Wrap(h.CreatePost))
	mux.Handle("POST /feed/posts/{post_id}/like", httpx.Wrap(h.LikePost))
	mux.Handle("POST /feed/posts/{post_id}/comments", httpx.Wrap(h.CommentOnPost))
	return mux
}

func do(t *testing.T, mux http.Handler, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHandlerGetFeed(t *testing.T) {
	mux := testMux(NewHandler(initialized(t, onePost())))

	rec := do(t, mux, http.MethodGet, "/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"feedPosts":[{"id":1,"author":"Maya","content":"hello","createdAt":"2025-03-17T08:00:00.000Z","likes":0,"comments":0}],"isLoading":false,"error":null}`, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/feed/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Post(onePost()), decodeBody[[]Post](t, rec))
}

func TestHandlerCreatePost(t *testing.T) {
	s := initialized(t, onePost())
	mux := testMux(NewHandler(s))

	rec := do(t, mux, http.MethodPost, "/feed/posts", `{"author":"Jordan","title":"Hi","content":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	p := decodeBody[Post](t, rec)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "2025-03-18T09:30:00.000Z", p.CreatedAt)
	assert.Equal(t, p, s.Snapshot().FeedPosts[0])
}

func TestHandlerCreatePostRejectsBadInput(t *testing.T) {
	s := initialized(t, onePost())
	mux := testMux(NewHandler(s))

	rec := do(t, mux, http.MethodPost, "/feed/posts", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_json", decodeBody[httpx.APIError](t, rec).Reason)

	rec = do(t, mux, http.MethodPost, "/feed/posts", `{"author":"x","content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_post", decodeBody[httpx.APIError](t, rec).Reason)

	assert.Len(t, s.Snapshot().FeedPosts, 1)
}

func TestHandlerCreatePostIdempotency(t *testing.T) {
	s := initialized(t, onePost())
	mux := testMux(NewHandler(s, WithIdempotency(idem.NewMemory(), time.Minute), WithHandlerLogger(quietLogger())))

	body := `{"author":"Sam","content":"once"}`
	rec := do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "abc")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_request", decodeBody[httpx.APIError](t, rec).Reason)

	rec = do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "def")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, s.Snapshot().FeedPosts, 3)
}

func TestHandlerCreatePostRetryAfterFailure(t *testing.T) {
	c := &fakeClient{posts: []Post(onePost())}
	s := initialized(t, nil, WithClient(c))
	mux := testMux(NewHandler(s, WithIdempotency(idem.NewMemory(), time.Minute), WithHandlerLogger(quietLogger())))

	body := `{"author":"Sam","content":"retry me"}`
	c.fail = assert.AnError
	rec := do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Len(t, s.Snapshot().FeedPosts, 1)

	c.fail = nil
	c.created = Post{ID: 2, Author: "Sam", Content: "retry me", CreatedAt: "2025-03-18T09:30:00.000Z"}
	rec = do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, s.Snapshot().FeedPosts, 2)

	rec = do(t, mux, http.MethodPost, "/feed/posts", body, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, s.Snapshot().FeedPosts, 2)
}

type failingStore struct{}

func (failingStore) PutNX(context.Context, string, time.Duration) (bool, error) {
	return false, assert.AnError
}

func (failingStore) Release(context.Context, string) error { return assert.AnError }

func TestHandlerIdempotencyStoreDown(t *testing.T) {
	mux := testMux(NewHandler(initialized(t, onePost()),
		WithIdempotency(failingStore{}, time.Minute), WithHandlerLogger(quietLogger())))

	rec := do(t, mux, http.MethodPost, "/feed/posts", `{"content":"still accepted"}`, "Idempotency-Key", "k")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandlerLikeAndComment(t *testing.T) {
	s := initialized(t, onePost())
	mux := testMux(NewHandler(s))

	rec := do(t, mux, http.MethodPost, "/feed/posts/1/like", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/feed/posts/1/comments", `{"comment":"nice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodPost, "/feed/posts/999/like", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	p := s.Snapshot().FeedPosts[0]
	assert.Equal(t, 1, p.Likes)
	assert.Equal(t, 1, p.Comments)
}

func TestHandlerBadPostID(t *testing.T) {
	mux := testMux(NewHandler(initialized(t, onePost())))

	for _, target := range []string{"/feed/posts/abc/like", "/feed/posts/0/like", "/feed/posts/-4/comments"} {
		rec := do(t, mux, http.MethodPost, target, `{"comment":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "invalid_post_id", decodeBody[httpx.APIError](t, rec).Reason, target)
	}
}

type brokenService struct{ Service }

func (brokenService) LikePost(context.Context, int64) error {
	return &OpError{Op: opLikePost, PostID: 1, Kind: ErrLikeFailed, Err: assert.AnError}
}

func (brokenService) CommentOnPost(context.Context, int64, string) error {
	return assert.AnError
}

func TestHandlerOperationFailure(t *testing.T) {
	mux := testMux(NewHandler(brokenService{}))

	rec := do(t, mux, http.MethodPost, "/feed/posts/1/like", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	apiErr := decodeBody[httpx.APIError](t, rec)
	assert.Equal(t, "Failed to like post", apiErr.Error)
	assert.Equal(t, "operation_failed", apiErr.Reason)

	rec = do(t, mux, http.MethodPost, "/feed/posts/1/comments", `{"comment":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerPage(t *testing.T) {
	s := initialized(t, StaticSource{{ID: 1, Author: "Maya <3", Title: "Focus", Content: "deep work", Image: "/img/a.jpg", Likes: 4, CreatedAt: "2025-03-17T08:00:00.000Z"}})
	mux := testMux(NewHandler(s))

	rec := do(t, mux, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Lockdin</title>")
	assert.Contains(t, body, `<main id="feed" aria-busy="false">`)
	assert.Contains(t, body, `<li class="feed-post" id="post-1">`)
	assert.Contains(t, body, "Maya &lt;3")
	assert.Contains(t, body, "<h2>Focus</h2>")
	assert.Contains(t, body, `<img src="/img/a.jpg" alt="">`)
	assert.Contains(t, body, "4 likes")
	assert.NotContains(t, body, "feed-error")

	rec = do(t, mux, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPageEmptyWithError(t *testing.T) {
	s := newTestState(t, SourceFunc(func(context.Context) ([]Post, error) { return nil, assert.AnError }))
	require.Error(t, s.Initialize(context.Background()))
	mux := testMux(NewHandler(s))

	body := do(t, mux, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `<p class="feed-error" role="alert">Failed to fetch feed posts</p>`)
	assert.Contains(t, body, "Nothing here yet.")
}
