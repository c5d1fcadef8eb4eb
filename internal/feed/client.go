package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 5 * time.Second

// HTTPClient talks to a feed API exposing the routes served by Handler.
type HTTPClient struct {
	base string
	hc   *http.Client
}

func NewHTTPClient(base string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FetchPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/feed/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) CreatePost(ctx context.Context, d Draft) (Post, error) {
	var p Post
	if err := c.do(ctx, http.MethodPost, "/feed/posts", d, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (c *HTTPClient) LikePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/feed/posts/%d/like", postID), nil, nil)
}

func (c *HTTPClient) CommentOnPost(ctx context.Context, postID int64, comment string) error {
	body := CommentReq{Comment: comment}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/feed/posts/%d/comments", postID), body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("feed api %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
