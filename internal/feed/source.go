package feed

import (
	"context"
	"slices"
)

// Source supplies the initial feed. The seed implementations stand in for the
// feed API; Client embeds Source so a real API client is a drop-in replacement.
type Source interface {
	FetchPosts(ctx context.Context) ([]Post, error)
}

// Client mirrors the feed operations one to one.
type Client interface {
	Source
	CreatePost(ctx context.Context, d Draft) (Post, error)
	LikePost(ctx context.Context, postID int64) error
	CommentOnPost(ctx context.Context, postID int64, comment string) error
}

// StaticSource serves a fixed set of posts.
type StaticSource []Post

func (s StaticSource) FetchPosts(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone([]Post(s)), nil
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) ([]Post, error)

func (f SourceFunc) FetchPosts(ctx context.Context) ([]Post, error) { return f(ctx) }
