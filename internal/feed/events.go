package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPostCreated   EventType = "post.created"
	EventPostLiked     EventType = "post.liked"
	EventPostCommented EventType = "post.commented"
)

// Event describes a change that has already been applied to the feed.
// Post carries the record as it looks after the change.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	PostID int64     `json:"post_id"`
	Post   Post      `json:"post"`
	At     time.Time `json:"at"`
}

func newEvent(t EventType, p Post, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   t,
		PostID: p.ID,
		Post:   p,
		At:     at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
