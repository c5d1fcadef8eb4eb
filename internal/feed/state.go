package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opInitialize    = "initialize"
	opCreatePost    = "create_post"
	opLikePost      = "like_post"
	opCommentOnPost = "comment_on_post"
)

var errNoSource = errors.New("no feed source configured")

type Option func(*State)

// WithClient routes every operation through c; the state then mirrors what the
// API accepted instead of computing mutations locally. c also becomes the source.
func WithClient(c Client) Option { return func(s *State) { s.client = c } }

// WithLatency delays each locally simulated operation by d.
func WithLatency(d time.Duration) Option { return func(s *State) { s.latency = d } }

func WithPublisher(p Publisher) Option { return func(s *State) { s.pub = p } }

func WithLogger(l *slog.Logger) Option { return func(s *State) { s.log = l } }

func WithMetrics(m *Metrics) Option { return func(s *State) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *State) { s.now = now } }

// State owns the in-memory feed: the posts (newest first), an in-flight counter
// backing isLoading and the last failure message. It is safe for concurrent use.
//
// Every mutation builds a new slice and swaps it in under the lock, so a
// snapshot never observes a half-applied change.
type State struct {
	source  Source
	client  Client
	latency time.Duration
	pub     Publisher
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
	tracer  trace.Tracer

	mu           sync.Mutex
	posts        []Post
	pending      int
	awaitingInit bool
	errMsg       *string
}

// NewState returns a state that reports isLoading until Initialize completes.
func NewState(src Source, opts ...Option) *State {
	s := &State{
		source:       src,
		pub:          nopPublisher{},
		log:          slog.Default(),
		now:          time.Now,
		tracer:       otel.Tracer("github.com/segfal/Lockdin/internal/feed"),
		pending:      1,
		awaitingInit: true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.client != nil {
		s.source = s.client
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// Snapshot returns a copy of the current posts together with the loading and error flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]Post, len(s.posts))
	copy(posts, s.posts)
	snap := Snapshot{FeedPosts: posts, IsLoading: s.pending > 0}
	if s.errMsg != nil {
		msg := *s.errMsg
		snap.Error = &msg
	}
	return snap
}

// Initialize loads the feed from the source. Calling it again reloads the feed.
func (s *State) Initialize(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "feed.Initialize")
	defer span.End()

	s.mu.Lock()
	if s.awaitingInit {
		s.awaitingInit = false
	} else {
		s.pending++
	}
	s.mu.Unlock()
	s.metrics.inflight.Inc()
	defer s.end()

	if s.source == nil {
		return s.fail(ctx, span, opInitialize, 0, ErrFetchFailed, errNoSource)
	}
	if s.client == nil {
		if err := s.simulate(ctx); err != nil {
			return s.fail(ctx, span, opInitialize, 0, ErrFetchFailed, err)
		}
	}
	posts, err := s.source.FetchPosts(ctx)
	if err != nil {
		return s.fail(ctx, span, opInitialize, 0, ErrFetchFailed, err)
	}

	loaded := make([]Post, len(posts))
	copy(loaded, posts)
	s.mu.Lock()
	s.posts = loaded
	s.errMsg = nil
	s.mu.Unlock()

	s.metrics.posts.Set(float64(len(loaded)))
	s.metrics.observe(opInitialize, nil)
	span.SetAttributes(attribute.Int("feed.posts", len(loaded)))
	s.log.DebugContext(ctx, "feed loaded", "posts", len(loaded))
	return nil
}

// CreatePost assigns the next id and the creation time to d, prepends the
// resulting post and returns it. The collection is unchanged on failure.
func (s *State) CreatePost(ctx context.Context, d Draft) (Post, error) {
	ctx, span := s.tracer.Start(ctx, "feed.CreatePost")
	defer span.End()
	s.begin()
	defer s.end()

	var (
		created Post
		n       int
	)
	if s.client != nil {
		p, err := s.client.CreatePost(ctx, d)
		if err != nil {
			return Post{}, s.fail(ctx, span, opCreatePost, 0, ErrCreateFailed, err)
		}
		s.mu.Lock()
		s.posts = withPrepended(s.posts, p)
		n = len(s.posts)
		s.mu.Unlock()
		created = p
	} else {
		if err := s.simulate(ctx); err != nil {
			return Post{}, s.fail(ctx, span, opCreatePost, 0, ErrCreateFailed, err)
		}
		s.mu.Lock()
		s.posts, created = withCreated(s.posts, d, s.now())
		n = len(s.posts)
		s.mu.Unlock()
	}

	s.metrics.posts.Set(float64(n))
	s.metrics.observe(opCreatePost, nil)
	span.SetAttributes(attribute.Int64("feed.post_id", created.ID))
	s.publish(ctx, newEvent(EventPostCreated, created, s.now()))
	return created, nil
}

// LikePost adds one like to the post with postID. An unknown id is a silent no-op.
func (s *State) LikePost(ctx context.Context, postID int64) error {
	var remote func(context.Context) error
	if s.client != nil {
		remote = func(ctx context.Context) error { return s.client.LikePost(ctx, postID) }
	}
	return s.bump(ctx, "feed.LikePost", opLikePost, postID, ErrLikeFailed, EventPostLiked, withLiked, remote)
}

// CommentOnPost adds one to the comment counter of the post with postID.
// The comment text is handed to the API client when there is one and is not
// kept in the feed. An unknown id is a silent no-op.
func (s *State) CommentOnPost(ctx context.Context, postID int64, comment string) error {
	var remote func(context.Context) error
	if s.client != nil {
		remote = func(ctx context.Context) error { return s.client.CommentOnPost(ctx, postID, comment) }
	}
	return s.bump(ctx, "feed.CommentOnPost", opCommentOnPost, postID, ErrCommentFailed, EventPostCommented, withCommented, remote)
}

func (s *State) bump(
	ctx context.Context,
	spanName, op string,
	postID int64,
	kind error,
	evType EventType,
	apply func([]Post, int64) ([]Post, bool),
	remote func(context.Context) error,
) error {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.Int64("feed.post_id", postID)))
	defer span.End()
	s.begin()
	defer s.end()

	var err error
	if remote != nil {
		err = remote(ctx)
	} else {
		err = s.simulate(ctx)
	}
	if err != nil {
		return s.fail(ctx, span, op, postID, kind, err)
	}

	s.mu.Lock()
	next, found := apply(s.posts, postID)
	s.posts = next
	var updated Post
	if found {
		updated = findPost(next, postID)
	}
	s.mu.Unlock()

	s.metrics.observe(op, nil)
	span.SetAttributes(attribute.Bool("feed.post_found", found))
	if !found {
		s.log.DebugContext(ctx, "feed post not found, nothing to update", "op", op, "post_id", postID)
		return nil
	}
	s.publish(ctx, newEvent(evType, updated, s.now()))
	return nil
}

func findPost(posts []Post, id int64) Post {
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	return Post{}
}

func (s *State) begin() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.metrics.inflight.Inc()
}

func (s *State) end() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	s.metrics.inflight.Dec()
}

func (s *State) simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *State) fail(ctx context.Context, span trace.Span, op string, postID int64, kind, cause error) error {
	opErr := &OpError{Op: op, PostID: postID, Kind: kind, Err: cause}
	msg := opErr.Message()

	s.mu.Lock()
	s.errMsg = &msg
	s.mu.Unlock()

	s.metrics.observe(op, opErr)
	span.RecordError(cause)
	span.SetStatus(codes.Error, msg)
	s.log.ErrorContext(ctx, "feed operation failed", "op", op, "post_id", postID, "error", cause)
	return opErr
}

// publish runs after the change is visible; a failed publish is logged only.
func (s *State) publish(ctx context.Context, ev Event) {
	if err := s.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.WarnContext(ctx, "publish feed event", "type", ev.Type, "post_id", ev.PostID, "error", err)
	}
}
