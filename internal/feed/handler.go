package feed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/segfal/Lockdin/internal/idem"
	"github.com/segfal/Lockdin/internal/shared/httpx"
	"github.com/segfal/Lockdin/internal/shell"
)

// Service is the feed contract a rendering layer depends on.
type Service interface {
	Snapshot() Snapshot
	CreatePost(ctx context.Context, d Draft) (Post, error)
	LikePost(ctx context.Context, postID int64) error
	CommentOnPost(ctx context.Context, postID int64, comment string) error
}

type Handler struct {
	svc     Service
	layout  shell.Layout
	idem    idem.Store
	idemTTL time.Duration
	log     *slog.Logger
}

type HandlerOption func(*Handler)

func WithLayout(l shell.Layout) HandlerOption { return func(h *Handler) { h.layout = l } }

// WithIdempotency makes POST /feed/posts reject a repeated Idempotency-Key seen within ttl.
func WithIdempotency(s idem.Store, ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.idem = s
		h.idemTTL = ttl
	}
}

func WithHandlerLogger(l *slog.Logger) HandlerOption { return func(h *Handler) { h.log = l } }

func NewHandler(s Service, opts ...HandlerOption) *Handler {
	h := &Handler{svc: s, layout: shell.Default(), log: slog.Default()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Page renders the shell with the feed as its content.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) error {
	var child bytes.Buffer
	if err := renderFeed(&child, h.svc.Snapshot()); err != nil {
		return err
	}
	var page bytes.Buffer
	if err := h.layout.Render(&page, safeHTML(child.String())); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
	return nil
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, h.svc.Snapshot(), http.StatusOK)
	return nil
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, h.svc.Snapshot().FeedPosts, http.StatusOK)
	return nil
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[Draft](r)
	if err != nil {
		return httpx.BadRequest("bad_json", "bad json")
	}
	if strings.TrimSpace(in.Content) == "" && strings.TrimSpace(in.Title) == "" {
		return httpx.BadRequest("empty_post", "post needs a title or content")
	}
	var idemKey string
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idem != nil {
		fresh, err := h.idem.PutNX(r.Context(), "feed:create:"+key, h.idemTTL)
		if err != nil {
			h.log.WarnContext(r.Context(), "idempotency store unavailable", "error", err)
		} else if !fresh {
			return httpx.Errorf(http.StatusConflict, "duplicate_request", "request with this Idempotency-Key was already accepted")
		} else {
			idemKey = "feed:create:" + key
		}
	}
	p, err := h.svc.CreatePost(r.Context(), in)
	if err != nil {
		if idemKey != "" {
			// nothing was created, so the key must stay usable for a retry
			if rerr := h.idem.Release(context.WithoutCancel(r.Context()), idemKey); rerr != nil {
				h.log.WarnContext(r.Context(), "release idempotency key", "error", rerr)
			}
		}
		return opFailure(err)
	}
	httpx.WriteJSON(w, p, http.StatusCreated)
	return nil
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathInt64(r, "post_id")
	if err != nil {
		return err
	}
	if err := h.svc.LikePost(r.Context(), id); err != nil {
		return opFailure(err)
	}
	httpx.WriteJSON(w, StatusResp{Status: "ok"}, http.StatusOK)
	return nil
}

func (h *Handler) CommentOnPost(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathInt64(r, "post_id")
	if err != nil {
		return err
	}
	in, err := httpx.Decode[CommentReq](r)
	if err != nil {
		return httpx.BadRequest("bad_json", "bad json")
	}
	if err := h.svc.CommentOnPost(r.Context(), id, in.Comment); err != nil {
		return opFailure(err)
	}
	httpx.WriteJSON(w, StatusResp{Status: "ok"}, http.StatusOK)
	return nil
}

func opFailure(err error) error {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return httpx.Errorf(http.StatusBadGateway, "operation_failed", "%s", opErr.Message())
	}
	return httpx.Errorf(http.StatusInternalServerError, "internal", "%s", err.Error())
}
