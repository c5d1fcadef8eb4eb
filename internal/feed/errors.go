package feed

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed   = errors.New("fetch feed posts failed")
	ErrCreateFailed  = errors.New("create post failed")
	ErrLikeFailed    = errors.New("like post failed")
	ErrCommentFailed = errors.New("comment on post failed")
)

// messages holds the text surfaced through Snapshot.Error for each failure kind.
var messages = map[error]string{
	ErrFetchFailed:   "Failed to fetch feed posts",
	ErrCreateFailed:  "Failed to create post",
	ErrLikeFailed:    "Failed to like post",
	ErrCommentFailed: "Failed to comment on post",
}

// OpError reports a failed feed operation. It matches its kind sentinel
// (ErrCreateFailed, ...) as well as the underlying cause with errors.Is.
type OpError struct {
	Op     string
	PostID int64
	Kind   error
	Err    error
}

// Message returns the fixed, human-readable text for the failure kind.
func (e *OpError) Message() string {
	if m, ok := messages[e.Kind]; ok {
		return m
	}
	return e.Kind.Error()
}

func (e *OpError) Error() string {
	if e.PostID != 0 {
		return fmt.Sprintf("%s %d: %v: %v", e.Op, e.PostID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error { return []error{e.Kind, e.Err} }
