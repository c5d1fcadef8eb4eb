package feed

import "time"

// The functions below never modify their input slice; each returns a fresh
// collection so readers holding the previous one keep a consistent view.

func nextID(posts []Post) int64 {
	var highest int64
	for _, p := range posts {
		if p.ID > highest {
			highest = p.ID
		}
	}
	return highest + 1
}

func withCreated(posts []Post, d Draft, at time.Time) ([]Post, Post) {
	created := d.Post(nextID(posts), at)
	return withPrepended(posts, created), created
}

func withPrepended(posts []Post, p Post) []Post {
	out := make([]Post, 0, len(posts)+1)
	out = append(out, p)
	return append(out, posts...)
}

// withLiked returns the collection with the matching post's likes bumped by one.
// found is false when no post has the id; the input is then returned as is.
func withLiked(posts []Post, id int64) (out []Post, found bool) {
	return withBumped(posts, id, func(p *Post) { p.Likes++ })
}

func withCommented(posts []Post, id int64) (out []Post, found bool) {
	return withBumped(posts, id, func(p *Post) { p.Comments++ })
}

func withBumped(posts []Post, id int64, bump func(*Post)) ([]Post, bool) {
	var out []Post
	for i := range posts {
		if posts[i].ID != id {
			continue
		}
		if out == nil {
			out = make([]Post, len(posts))
			copy(out, posts)
		}
		bump(&out[i])
	}
	if out == nil {
		return posts, false
	}
	return out, true
}
