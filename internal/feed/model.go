package feed

import "time"

// createdAtLayout matches the ISO-8601 form browsers produce (millisecond precision, UTC "Z").
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Post struct {
	ID        int64  `json:"id" yaml:"id"`
	UserID    string `json:"userId,omitempty" yaml:"userId,omitempty"`
	Author    string `json:"author" yaml:"author"`
	Avatar    string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Content   string `json:"content" yaml:"content"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
	Likes     int    `json:"likes" yaml:"likes"`
	Comments  int    `json:"comments" yaml:"comments"`
}

// Draft is a post as submitted by a caller: no id, timestamp or counters yet.
type Draft struct {
	UserID  string `json:"userId,omitempty"`
	Author  string `json:"author"`
	Avatar  string `json:"avatar,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// Post builds the record a draft becomes once it has an id and a creation time.
func (d Draft) Post(id int64, at time.Time) Post {
	return Post{
		ID:        id,
		UserID:    d.UserID,
		Author:    d.Author,
		Avatar:    d.Avatar,
		Title:     d.Title,
		Content:   d.Content,
		Image:     d.Image,
		CreatedAt: FormatCreatedAt(at),
	}
}

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

// Snapshot is what a rendering layer reads: the posts newest first plus the flags.
type Snapshot struct {
	FeedPosts []Post  `json:"feedPosts"`
	IsLoading bool    `json:"isLoading"`
	Error     *string `json:"error"`
}
