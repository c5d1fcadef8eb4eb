package feed

import (
	"html/template"
	"io"
)

var feedView = template.Must(template.New("feed").Parse(`<main id="feed" aria-busy="{{.IsLoading}}">
{{- if .Error}}
<p class="feed-error" role="alert">{{.Error}}</p>
{{- end}}
<ol class="feed-posts">
{{- range .FeedPosts}}
<li class="feed-post" id="post-{{.ID}}">
<header><strong>{{.Author}}</strong> <time datetime="{{.CreatedAt}}">{{.CreatedAt}}</time></header>
{{- if .Title}}
<h2>{{.Title}}</h2>
{{- end}}
<p>{{.Content}}</p>
{{- if .Image}}
<img src="{{.Image}}" alt="">
{{- end}}
<footer><span class="likes">{{.Likes}} likes</span> <span class="comments">{{.Comments}} comments</span></footer>
</li>
{{- else}}
<li class="feed-empty">Nothing here yet.</li>
{{- end}}
</ol>
</main>`))

type feedViewData struct {
	FeedPosts []Post
	IsLoading bool
	Error     string
}

func renderFeed(w io.Writer, s Snapshot) error {
	data := feedViewData{FeedPosts: s.FeedPosts, IsLoading: s.IsLoading}
	if s.Error != nil {
		data.Error = *s.Error
	}
	return feedView.Execute(w, data)
}

// safeHTML marks output of feedView, which html/template already escaped.
func safeHTML(s string) template.HTML { return template.HTML(s) }
