// Package shell renders the HTML document every Lockdin page lives in.
package shell

import (
	"html/template"
	"io"
	"net/url"
	"strings"
)

type Metadata struct {
	Title       string
	Description string
}

// Font is a Google Fonts family applied to the whole document.
type Font struct {
	Family  string
	Display string
	Subsets []string
}

// ClassName is the CSS class that selects the font.
func (f Font) ClassName() string {
	return "font-" + strings.ToLower(strings.ReplaceAll(f.Family, " ", "-"))
}

func (f Font) Href() string {
	q := url.Values{}
	q.Set("family", f.Family)
	if f.Display != "" {
		q.Set("display", f.Display)
	}
	if len(f.Subsets) > 0 {
		q.Set("subset", strings.Join(f.Subsets, ","))
	}
	return "https://fonts.googleapis.com/css2?" + q.Encode()
}

// Theme is the theme context handed to client-side code. The shell only
// carries these settings; it does not switch themes itself.
type Theme struct {
	Attribute                 string
	Default                   string
	EnableSystem              bool
	DisableTransitionOnChange bool
}

type Layout struct {
	Lang      string
	Meta      Metadata
	Font      Font
	Theme     Theme
	BodyClass string
}

func Default() Layout {
	return Layout{
		Lang: "en",
		Meta: Metadata{Title: "Lockdin", Description: "Coming soon"},
		Font: Font{Family: "Geist", Display: "swap", Subsets: []string{"latin"}},
		Theme: Theme{
			Attribute:                 "class",
			Default:                   "system",
			EnableSystem:              true,
			DisableTransitionOnChange: true,
		},
		BodyClass: "bg-background text-foreground",
	}
}

var document = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Layout.Lang}}" class="{{.Layout.Font.ClassName}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Layout.Meta.Title}}</title>
<meta name="description" content="{{.Layout.Meta.Description}}">
<link rel="stylesheet" href="{{.Layout.Font.Href}}">
</head>
<body class="{{.Layout.BodyClass}}">
<div id="theme-provider" data-attribute="{{.Layout.Theme.Attribute}}" data-default-theme="{{.Layout.Theme.Default}}" data-enable-system="{{.Layout.Theme.EnableSystem}}" data-disable-transition-on-change="{{.Layout.Theme.DisableTransitionOnChange}}">
{{.Child}}
</div>
</body>
</html>
`))

// Render writes the document with child as the page content. child must be
// trusted, already escaped markup.
func (l Layout) Render(w io.Writer, child template.HTML) error {
	return document.Execute(w, struct {
		Layout Layout
		Child  template.HTML
	}{l, child})
}
