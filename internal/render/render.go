package render

import (
	"fmt"
	"log/slog"
	"net/url"
	texttemplate "text/template"

	"ainews/internal/template"
	"ainews/internal/types"
	"ainews/internal/utils"
)

const DefaultVideoSearchURL = "https://www.youtube.com/results?search_query="

// Markup holds one text/template per fragment kind.
type Markup struct {
	Highlight   string
	Link        string
	ReleaseNote string
	Video       string
	Insight     string
	Fallback    string
}

func DefaultMarkup() Markup {
	return Markup{
		Highlight:   `<li><strong>{{clean .Source}}:</strong> <a href='{{.Link}}' target='_blank'>{{clean .Title}}</a></li>`,
		Link:        `<li><a href='{{.Link}}' target='_blank'>{{clean .Title}}</a></li>`,
		ReleaseNote: `<tr><td>{{.Date}}</td><td>{{.Tool}}</td><td>{{.Change}}</td><td><a href='{{.SourceLink}}' target='_blank'>fonte</a></td></tr>`,
		Video:       `<li><a href='{{.URL}}' target='_blank'><strong>{{clean .Channel}}</strong>: {{clean .Title}}</a></li>`,
		Insight:     `<li>{{.Text}}</li>`,
		Fallback:    `<li>Sem novidades relevantes encontradas hoje.</li>`,
	}
}

// WithDefaults fills every empty field from DefaultMarkup.
func (m Markup) WithDefaults() Markup {
	d := DefaultMarkup()
	if m.Highlight == "" {
		m.Highlight = d.Highlight
	}
	if m.Link == "" {
		m.Link = d.Link
	}
	if m.ReleaseNote == "" {
		m.ReleaseNote = d.ReleaseNote
	}
	if m.Video == "" {
		m.Video = d.Video
	}
	if m.Insight == "" {
		m.Insight = d.Insight
	}
	if m.Fallback == "" {
		m.Fallback = d.Fallback
	}
	return m
}

type Renderer struct {
	highlight   *template.Template
	link        *template.Template
	releaseNote *template.Template
	video       *template.Template
	insight     *template.Template
	fallback    *template.Template
	searchURL   string
}

type videoCard struct {
	Channel string
	Title   string
	URL     string
}

func New(markup Markup, videoSearchURL string) (*Renderer, error) {
	markup = markup.WithDefaults()
	if videoSearchURL == "" {
		videoSearchURL = DefaultVideoSearchURL
	}

	funcs := texttemplate.FuncMap{
		"clean": utils.Clean,
		"query": url.QueryEscape,
	}

	r := &Renderer{searchURL: videoSearchURL}
	parsers := []struct {
		name string
		text string
		dst  **template.Template
	}{
		{"highlight", markup.Highlight, &r.highlight},
		{"link", markup.Link, &r.link},
		{"release_note", markup.ReleaseNote, &r.releaseNote},
		{"video", markup.Video, &r.video},
		{"insight", markup.Insight, &r.insight},
		{"fallback", markup.Fallback, &r.fallback},
	}

	for _, p := range parsers {
		tmpl, err := template.Parse(p.name, p.text, funcs)
		if err != nil {
			return nil, fmt.Errorf("markup %s: %w", p.name, err)
		}
		*p.dst = tmpl
	}

	return r, nil
}

func (r *Renderer) Highlight(item types.FeedItem) string {
	return execute(r.highlight, item)
}

func (r *Renderer) Link(item types.FeedItem) string {
	return execute(r.link, item)
}

func (r *Renderer) ReleaseNote(note types.ReleaseNote) string {
	return execute(r.releaseNote, note)
}

func (r *Renderer) Video(video types.VideoSuggestion) string {
	return execute(r.video, videoCard{
		Channel: video.Channel,
		Title:   video.Title,
		URL:     VideoSearchURL(r.searchURL, video),
	})
}

func (r *Renderer) Insight(insight types.Insight) string {
	return execute(r.insight, insight)
}

func (r *Renderer) Fallback() string {
	return execute(r.fallback, nil)
}

// VideoSearchURL builds a search lookup for the video, not a direct link.
func VideoSearchURL(base string, video types.VideoSuggestion) string {
	query := utils.Clean(video.Channel) + " " + utils.Clean(video.Title)
	return base + url.QueryEscape(query)
}

func execute(tmpl *template.Template, data any) string {
	out, err := tmpl.Execute(data)
	if err != nil {
		slog.Error("Rendering fragment failed", "template", tmpl.Name(), "error", err)
		return ""
	}
	return out
}
