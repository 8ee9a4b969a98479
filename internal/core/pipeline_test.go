package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ainews/internal/page"
	"ainews/internal/render"
	"ainews/internal/storage"
	"ainews/internal/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu     sync.Mutex
	items  map[string][]types.FeedItem
	fail   map[string]bool
	calls  []string
	limits []int
}

func (s *stubFetcher) Fetch(ctx context.Context, source types.FeedSource, limit int) types.FetchResult {
	s.mu.Lock()
	s.calls = append(s.calls, source.Name)
	s.limits = append(s.limits, limit)
	s.mu.Unlock()

	result := types.FetchResult{Source: source.Name, URL: source.URL, Items: []types.FeedItem{}}
	if s.fail[source.Name] {
		result.Status = types.FetchFailed
		result.Err = types.NewFetchError(source.Name, source.URL, errors.New("connection refused"))
		return result
	}

	for _, item := range s.items[source.Name] {
		item.Source = source.Name
		result.Items = append(result.Items, item)
	}
	if len(result.Items) == 0 {
		result.Status = types.FetchEmpty
	} else {
		result.Status = types.FetchOK
	}
	return result
}

type memoryTarget struct {
	outputs []*Output
	err     error
}

func (m *memoryTarget) Name() string { return "memory" }

func (m *memoryTarget) Publish(ctx context.Context, out *Output) error {
	if m.err != nil {
		return m.err
	}
	m.outputs = append(m.outputs, out)
	return nil
}

type memoryBuilds struct {
	records []storage.BuildRecord
	pruned  []time.Duration
	err     error
}

func (m *memoryBuilds) RecordBuild(ctx context.Context, record storage.BuildRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memoryBuilds) ListRecentBuilds(ctx context.Context, limit int) ([]storage.BuildRecord, error) {
	return m.records, nil
}

func (m *memoryBuilds) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	m.pruned = append(m.pruned, age)
	return 0, nil
}

const e2eTemplate = `<html><body>
<ul id="highlights">{{HIGHLIGHTS}}</ul>
<table id="release-notes">{{RELEASE_NOTES}}</table>
<ul id="videos">{{VIDEOS}}</ul>
<ul id="links">{{LINKS}}</ul>
</body></html>`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPipeline(t *testing.T, cfg PipelineConfig, fetcher Fetcher) (*Pipeline, *memoryTarget) {
	t.Helper()
	renderer, err := render.New(render.Markup{}, "")
	require.NoError(t, err)

	target := &memoryTarget{}
	p := NewPipeline(cfg, fetcher, renderer).
		AddTarget(target).
		WithClock(func() time.Time { return time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC) })
	return p, target
}

func sources(names ...string) []types.FeedSource {
	out := make([]types.FeedSource, 0, len(names))
	for _, n := range names {
		out = append(out, types.FeedSource{Name: n, URL: "http://x/" + strings.ToLower(n), Enabled: true, MaxItems: 3})
	}
	return out
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestEndToEndSingleItem(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]types.FeedItem{
		"OpenAI": {{Title: "Title A", Link: "http://x/a"}},
	}}
	cfg := PipelineConfig{
		Sources:       sources("OpenAI"),
		ReleaseNotes:  []types.ReleaseNote{{Date: "2026-10-01", Tool: "ChatGPT", Change: "Memory", SourceLink: "http://notes"}},
		Videos:        []types.VideoSuggestion{{Channel: "AI Explained", Title: "GPT"}},
		MaxHighlights: 5,
		MaxLinks:      5,
		TemplatePath:  writeTemplate(t, e2eTemplate),
	}
	p, target := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, target.outputs, 1)
	html := target.outputs[0].Page

	assert.Empty(t, page.Unreplaced(html))
	for _, token := range []string{"{{HIGHLIGHTS}}", "{{RELEASE_NOTES}}", "{{VIDEOS}}", "{{LINKS}}"} {
		assert.NotContains(t, html, token)
	}

	d := doc(t, html)
	highlights := d.Find("#highlights li")
	require.Equal(t, 1, highlights.Length())
	assert.Contains(t, highlights.Text(), "Title A")
	href, _ := highlights.Find("a").Attr("href")
	assert.Equal(t, "http://x/a", href)
	assert.Equal(t, 1, d.Find(`#highlights a[href="http://x/a"]`).Length())

	assert.Equal(t, 1, d.Find("#release-notes tr").Length())
	assert.Contains(t, d.Find("#release-notes").Text(), "ChatGPT")
	assert.Equal(t, 1, d.Find("#videos li").Length())
	assert.Contains(t, d.Find("#videos").Text(), "AI Explained")
	assert.Equal(t, 1, d.Find("#links li").Length())

	assert.Equal(t, 1, report.Highlights)
	assert.Equal(t, 1, report.Links)
	assert.False(t, report.UsedFallback)
	assert.NotEmpty(t, report.ContentHash)
	require.Len(t, report.Results, 1)
	assert.Equal(t, types.FetchOK, report.Results[0].Status)
}

func TestFallbackWhenNothingFetched(t *testing.T) {
	fetcher := &stubFetcher{fail: map[string]bool{"OpenAI": true}}
	cfg := PipelineConfig{
		Sources:       sources("OpenAI", "Anthropic"),
		MaxHighlights: 5,
		MaxLinks:      5,
		TemplatePath:  writeTemplate(t, e2eTemplate),
	}
	p, target := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	d := doc(t, target.outputs[0].Page)
	highlights := d.Find("#highlights li")
	require.Equal(t, 1, highlights.Length())
	assert.Equal(t, "Sem novidades relevantes encontradas hoje.", highlights.Text())
	assert.Equal(t, 0, d.Find("#links li").Length())

	assert.True(t, report.UsedFallback)
	assert.Equal(t, 0, report.Highlights)
	assert.Equal(t, 1, report.FailedSources())
	assert.False(t, report.AllSourcesFailed())
}

func TestHighlightsNeverExceedMaximum(t *testing.T) {
	items := func(prefix string, n int) []types.FeedItem {
		out := make([]types.FeedItem, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, types.FeedItem{Title: fmt.Sprintf("%s %d", prefix, i), Link: fmt.Sprintf("http://x/%s/%d", prefix, i)})
		}
		return out
	}
	fetcher := &stubFetcher{items: map[string][]types.FeedItem{
		"A": items("a", 3),
		"B": items("b", 3),
		"C": items("c", 3),
	}}

	for _, max := range []int{1, 2, 4, 9, 20} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			cfg := PipelineConfig{
				Sources:       sources("A", "B", "C"),
				MaxHighlights: max,
				MaxLinks:      2,
				TemplatePath:  writeTemplate(t, e2eTemplate),
			}
			p, target := newTestPipeline(t, cfg, fetcher)

			report, err := p.Run(context.Background())
			require.NoError(t, err)

			d := doc(t, target.outputs[0].Page)
			want := max
			if want > 9 {
				want = 9
			}
			assert.Equal(t, want, d.Find("#highlights li").Length())
			assert.Equal(t, want, report.Highlights)
			assert.Equal(t, 2, d.Find("#links li").Length())
			assert.LessOrEqual(t, len(target.outputs[0].Highlights), max)

			first := d.Find("#highlights li a").First().Text()
			assert.Equal(t, "a 0", first)
		})
	}
}

func TestSourcesFetchedInOrderAndDisabledSkipped(t *testing.T) {
	fetcher := &stubFetcher{}
	srcs := sources("First", "Second", "Third")
	srcs[1].Enabled = false
	srcs[2].MaxItems = 7

	cfg := PipelineConfig{Sources: srcs, MaxHighlights: 3, MaxLinks: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, _ := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"First", "Third"}, fetcher.calls)
	assert.Equal(t, []int{3, 7}, fetcher.limits)
	assert.Len(t, report.Results, 2)
}

func TestPerSourceLimitEnforced(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]types.FeedItem{
		"A": {{Title: "1", Link: "http://x/1"}, {Title: "2", Link: "http://x/2"}, {Title: "3", Link: "http://x/3"}},
	}}
	srcs := sources("A")
	srcs[0].MaxItems = 2

	cfg := PipelineConfig{Sources: srcs, MaxHighlights: 10, MaxLinks: 10, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, target := newTestPipeline(t, cfg, fetcher)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, doc(t, target.outputs[0].Page).Find("#highlights li").Length())
}

func TestMissingTemplateAborts(t *testing.T) {
	fetcher := &stubFetcher{}
	cfg := PipelineConfig{
		Sources:       sources("A"),
		MaxHighlights: 3,
		TemplatePath:  filepath.Join(t.TempDir(), "missing.html"),
	}
	p, target := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, report)
	assert.Empty(t, target.outputs)
	assert.Empty(t, fetcher.calls)
}

func TestDateAndInsightPlaceholders(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)

	cfg := PipelineConfig{
		Sources:       sources("A"),
		Insights:      []types.Insight{{Text: "one"}, {Text: "two"}},
		MaxHighlights: 3,
		MaxLinks:      3,
		DateFormat:    "02/01/2006 15:04",
		Location:      lisbon,
		TemplatePath:  writeTemplate(t, `<p>{{DATE}}</p><ul>{{WHAT_IT_MEANS}}</ul><time>{{GENERATED_AT}}</time>{{CUSTOM}}`),
	}
	p, target := newTestPipeline(t, cfg, &stubFetcher{})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	html := target.outputs[0].Page
	assert.Contains(t, html, "<p>18/10/2026 08:30</p>")
	assert.Contains(t, html, "<ul><li>one</li>\n<li>two</li></ul>")
	assert.Contains(t, html, "<time>2026-10-18T08:30:00+01:00</time>")
	assert.Equal(t, []string{"{{CUSTOM}}"}, page.Unreplaced(html))
}

func TestIdenticalInputsProduceIdenticalPages(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]types.FeedItem{
		"A": {{Title: "Same", Link: "http://x/same"}},
	}}
	cfg := PipelineConfig{Sources: sources("A"), MaxHighlights: 3, MaxLinks: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, target := newTestPipeline(t, cfg, fetcher)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, target.outputs[0].Page, target.outputs[1].Page)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTargetErrorFailsBuild(t *testing.T) {
	cfg := PipelineConfig{Sources: sources("A"), MaxHighlights: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, target := newTestPipeline(t, cfg, &stubFetcher{})
	target.err = errors.New("disk full")

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAllSourcesFailed(t *testing.T) {
	fetcher := &stubFetcher{fail: map[string]bool{"A": true, "B": true}}
	cfg := PipelineConfig{
		Sources:                sources("A", "B"),
		MaxHighlights:          3,
		TemplatePath:           writeTemplate(t, e2eTemplate),
		FailWhenAllSourcesFail: true,
	}
	p, target := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	require.NotNil(t, report)
	assert.True(t, report.AllSourcesFailed())
	require.Len(t, target.outputs, 1, "page is still written with the fallback")
	assert.True(t, report.UsedFallback)
}

func TestAllSourcesFailedIgnoredByDefault(t *testing.T) {
	fetcher := &stubFetcher{fail: map[string]bool{"A": true}}
	cfg := PipelineConfig{Sources: sources("A"), MaxHighlights: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, _ := newTestPipeline(t, cfg, fetcher)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.AllSourcesFailed())
}

func TestArchiveRecordsBuild(t *testing.T) {
	fetcher := &stubFetcher{
		items: map[string][]types.FeedItem{"A": {{Title: "T", Link: "http://x/t"}}},
		fail:  map[string]bool{"B": true},
	}
	cfg := PipelineConfig{Sources: sources("A", "B"), MaxHighlights: 3, MaxLinks: 3, OutputPath: "index.html", TemplatePath: writeTemplate(t, e2eTemplate)}
	p, _ := newTestPipeline(t, cfg, fetcher)
	builds := &memoryBuilds{}
	p.WithArchive(builds, 48*time.Hour)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, builds.records, 1)
	record := builds.records[0]
	assert.Equal(t, report.ID, record.ID)
	assert.Equal(t, "index.html", record.OutputPath)
	assert.Equal(t, 1, record.Highlights)
	require.Len(t, record.Sources, 2)
	assert.Equal(t, "ok", record.Sources[0].Status)
	assert.Equal(t, 1, record.Sources[0].Items)
	assert.Equal(t, "failed", record.Sources[1].Status)
	assert.Contains(t, record.Sources[1].Error, "connection refused")
	assert.Equal(t, []time.Duration{48 * time.Hour}, builds.pruned)
}

func TestArchiveErrorDoesNotFailBuild(t *testing.T) {
	cfg := PipelineConfig{Sources: sources("A"), MaxHighlights: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, target := newTestPipeline(t, cfg, &stubFetcher{})
	p.WithArchive(&memoryBuilds{err: errors.New("locked")}, 0)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, target.outputs, 1)
}

type cancelingFetcher struct {
	stubFetcher
	cancel context.CancelFunc
}

func (c *cancelingFetcher) Fetch(ctx context.Context, source types.FeedSource, limit int) types.FetchResult {
	c.cancel()
	result := c.stubFetcher.Fetch(ctx, source, limit)
	if ctx.Err() != nil {
		result.Status = types.FetchFailed
		result.Items = []types.FeedItem{}
		result.Err = types.NewFetchError(source.Name, source.URL, ctx.Err())
	}
	return result
}

func TestInterruptedBuildPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &cancelingFetcher{
		stubFetcher: stubFetcher{items: map[string][]types.FeedItem{"A": {{Title: "T", Link: "http://x/t"}}}},
		cancel:      cancel,
	}
	cfg := PipelineConfig{Sources: sources("A", "B"), MaxHighlights: 3, TemplatePath: writeTemplate(t, e2eTemplate)}
	p, target := newTestPipeline(t, cfg, fetcher)
	builds := &memoryBuilds{}
	p.WithArchive(builds, 0)

	report, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
	assert.Empty(t, target.outputs)
	assert.Empty(t, builds.records)
}

func TestTargetsReceiveRenderedHighlightsOnly(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]types.FeedItem{
		"A": {
			{Title: "first", Link: "http://x/1"},
			{Title: "broken", Link: "http://x/2"},
			{Title: "third", Link: "http://x/3"},
		},
	}}
	renderer, err := render.New(render.Markup{
		Highlight: `<li>{{if eq .Title "broken"}}{{.Missing}}{{end}}{{.Title}}</li>`,
	}, "")
	require.NoError(t, err)

	cfg := PipelineConfig{Sources: sources("A"), MaxHighlights: 2, MaxLinks: 5, TemplatePath: writeTemplate(t, e2eTemplate)}
	target := &memoryTarget{}
	p := NewPipeline(cfg, fetcher, renderer).AddTarget(target)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Highlights)

	out := target.outputs[0]
	highlights := doc(t, out.Page).Find("#highlights li")
	require.Equal(t, 2, highlights.Length())
	assert.Equal(t, "first", highlights.Eq(0).Text())
	assert.Equal(t, "third", highlights.Eq(1).Text())

	require.Len(t, out.Highlights, 2)
	assert.Equal(t, "http://x/1", out.Highlights[0].Link)
	assert.Equal(t, "http://x/3", out.Highlights[1].Link)
}
