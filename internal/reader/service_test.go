package reader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdf-reader-mcp/internal/document"
)

type fakeDoc struct {
	id        string
	path      string
	pages     []string
	outline   []document.OutlineItem
	meta      document.Metadata
	images    map[int][]document.PageImage
	skipped   int
	textCalls atomic.Int32
}

func (d *fakeDoc) ID() string                            { return d.id }
func (d *fakeDoc) Path() string                          { return d.path }
func (d *fakeDoc) PageCount() int                        { return len(d.pages) }
func (d *fakeDoc) Metadata() document.Metadata           { return d.meta }
func (d *fakeDoc) HasText() bool                         { return true }
func (d *fakeDoc) RawOutline() []document.OutlineItem    { return d.outline }
func (d *fakeDoc) PageText(page int) (string, error) {
	if page < 0 || page >= len(d.pages) {
		return "", fmt.Errorf("%w: page %d", document.ErrOutOfRange, page)
	}
	d.textCalls.Add(1)
	return d.pages[page], nil
}
func (d *fakeDoc) PageImages(page int) ([]document.PageImage, int, error) {
	if page < 0 || page >= len(d.pages) {
		return nil, 0, fmt.Errorf("%w: page %d", document.ErrOutOfRange, page)
	}
	return d.images[page], d.skipped, nil
}

type fakeSource struct {
	docs map[string]*fakeDoc
}

func (s *fakeSource) Acquire(ctx context.Context, path string) (Doc, error) {
	d, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrNotFound, path)
	}
	return d, nil
}

func numberedPages(n int) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("body text of page %d", i+1)
	}
	return pages
}

func paperDoc() *fakeDoc {
	return &fakeDoc{
		id:    "doc-1",
		path:  "/docs/paper.pdf",
		pages: numberedPages(20),
		outline: []document.OutlineItem{
			{Title: "Introduction", Level: 0, Page: 0},
			{Title: "Method", Level: 0, Page: 4},
			{Title: "Results", Level: 0, Page: 12},
		},
		meta: document.Metadata{Title: "A Paper", Author: "Someone"},
	}
}

func serviceFor(t *testing.T, docs ...*fakeDoc) *Service {
	t.Helper()
	src := &fakeSource{docs: make(map[string]*fakeDoc)}
	for _, d := range docs {
		src.docs[d.path] = d
	}
	svc, err := newService(src, Config{})
	require.NoError(t, err)
	return svc
}

func TestInfo(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	info, err := svc.Info(context.Background(), "/docs/paper.pdf")
	require.NoError(t, err)

	assert.Equal(t, "/docs/paper.pdf", info.Path)
	assert.Equal(t, 20, info.Pages)
	assert.Equal(t, "A Paper", info.Metadata.Title)
	assert.True(t, info.HasText)

	require.Len(t, info.TOC, 3)
	assert.Equal(t, "Method", info.TOC[1].Title)
	assert.Equal(t, 4, info.TOC[1].StartPage)
	assert.Equal(t, 12, info.TOC[1].EndPage)
	assert.Equal(t, 20, info.TOC[2].EndPage)
}

func TestInfoUnknownPath(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	_, err := svc.Info(context.Background(), "/docs/other.pdf")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestReadPagesExactRange(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	records, err := svc.ReadPages(context.Background(), "/docs/paper.pdf", 4, 12)
	require.NoError(t, err)
	require.Len(t, records, 8)

	for i, r := range records {
		assert.Equal(t, 4+i, r.Page)
		assert.Equal(t, fmt.Sprintf("body text of page %d", 4+i+1), r.Text)
	}
}

func TestReadPagesIdempotent(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	first, err := svc.ReadPages(context.Background(), "/docs/paper.pdf", 0, 5)
	require.NoError(t, err)
	second, err := svc.ReadPages(context.Background(), "/docs/paper.pdf", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReadPagesRejectsBadRanges(t *testing.T) {
	svc := serviceFor(t, paperDoc())
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 3},
		{"end beyond document", 15, 25},
		{"empty range", 5, 5},
		{"inverted range", 8, 4},
		{"window too wide", 0, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := svc.ReadPages(ctx, "/docs/paper.pdf", tt.start, tt.end)
			assert.ErrorIs(t, err, document.ErrOutOfRange)
			assert.Nil(t, records)
		})
	}
}

func TestReadPagesFullWindowAllowed(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	records, err := svc.ReadPages(context.Background(), "/docs/paper.pdf", 0, 10)
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestReadSection(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	section, err := svc.ReadSection(context.Background(), "/docs/paper.pdf", "method")
	require.NoError(t, err)

	assert.Equal(t, "Method", section.Title)
	assert.Equal(t, 4, section.Start)
	assert.Equal(t, 12, section.End)
	assert.False(t, section.Truncated)
	require.Len(t, section.Pages, 8)
	assert.Equal(t, 4, section.Pages[0].Page)
	assert.Equal(t, 11, section.Pages[7].Page)
}

func TestReadSectionLastRunsToEnd(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	section, err := svc.ReadSection(context.Background(), "/docs/paper.pdf", "results")
	require.NoError(t, err)
	assert.Equal(t, 12, section.Start)
	assert.Equal(t, 20, section.End)
	assert.Len(t, section.Pages, 8)
}

func TestReadSectionTruncated(t *testing.T) {
	doc := &fakeDoc{
		id:    "doc-2",
		path:  "/docs/long.pdf",
		pages: numberedPages(30),
		outline: []document.OutlineItem{
			{Title: "Everything", Level: 0, Page: 0},
		},
	}
	svc := serviceFor(t, doc)

	section, err := svc.ReadSection(context.Background(), "/docs/long.pdf", "everything")
	require.NoError(t, err)

	assert.True(t, section.Truncated)
	assert.Equal(t, 0, section.Start)
	assert.Equal(t, 30, section.End)
	// Content stops at the section window; the range still reports the full span.
	assert.Len(t, section.Pages, DefaultSectionWindow)
}

func TestReadSectionNoMatch(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	_, err := svc.ReadSection(context.Background(), "/docs/paper.pdf", "acknowledgements and funding")
	assert.ErrorIs(t, err, document.ErrNoMatch)
}

func TestConcurrentInfoBuildsTOCOnce(t *testing.T) {
	// No outline forces the heading scan, which reads every page once.
	doc := &fakeDoc{
		id:    "doc-3",
		path:  "/docs/flat.pdf",
		pages: numberedPages(12),
	}
	svc := serviceFor(t, doc)

	const callers = 8
	infos := make([]*DocumentInfo, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := svc.Info(context.Background(), "/docs/flat.pdf")
			assert.NoError(t, err)
			infos[i] = info
		}(i)
	}
	wg.Wait()

	// One build: each page's text was extracted exactly once.
	assert.Equal(t, int32(12), doc.textCalls.Load())
	for _, info := range infos[1:] {
		assert.Equal(t, infos[0].TOC, info.TOC)
	}
}

func TestSearch(t *testing.T) {
	doc := paperDoc()
	doc.pages[7] = "the quick brown fox jumps over the lazy dog"
	svc := serviceFor(t, doc)

	result, err := svc.Search(context.Background(), "/docs/paper.pdf", "brown fox", 0)
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, 7, result.Hits[0].Page)
	assert.Contains(t, result.Hits[0].Snippet, "brown fox")
	assert.Equal(t, 1, result.Stats.TotalHits)
	assert.Equal(t, 1, result.Stats.Pages)
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	svc := serviceFor(t, paperDoc())

	result, err := svc.Search(context.Background(), "/docs/paper.pdf", "zebra", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.Equal(t, 0, result.Stats.TotalHits)
}

func TestSearchDefaultCap(t *testing.T) {
	doc := paperDoc()
	// Every page matches several times.
	for i := range doc.pages {
		doc.pages[i] = "token token token"
	}
	svc := serviceFor(t, doc)

	result, err := svc.Search(context.Background(), "/docs/paper.pdf", "token", 0)
	require.NoError(t, err)
	assert.Len(t, result.Hits, DefaultMaxSearchHits)
	assert.Equal(t, 60, result.Stats.TotalHits)
}

func TestSearchIndexBuiltOnce(t *testing.T) {
	doc := paperDoc()
	svc := serviceFor(t, doc)

	_, err := svc.Search(context.Background(), "/docs/paper.pdf", "body", 0)
	require.NoError(t, err)
	calls := doc.textCalls.Load()
	assert.Equal(t, int32(20), calls)

	_, err = svc.Search(context.Background(), "/docs/paper.pdf", "text", 0)
	require.NoError(t, err)
	assert.Equal(t, calls, doc.textCalls.Load())
}

func TestPageImagesPassthrough(t *testing.T) {
	doc := paperDoc()
	doc.images = map[int][]document.PageImage{
		2: {{Data: []byte{1, 2, 3}, Format: "png", MIMEType: "image/png", Width: 100, Height: 80}},
	}
	doc.skipped = 1
	svc := serviceFor(t, doc)

	images, skipped, err := svc.PageImages(context.Background(), "/docs/paper.pdf", 2)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, 1, skipped)

	_, _, err = svc.PageImages(context.Background(), "/docs/paper.pdf", 99)
	assert.ErrorIs(t, err, document.ErrOutOfRange)
}
