// Package reader is the access facade over cached documents. It owns the
// operation-level rules: bounded page windows, section resolution with a
// truncation cap, and memoized per-document search indexes and TOCs.
package reader

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/bull/pdf-reader-mcp/internal/document"
	"github.com/bull/pdf-reader-mcp/internal/search"
	"github.com/bull/pdf-reader-mcp/internal/toc"
)

// Operation limits. Page windows larger than PageWindow are rejected, never
// clamped; section reads are served truncated at SectionWindow pages instead.
const (
	DefaultPageWindow    = 10
	DefaultSectionWindow = 15
	DefaultMaxSearchHits = 10
)

// Config configures the facade. The zero value gets working defaults.
type Config struct {
	CacheSize      int // parsed documents kept resident
	PageWindow     int // max pages per ReadPages call
	SectionWindow  int // max pages returned for one section
	SnippetRadius  int
	DefaultMaxHits int
	Resolver       toc.ResolverConfig
	Logger         *slog.Logger
}

func (c *Config) fill() {
	if c.CacheSize <= 0 {
		c.CacheSize = document.DefaultCapacity
	}
	if c.PageWindow <= 0 {
		c.PageWindow = DefaultPageWindow
	}
	if c.SectionWindow <= 0 {
		c.SectionWindow = DefaultSectionWindow
	}
	if c.SnippetRadius <= 0 {
		c.SnippetRadius = search.DefaultSnippetRadius
	}
	if c.DefaultMaxHits <= 0 {
		c.DefaultMaxHits = DefaultMaxSearchHits
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Doc is the view of an open document the facade needs. *document.Handle
// implements it; tests substitute fakes.
type Doc interface {
	ID() string
	Path() string
	PageCount() int
	Metadata() document.Metadata
	HasText() bool
	PageText(page int) (string, error)
	PageImages(page int) ([]document.PageImage, int, error)
	RawOutline() []document.OutlineItem
}

// Source acquires documents by path.
type Source interface {
	Acquire(ctx context.Context, path string) (Doc, error)
}

type cacheSource struct {
	cache *document.Cache
}

func (s cacheSource) Acquire(ctx context.Context, path string) (Doc, error) {
	h, err := s.cache.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Service exposes the bounded read operations. TOCs and search indexes are
// built once per document, coalesced under concurrent callers, and kept in
// LRUs keyed by handle ID so an evicted and reopened document rebuilds them.
type Service struct {
	cfg     Config
	src     Source
	cache   *document.Cache // nil when a custom Source is injected
	logger  *slog.Logger
	group   singleflight.Group
	tocs    *lru.Cache[string, []toc.Entry]
	indexes *lru.Cache[string, *search.Index]
}

// New creates a facade with its own document cache.
func New(cfg Config) (*Service, error) {
	cfg.fill()
	cache, err := document.NewCache(document.CacheConfig{
		Capacity: cfg.CacheSize,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	s, err := newService(cacheSource{cache: cache}, cfg)
	if err != nil {
		cache.Close()
		return nil, err
	}
	s.cache = cache
	return s, nil
}

func newService(src Source, cfg Config) (*Service, error) {
	cfg.fill()
	tocs, err := lru.New[string, []toc.Entry](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	indexes, err := lru.New[string, *search.Index](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:     cfg,
		src:     src,
		logger:  cfg.Logger,
		tocs:    tocs,
		indexes: indexes,
	}, nil
}

// Close releases the owned document cache, if any.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// Documents returns how many parsed documents are resident in the owned
// cache, 0 when a custom Source is injected.
func (s *Service) Documents() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// CanonicalPath resolves a path the same way Acquire keys the cache.
func (s *Service) CanonicalPath(path string) (string, error) {
	return document.Canonicalize(path)
}

// DocumentInfo is the metadata summary for one document.
type DocumentInfo struct {
	Path     string
	Pages    int
	Metadata document.Metadata
	HasText  bool
	TOC      []toc.Entry
}

// Info returns metadata, the text-bearing flag, and the full TOC.
func (s *Service) Info(ctx context.Context, path string) (*DocumentInfo, error) {
	d, err := s.src.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, err := s.tocFor(ctx, d)
	if err != nil {
		return nil, err
	}
	return &DocumentInfo{
		Path:     d.Path(),
		Pages:    d.PageCount(),
		Metadata: d.Metadata(),
		HasText:  d.HasText(),
		TOC:      entries,
	}, nil
}

// PageRecord is the extracted text of one page. Page is 0-indexed.
type PageRecord struct {
	Page int
	Text string
}

// ReadPages returns the text of pages [start, end), 0-indexed. The range must
// be within the document and no wider than the page window; a too-wide range
// is an ErrOutOfRange, not a silent clamp, so callers always get exactly the
// pages they asked for.
func (s *Service) ReadPages(ctx context.Context, path string, start, end int) ([]PageRecord, error) {
	d, err := s.src.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	n := d.PageCount()
	if start < 0 || end > n || start >= end {
		return nil, fmt.Errorf("%w: pages [%d, %d) of %d", document.ErrOutOfRange, start, end, n)
	}
	if end-start > s.cfg.PageWindow {
		return nil, fmt.Errorf("%w: %d pages requested, limit is %d per call",
			document.ErrOutOfRange, end-start, s.cfg.PageWindow)
	}
	return s.readRange(d, start, end)
}

func (s *Service) readRange(d Doc, start, end int) ([]PageRecord, error) {
	records := make([]PageRecord, 0, end-start)
	for p := start; p < end; p++ {
		text, err := d.PageText(p)
		if err != nil {
			return nil, err
		}
		records = append(records, PageRecord{Page: p, Text: text})
	}
	return records, nil
}

// SectionContent is a resolved section read. Start and End give the full
// resolved range [Start, End), 0-indexed, even when Pages was truncated at
// the section window.
type SectionContent struct {
	Title     string
	Score     float64
	Start     int
	End       int
	Pages     []PageRecord
	Truncated bool
}

// ReadSection resolves a free-text section query against the TOC and returns
// the section's pages, truncated at the section window.
func (s *Service) ReadSection(ctx context.Context, path, query string) (*SectionContent, error) {
	d, err := s.src.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, err := s.tocFor(ctx, d)
	if err != nil {
		return nil, err
	}
	m, err := toc.Resolve(entries, query, s.cfg.Resolver)
	if err != nil {
		return nil, err
	}

	start, end := m.Entry.StartPage, m.Entry.EndPage
	if end <= start && start < d.PageCount() {
		// Sibling sections sharing a start page: still serve the shared page.
		end = start + 1
	}
	readEnd := end
	truncated := false
	if readEnd-start > s.cfg.SectionWindow {
		readEnd = start + s.cfg.SectionWindow
		truncated = true
	}

	pages, err := s.readRange(d, start, readEnd)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("section resolved",
		"path", d.Path(), "query", query, "title", m.Entry.Title,
		"score", m.Score, "start", start, "end", end, "truncated", truncated)
	return &SectionContent{
		Title:     m.Entry.Title,
		Score:     m.Score,
		Start:     start,
		End:       end,
		Pages:     pages,
		Truncated: truncated,
	}, nil
}

// PageImages returns the images on one page (0-indexed) and how many were
// skipped as too small.
func (s *Service) PageImages(ctx context.Context, path string, page int) ([]document.PageImage, int, error) {
	d, err := s.src.Acquire(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return d.PageImages(page)
}

// SearchResult carries the capped hits plus uncapped totals.
type SearchResult struct {
	Hits  []search.Hit
	Stats search.Stats
}

// Search runs a query over the whole document. maxHits <= 0 applies the
// configured default. No occurrences is a successful empty result.
func (s *Service) Search(ctx context.Context, path, query string, maxHits int) (*SearchResult, error) {
	if maxHits <= 0 {
		maxHits = s.cfg.DefaultMaxHits
	}
	d, err := s.src.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := s.indexFor(ctx, d)
	if err != nil {
		return nil, err
	}
	hits, stats := idx.Search(query, maxHits)
	return &SearchResult{Hits: hits, Stats: stats}, nil
}

// tocFor returns the memoized TOC for a document, building it once even under
// concurrent callers. A cancelled caller stops waiting; the build completes
// and is cached for the next call.
func (s *Service) tocFor(ctx context.Context, d Doc) ([]toc.Entry, error) {
	if entries, ok := s.tocs.Get(d.ID()); ok {
		return entries, nil
	}
	ch := s.group.DoChan(d.ID()+":toc", func() (interface{}, error) {
		if entries, ok := s.tocs.Get(d.ID()); ok {
			return entries, nil
		}
		entries := toc.Build(d)
		s.tocs.Add(d.ID(), entries)
		s.logger.Debug("toc built", "path", d.Path(), "entries", len(entries))
		return entries, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]toc.Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// indexFor returns the memoized search index, with the same build semantics
// as tocFor. Building extracts every page's text once.
func (s *Service) indexFor(ctx context.Context, d Doc) (*search.Index, error) {
	if idx, ok := s.indexes.Get(d.ID()); ok {
		return idx, nil
	}
	ch := s.group.DoChan(d.ID()+":index", func() (interface{}, error) {
		if idx, ok := s.indexes.Get(d.ID()); ok {
			return idx, nil
		}
		texts := make([]string, d.PageCount())
		for p := 0; p < d.PageCount(); p++ {
			text, err := d.PageText(p)
			if err != nil {
				return nil, err
			}
			texts[p] = text
		}
		idx := search.NewIndex(texts, s.cfg.SnippetRadius)
		s.indexes.Add(d.ID(), idx)
		s.logger.Debug("search index built", "path", d.Path(), "pages", len(texts))
		return idx, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*search.Index), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
