package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/pdf-reader-mcp/internal/convert"
	"github.com/bull/pdf-reader-mcp/internal/document"
	"github.com/bull/pdf-reader-mcp/internal/reader"
	"github.com/bull/pdf-reader-mcp/internal/summary"
)

const scannedWarning = "This PDF appears to be scanned or image-based. " +
	"Text extraction may return empty results; use pdf_get_page_images instead."

// toolError prefixes an error with a stable failure code so clients can tell
// a bad path from a bad page range without parsing prose.
func toolError(err error) error {
	kind := "internal"
	switch {
	case errors.Is(err, document.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, document.ErrUnreadable):
		kind = "unreadable"
	case errors.Is(err, document.ErrOutOfRange):
		kind = "out_of_range"
	case errors.Is(err, document.ErrNoMatch):
		kind = "no_match"
	}
	return fmt.Errorf("%s: %w", kind, err)
}

// makeInfoHandler creates the pdf_info tool handler.
// Returns metadata, the extractable-text flag, and the full table of contents
// so clients can plan bounded section and page reads.
func makeInfoHandler(svc *reader.Service) func(
	context.Context, *mcp.CallToolRequest, InfoInput,
) (*mcp.CallToolResult, InfoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input InfoInput) (
		*mcp.CallToolResult, InfoOutput, error,
	) {
		info, err := svc.Info(ctx, input.Path)
		if err != nil {
			return nil, InfoOutput{}, toolError(err)
		}

		out := InfoOutput{
			Path:    info.Path,
			Pages:   info.Pages,
			Title:   info.Metadata.Title,
			Author:  info.Metadata.Author,
			Subject: info.Metadata.Subject,
			Creator: info.Metadata.Creator,
			Created: info.Metadata.CreationDate,
			HasText: info.HasText,
			TOC:     make([]TOCEntry, 0, len(info.TOC)),
		}
		if !info.HasText {
			out.Warning = scannedWarning
		}
		for _, e := range info.TOC {
			out.TOC = append(out.TOC, TOCEntry{
				Title:     e.Title,
				Level:     e.Level,
				StartPage: e.StartPage + 1,
				EndPage:   endInclusive(e.StartPage, e.EndPage),
			})
		}
		return nil, out, nil
	}
}

// endInclusive converts a half-open 0-indexed range end to a 1-based
// inclusive last page, never before the start page.
func endInclusive(start, end int) int {
	if end <= start {
		return start + 1
	}
	return end
}

// makeReadPagesHandler creates the pdf_read_pages tool handler.
// An out-of-bounds or too-wide range is rejected, never silently clamped.
func makeReadPagesHandler(svc *reader.Service) func(
	context.Context, *mcp.CallToolRequest, ReadPagesInput,
) (*mcp.CallToolResult, ReadPagesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReadPagesInput) (
		*mcp.CallToolResult, ReadPagesOutput, error,
	) {
		start := input.StartPage
		end := input.EndPage
		if end == 0 {
			end = start
		}

		records, err := svc.ReadPages(ctx, input.Path, start-1, end)
		if err != nil {
			return nil, ReadPagesOutput{}, toolError(err)
		}

		out := ReadPagesOutput{
			Path:      input.Path,
			StartPage: start,
			EndPage:   end,
			Pages:     make([]Page, 0, len(records)),
		}
		for _, r := range records {
			out.Pages = append(out.Pages, Page{Page: r.Page + 1, Text: r.Text})
		}
		return nil, out, nil
	}
}

// makeReadSectionHandler creates the pdf_read_section tool handler.
// A query below the match threshold fails with the available section titles
// listed, so the client can retry with a real one.
func makeReadSectionHandler(svc *reader.Service) func(
	context.Context, *mcp.CallToolRequest, ReadSectionInput,
) (*mcp.CallToolResult, ReadSectionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReadSectionInput) (
		*mcp.CallToolResult, ReadSectionOutput, error,
	) {
		section, err := svc.ReadSection(ctx, input.Path, input.Section)
		if err != nil {
			if errors.Is(err, document.ErrNoMatch) {
				return nil, ReadSectionOutput{}, toolError(
					fmt.Errorf("%w. Available sections: %s", err, sectionTitles(ctx, svc, input.Path)))
			}
			return nil, ReadSectionOutput{}, toolError(err)
		}

		out := ReadSectionOutput{
			Path:      input.Path,
			Title:     section.Title,
			Score:     section.Score,
			StartPage: section.Start + 1,
			EndPage:   endInclusive(section.Start, section.End),
			Truncated: section.Truncated,
			Pages:     make([]Page, 0, len(section.Pages)),
		}
		if section.Truncated {
			out.Notice = fmt.Sprintf(
				"Section spans pages %d-%d; returning the first %d pages. Use pdf_read_pages for the rest.",
				out.StartPage, out.EndPage, len(section.Pages))
		}
		for _, r := range section.Pages {
			out.Pages = append(out.Pages, Page{Page: r.Page + 1, Text: r.Text})
		}
		return nil, out, nil
	}
}

func sectionTitles(ctx context.Context, svc *reader.Service, path string) string {
	info, err := svc.Info(ctx, path)
	if err != nil {
		return "(unavailable)"
	}
	titles := make([]string, 0, len(info.TOC))
	for _, e := range info.TOC {
		titles = append(titles, e.Title)
		if len(titles) == 20 {
			titles = append(titles, "...")
			break
		}
	}
	return strings.Join(titles, "; ")
}

// makePageImagesHandler creates the pdf_get_page_images tool handler.
func makePageImagesHandler(svc *reader.Service) func(
	context.Context, *mcp.CallToolRequest, PageImagesInput,
) (*mcp.CallToolResult, PageImagesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PageImagesInput) (
		*mcp.CallToolResult, PageImagesOutput, error,
	) {
		images, skipped, err := svc.PageImages(ctx, input.Path, input.Page-1)
		if err != nil {
			return nil, PageImagesOutput{}, toolError(err)
		}

		out := PageImagesOutput{
			Path:    input.Path,
			Page:    input.Page,
			Images:  make([]Image, 0, len(images)),
			Skipped: skipped,
		}
		for i, img := range images {
			out.Images = append(out.Images, Image{
				Index:    i,
				MIMEType: img.MIMEType,
				Width:    img.Width,
				Height:   img.Height,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			})
		}
		if len(out.Images) == 0 {
			out.Message = fmt.Sprintf("No images found on page %d.", input.Page)
			if skipped > 0 {
				out.Message = fmt.Sprintf("No usable images on page %d (%d skipped as too small).",
					input.Page, skipped)
			}
		}
		return nil, out, nil
	}
}

// makeSearchHandler creates the pdf_search tool handler.
// Zero hits is a successful empty result, not an error.
func makeSearchHandler(svc *reader.Service) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		result, err := svc.Search(ctx, input.Path, input.Query, input.MaxHits)
		if err != nil {
			return nil, SearchOutput{}, toolError(err)
		}

		out := SearchOutput{
			Path:          input.Path,
			Query:         input.Query,
			TotalHits:     result.Stats.TotalHits,
			PagesWithHits: result.Stats.Pages,
			Hits:          make([]Hit, 0, len(result.Hits)),
		}
		for _, h := range result.Hits {
			out.Hits = append(out.Hits, Hit{
				Page:    h.Page + 1,
				Snippet: h.Snippet,
				Score:   h.Score,
				Terms:   h.Terms,
			})
		}
		if len(out.Hits) == 0 {
			out.Message = fmt.Sprintf("No occurrences of %q found.", input.Query)
		}
		return nil, out, nil
	}
}

// makeSaveSummaryHandler creates the save_summary tool handler.
// The summary file is named after the document and overwrites any previous
// summary for it.
func makeSaveSummaryHandler(svc *reader.Service, store *summary.Store) func(
	context.Context, *mcp.CallToolRequest, SaveSummaryInput,
) (*mcp.CallToolResult, SaveSummaryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SaveSummaryInput) (
		*mcp.CallToolResult, SaveSummaryOutput, error,
	) {
		canonical, err := svc.CanonicalPath(input.Path)
		if err != nil {
			return nil, SaveSummaryOutput{}, toolError(err)
		}
		path, err := store.Save(canonical, input.Summary)
		if err != nil {
			return nil, SaveSummaryOutput{}, toolError(err)
		}
		return nil, SaveSummaryOutput{SummaryPath: path, Bytes: len(input.Summary)}, nil
	}
}

// makeConvertHandler creates the convert_md_to_pdf tool handler.
func makeConvertHandler() func(
	context.Context, *mcp.CallToolRequest, ConvertInput,
) (*mcp.CallToolResult, ConvertOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ConvertInput) (
		*mcp.CallToolResult, ConvertOutput, error,
	) {
		out, err := convert.ConvertFile(input.MarkdownPath)
		if err != nil {
			return nil, ConvertOutput{}, toolError(err)
		}
		return nil, ConvertOutput{PDFPath: out}, nil
	}
}
