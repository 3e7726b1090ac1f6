package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/pdf-reader-mcp/internal/reader"
	"github.com/bull/pdf-reader-mcp/internal/summary"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	reader    *reader.Service
	summaries *summary.Store
}

// Config holds server dependencies.
type Config struct {
	Reader    *reader.Service
	Summaries *summary.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "pdf-reader-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "pdf_info",
		Description: "Get PDF metadata, page count, whether it has extractable text, " +
			"and the table of contents. Call this first to plan bounded reads.",
	}, makeInfoHandler(cfg.Reader))

	mcp.AddTool(server, &mcp.Tool{
		Name: "pdf_read_pages",
		Description: "Read the extracted text of a page range (1-based, inclusive, " +
			"at most 10 pages per call). Ranges outside the document are rejected.",
	}, makeReadPagesHandler(cfg.Reader))

	mcp.AddTool(server, &mcp.Tool{
		Name: "pdf_read_section",
		Description: "Read a section by name. The name is fuzzy-matched against the " +
			"table of contents; long sections are truncated with a notice.",
	}, makeReadSectionHandler(cfg.Reader))

	mcp.AddTool(server, &mcp.Tool{
		Name: "pdf_get_page_images",
		Description: "Extract the images embedded on one page as base64 data. " +
			"Useful for scanned documents and figures.",
	}, makePageImagesHandler(cfg.Reader))

	mcp.AddTool(server, &mcp.Tool{
		Name: "pdf_search",
		Description: "Search the document text case-insensitively. Returns ranked " +
			"hits with page numbers and context snippets.",
	}, makeSearchHandler(cfg.Reader))

	mcp.AddTool(server, &mcp.Tool{
		Name: "save_summary",
		Description: "Save a markdown summary for a PDF. The file is named after " +
			"the document and placed in the summaries directory.",
	}, makeSaveSummaryHandler(cfg.Reader, cfg.Summaries))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_md_to_pdf",
		Description: "Convert a markdown file to a PDF saved next to it.",
	}, makeConvertHandler())

	return &Server{
		server:    server,
		reader:    cfg.Reader,
		summaries: cfg.Summaries,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
