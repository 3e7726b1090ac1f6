// Package convert renders a markdown file to a PDF placed next to it.
// Headings become PDF bookmarks, and documents with enough structure get a
// contents page up front.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	mdtoc "go.abhg.dev/goldmark/toc"

	"github.com/bull/pdf-reader-mcp/internal/document"
)

const (
	pageWidth  = 0 // full width in MultiCell
	lineHeight = 5.0
	bodySize   = 11.0
)

var headingSizes = map[int]float64{1: 18, 2: 15, 3: 13}

// ConvertFile renders the markdown file at mdPath into a sibling PDF with the
// same stem and returns the PDF path.
func ConvertFile(mdPath string) (string, error) {
	canonical, err := document.Canonicalize(mdPath)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(canonical))
	if ext != ".md" && ext != ".markdown" {
		return "", fmt.Errorf("%w: not a markdown file: %s", document.ErrUnreadable, canonical)
	}
	source, err := os.ReadFile(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", document.ErrUnreadable, canonical, err)
	}

	out := strings.TrimSuffix(canonical, filepath.Ext(canonical)) + ".pdf"
	if err := Convert(source, out); err != nil {
		return "", err
	}
	return out, nil
}

// Convert renders markdown source to a PDF at outPath.
func Convert(source []byte, outPath string) error {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.AddPage()

	writeContentsPage(pdf, tr, doc, source)

	r := &renderer{pdf: pdf, tr: tr, source: source}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, 0)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// writeContentsPage emits a leading contents listing when the document has
// more than one heading.
func writeContentsPage(pdf *fpdf.Fpdf, tr func(string) string, doc ast.Node, source []byte) {
	tree, err := mdtoc.Inspect(doc, source, mdtoc.MaxDepth(3), mdtoc.Compact(true))
	if err != nil || tree == nil || countItems(tree.Items) < 2 {
		return
	}
	pdf.SetFont("Helvetica", "B", headingSizes[1])
	pdf.MultiCell(pageWidth, 8, tr("Contents"), "", "L", false)
	pdf.Ln(2)
	writeContentsItems(pdf, tr, tree.Items, 0)
	pdf.AddPage()
}

func writeContentsItems(pdf *fpdf.Fpdf, tr func(string) string, items mdtoc.Items, depth int) {
	for _, item := range items {
		pdf.SetFont("Helvetica", "", bodySize)
		indent := strings.Repeat("    ", depth)
		pdf.MultiCell(pageWidth, lineHeight, tr(indent+string(item.Title)), "", "L", false)
		writeContentsItems(pdf, tr, item.Items, depth+1)
	}
}

func countItems(items mdtoc.Items) int {
	n := 0
	for _, item := range items {
		n += 1 + countItems(item.Items)
	}
	return n
}

type renderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	source []byte
}

func (r *renderer) block(n ast.Node, indent float64) {
	switch b := n.(type) {
	case *ast.Heading:
		size, ok := headingSizes[b.Level]
		if !ok {
			size = 12
		}
		title := nodeText(b, r.source)
		r.pdf.SetFont("Helvetica", "B", size)
		r.pdf.MultiCell(pageWidth, lineHeight+2, r.tr(title), "", "L", false)
		r.pdf.Bookmark(r.tr(title), b.Level-1, -1)
		r.pdf.Ln(1)

	case *ast.Paragraph, *ast.TextBlock:
		r.pdf.SetFont("Helvetica", "", bodySize)
		r.pdf.SetX(r.pdf.GetX() + indent)
		// Width 0 spans from the shifted X to the right margin.
		r.pdf.MultiCell(pageWidth, lineHeight, r.tr(nodeText(n, r.source)), "", "L", false)
		r.pdf.Ln(1)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		r.pdf.SetFont("Courier", "", bodySize-1)
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimRight(string(seg.Value(r.source)), "\n")
			r.pdf.MultiCell(pageWidth, lineHeight, r.tr("  "+line), "", "L", false)
		}
		r.pdf.Ln(1)

	case *ast.List:
		r.list(b, indent)

	case *ast.Blockquote:
		r.pdf.SetFont("Helvetica", "I", bodySize)
		r.pdf.MultiCell(pageWidth, lineHeight, r.tr(nodeText(b, r.source)), "", "L", false)
		r.pdf.Ln(1)

	case *ast.ThematicBreak:
		r.pdf.Ln(2)

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(c, indent)
		}
	}
}

func (r *renderer) list(l *ast.List, indent float64) {
	i := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", i)
			i++
		}
		r.pdf.SetFont("Helvetica", "", bodySize)
		r.pdf.SetX(r.pdf.GetX() + indent)
		r.pdf.MultiCell(pageWidth, lineHeight, r.tr(marker+itemText(item, r.source)), "", "L", false)
		// Nested lists keep their own markers one level in.
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				r.list(nested, indent+6)
			}
		}
	}
	r.pdf.Ln(1)
}

// itemText collects a list item's own text, excluding any nested list.
func itemText(item ast.Node, source []byte) string {
	var parts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*ast.List); ok {
			continue
		}
		if t := nodeText(c, source); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// nodeText flattens the inline text under a node.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
