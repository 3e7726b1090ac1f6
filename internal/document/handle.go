package document

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// minImageDim filters out tiny decorative images (borders, spacers).
const minImageDim = 50

// hasTextSamplePages and hasTextMinChars control the scanned-PDF check:
// a document counts as text-bearing when its first few pages yield at least
// this many characters.
const (
	hasTextSamplePages = 5
	hasTextMinChars    = 50
)

// Handle is the in-memory parsed representation of one opened PDF.
// It is created by Open, owned by the Cache, and never mutated after
// creation; all lazy extraction below is guarded and memoized.
type Handle struct {
	id        string
	path      string
	openedAt  time.Time
	content   []byte
	reader    *pdf.Reader
	pageCount int

	mu       sync.Mutex
	pageText map[int]string
	closed   bool

	outlineOnce sync.Once
	outline     []OutlineItem

	imgOnce sync.Once
	imgMu   sync.Mutex
	imgCtx  *model.Context
}

// Canonicalize resolves a path to its absolute, symlink-free form so that
// relative and absolute spellings of the same file share one cache entry.
// Returns ErrNotFound when the path does not resolve to a regular file.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
	}
	return resolved, nil
}

// Open parses the PDF at path into a Handle. The whole file is read once;
// page text, outline and images are extracted lazily from the in-memory copy.
func Open(path string) (*Handle, error) {
	canonical, err := Canonicalize(path)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(filepath.Ext(canonical)) != ".pdf" {
		return nil, fmt.Errorf("%w: not a PDF file: %s", ErrUnreadable, canonical)
	}

	content, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, canonical, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, canonical, err)
	}

	return &Handle{
		id:        uuid.New().String(),
		path:      canonical,
		openedAt:  time.Now(),
		content:   content,
		reader:    reader,
		pageCount: reader.NumPage(),
		pageText:  make(map[int]string),
	}, nil
}

// ID returns the handle's unique identifier, stable for its lifetime.
func (h *Handle) ID() string { return h.id }

// Path returns the canonical absolute path of the document.
func (h *Handle) Path() string { return h.path }

// OpenedAt returns when the handle was created.
func (h *Handle) OpenedAt() time.Time { return h.openedAt }

// PageCount returns the number of pages in the document.
func (h *Handle) PageCount() int { return h.pageCount }

// PageText returns the extracted plain text of a page (0-indexed).
// Scanned or image-only pages yield an empty string, not an error; extraction
// results are cached for the handle's lifetime so repeated reads are
// byte-identical and cheap.
func (h *Handle) PageText(page int) (string, error) {
	if page < 0 || page >= h.pageCount {
		return "", fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page+1, h.pageCount)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if text, ok := h.pageText[page]; ok {
		return text, nil
	}

	var text string
	p := h.reader.Page(page + 1)
	if !p.V.IsNull() {
		if extracted, err := p.GetPlainText(nil); err == nil {
			text = strings.TrimSpace(extracted)
		}
	}
	if h.pageText != nil {
		h.pageText[page] = text
	}
	return text, nil
}

// HasText reports whether the document appears to contain extractable text,
// sampling the first few pages. Scanned PDFs typically fail this check.
func (h *Handle) HasText() bool {
	total := 0
	for i := 0; i < h.pageCount && i < hasTextSamplePages; i++ {
		text, err := h.PageText(i)
		if err != nil {
			break
		}
		total += len(text)
		if total >= hasTextMinChars {
			return true
		}
	}
	return total >= hasTextMinChars
}

// Metadata returns the document information dictionary fields. Missing or
// malformed entries come back empty.
func (h *Handle) Metadata() Metadata {
	info := h.reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return Metadata{}
	}
	return Metadata{
		Title:        infoString(info, "Title"),
		Author:       infoString(info, "Author"),
		Subject:      infoString(info, "Subject"),
		Creator:      infoString(info, "Creator"),
		CreationDate: infoString(info, "CreationDate"),
	}
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// RawOutline returns the document's built-in outline flattened in document
// order, or nil when the document has none (or it cannot be parsed). The
// extraction runs once per handle.
func (h *Handle) RawOutline() []OutlineItem {
	h.outlineOnce.Do(func() {
		bookmarks, err := api.Bookmarks(bytes.NewReader(h.content), nil)
		if err != nil {
			return
		}
		h.outline = flattenBookmarks(bookmarks, 0, h.pageCount, nil)
	})
	return h.outline
}

func flattenBookmarks(bms []pdfcpu.Bookmark, level, pageCount int, out []OutlineItem) []OutlineItem {
	for _, bm := range bms {
		title := strings.TrimSpace(bm.Title)
		if title != "" && bm.PageFrom >= 1 && bm.PageFrom <= pageCount {
			out = append(out, OutlineItem{Title: title, Level: level, Page: bm.PageFrom - 1})
		}
		if len(bm.Kids) > 0 {
			out = flattenBookmarks(bm.Kids, level+1, pageCount, out)
		}
	}
	return out
}

// PageImages extracts the raster images embedded on one page (0-indexed).
// Images smaller than minImageDim in either dimension are skipped and
// counted. An empty result is valid data: pages without images return
// (nil, 0, nil). Only an invalid page index is an error.
func (h *Handle) PageImages(page int) ([]PageImage, int, error) {
	if page < 0 || page >= h.pageCount {
		return nil, 0, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page+1, h.pageCount)
	}

	ctx := h.imageContext()
	if ctx == nil {
		// The text layer parsed but the image layer did not; degrade to
		// "no images" rather than failing the whole call.
		return nil, 0, nil
	}

	h.imgMu.Lock()
	extracted, err := pdfcpu.ExtractPageImages(ctx, page+1, false)
	h.imgMu.Unlock()
	if err != nil {
		return nil, 0, nil
	}

	objNrs := make([]int, 0, len(extracted))
	for nr := range extracted {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	var images []PageImage
	skipped := 0
	for _, nr := range objNrs {
		img := extracted[nr]
		if img.Reader == nil {
			skipped++
			continue
		}
		data, err := io.ReadAll(img.Reader)
		if err != nil || len(data) == 0 {
			skipped++
			continue
		}
		pi := decodeImageInfo(data)
		if pi.Width > 0 && (pi.Width < minImageDim || pi.Height < minImageDim) {
			skipped++
			continue
		}
		images = append(images, pi)
	}
	return images, skipped, nil
}

// imageContext lazily builds the pdfcpu context used for image extraction.
// Returns nil when the document defeats pdfcpu's parser.
func (h *Handle) imageContext() *model.Context {
	h.imgOnce.Do(func() {
		conf := model.NewDefaultConfiguration()
		conf.Cmd = model.EXTRACTIMAGES
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(h.content), conf)
		if err != nil {
			return
		}
		h.imgCtx = ctx
	})
	return h.imgCtx
}

func decodeImageInfo(data []byte) PageImage {
	pi := PageImage{Data: data}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		pi.Width = cfg.Width
		pi.Height = cfg.Height
		pi.Format = format
		pi.MIMEType = "image/" + format
		return pi
	}
	pi.MIMEType = http.DetectContentType(data)
	return pi
}

// Close releases the handle's derived caches. In-flight readers of an evicted
// handle finish safely; only the cached page text is dropped.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.pageText = nil
}
