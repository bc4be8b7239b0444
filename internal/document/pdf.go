package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/nao1215/docpointer/internal/model"
)

// disablePDFConfigDir stops pdfcpu from creating a config directory in the
// user's home on first use.
var disablePDFConfigDir = sync.OnceFunc(api.DisableConfigDir)

// PDFProvider reads PDF documents.
//
// The file is first loaded with pdfcpu, which rejects structurally invalid
// PDFs and supplies the page count. Page text is then read with
// ledongthuc/pdf. A page whose text cannot be decoded is returned blank.
type PDFProvider struct {
	validate bool
	logger   *slog.Logger
}

// PDFOption configures a PDFProvider.
type PDFOption func(*PDFProvider)

// WithPDFValidation toggles the pdfcpu structural check. Enabled by default.
func WithPDFValidation(validate bool) PDFOption {
	return func(p *PDFProvider) {
		p.validate = validate
	}
}

// WithPDFLogger sets the logger used for per-page warnings.
func WithPDFLogger(logger *slog.Logger) PDFOption {
	return func(p *PDFProvider) {
		p.logger = logger
	}
}

// NewPDFProvider creates a new PDFProvider.
func NewPDFProvider(opts ...PDFOption) *PDFProvider {
	p := &PDFProvider{validate: true}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Name returns the provider name.
func (p *PDFProvider) Name() string {
	return "pdf"
}

// Extensions returns the handled extensions.
func (p *PDFProvider) Extensions() []string {
	return []string{".pdf"}
}

// Pages returns the plain text of every page.
func (p *PDFProvider) Pages(ctx context.Context, path string) (pages []model.Page, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCount := 0
	if p.validate {
		disablePDFConfigDir()
		pdfCtx, err := api.ReadContextFile(path)
		if err != nil {
			return nil, unreadable(p.Name(), path, err)
		}
		pageCount = pdfCtx.PageCount
	}

	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = unreadable(p.Name(), path, fmt.Errorf("%w: %v", errPDFPanic, r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, unreadable(p.Name(), path, err)
	}
	defer f.Close()

	if n := reader.NumPage(); n > pageCount {
		pageCount = n
	}

	pages = make([]model.Page, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages[i-1] = model.Page{Number: i, Text: p.pageText(reader, i)}
	}
	return pages, nil
}

func (p *PDFProvider) pageText(reader *pdf.Reader, number int) string {
	if number > reader.NumPage() {
		return ""
	}
	page := reader.Page(number)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		p.logger.Warn("failed to extract page text",
			"page", number,
			"error", err,
		)
		return ""
	}
	return normalize(text)
}
