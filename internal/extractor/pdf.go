package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned for uploads that do not parse as PDF documents.
var ErrNotPDF = errors.New("document is not a valid PDF")

var pdfMagic = []byte("%PDF-")

var disableConfigDir sync.Once

// PDFReader validates PDF uploads and pulls their text out page by page.
type PDFReader struct {
	conf *model.Configuration
}

func NewPDFReader() *PDFReader {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &PDFReader{conf: conf}
}

// Validate checks the header and the document structure. Any failure wraps
// ErrNotPDF.
func (r *PDFReader) Validate(data []byte) error {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\n\r "), pdfMagic) {
		return fmt.Errorf("%w: missing %%PDF header", ErrNotPDF)
	}

	if err := api.Validate(bytes.NewReader(data), r.conf); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	return nil
}

// ExtractPages returns the plain text of every page in order. Pages without
// text content yield an empty string so indexes line up with page numbers.
// A parser panic on malformed input is returned as an error.
func (r *PDFReader) ExtractPages(data []byte) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("extractor panic: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := pdfReader.NumPage()
	pages = make([]string, 0, numPages)
	found := false

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Keep going, other pages may still carry the certificate text
			pages = append(pages, "")
			continue
		}

		if text != "" {
			found = true
		}
		pages = append(pages, text)
	}

	if !found {
		return nil, fmt.Errorf("no text could be extracted from PDF")
	}

	return pages, nil
}
