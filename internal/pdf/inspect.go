package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNotPDF marks uploads that are not PDF documents.
var ErrNotPDF = errors.New("file is not a PDF")

var pdfMagic = []byte("%PDF-")

// Inspect checks the file signature and returns the page count.
func Inspect(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	f.Close()
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read pdf header: %w", err)
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return 0, ErrNotPDF
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return pages, nil
}
