// Package testutil builds PDF fixtures for tests.
//
// Fixtures are classic cross-reference PDFs generated in memory, so tests
// can cover arbitrary page sizes, inherited media boxes and shared resource
// dictionaries without checking binary files into the repository.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PageSpec describes one fixture page.
type PageSpec struct {
	Width   float64
	Height  float64
	OriginX float64 // media box lower-left corner
	OriginY float64
	Text    string // drawn in Helvetica 24pt near the middle of the page
}

// PDFOptions describes a fixture document.
type PDFOptions struct {
	Pages []PageSpec

	// InheritMediaBox puts the first page's media box on the page tree root
	// and omits it from every page with the same box.
	InheritMediaBox bool

	// SharedResources makes all pages reference one indirect resource
	// dictionary instead of each carrying its own.
	SharedResources bool
}

// LetterPages returns options for n US Letter pages labelled "Page 1".."Page n".
func LetterPages(n int) PDFOptions {
	return SizedPages(n, 612, 792)
}

// SizedPages returns options for n pages of the given size.
func SizedPages(n int, width, height float64) PDFOptions {
	opts := PDFOptions{}
	for i := 1; i <= n; i++ {
		opts.Pages = append(opts.Pages, PageSpec{
			Width:  width,
			Height: height,
			Text:   fmt.Sprintf("Page %d", i),
		})
	}
	return opts
}

// Object numbers shared by every fixture.
const (
	catalogObj   = 1
	pagesObj     = 2
	fontObj      = 3
	resourcesObj = 4
	firstPageObj = 5
)

// BuildPDF renders opts into a complete PDF file.
func BuildPDF(opts PDFOptions) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(opts.Pages))
	for i := range opts.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}

	var inherited *PageSpec
	if opts.InheritMediaBox && len(opts.Pages) > 0 {
		inherited = &opts.Pages[0]
	}

	writeObj(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))

	pages := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), len(opts.Pages))
	if inherited != nil {
		pages += " /MediaBox " + mediaBox(*inherited)
	}
	writeObj(pages + " >>")

	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	writeObj(fmt.Sprintf("<< /Font << /F1 %d 0 R >> >>", fontObj))

	for i, p := range opts.Pages {
		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R", pagesObj)
		if inherited == nil || mediaBox(*inherited) != mediaBox(p) {
			page += " /MediaBox " + mediaBox(p)
		}
		if opts.SharedResources {
			page += fmt.Sprintf(" /Resources %d 0 R", resourcesObj)
		} else {
			page += fmt.Sprintf(" /Resources << /Font << /F1 %d 0 R >> >>", fontObj)
		}
		page += fmt.Sprintf(" /Contents %d 0 R >>", pageObj(i)+1)
		writeObj(page)

		content := pageContent(p)
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, catalogObj, xref)

	return buf.Bytes()
}

// WritePDF writes a fixture to path, creating parent directories.
func WritePDF(t testing.TB, path string, opts PDFOptions) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, BuildPDF(opts), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
}

// WriteFile writes raw bytes to path, for non-PDF fixtures.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
}

func pageObj(i int) int {
	return firstPageObj + 2*i
}

func mediaBox(p PageSpec) string {
	return fmt.Sprintf("[%g %g %g %g]", p.OriginX, p.OriginY, p.OriginX+p.Width, p.OriginY+p.Height)
}

func pageContent(p PageSpec) string {
	if p.Text == "" {
		return fmt.Sprintf("%g %g %g %g re S", p.OriginX+10, p.OriginY+10, p.Width-20, p.Height-20)
	}
	return fmt.Sprintf("BT /F1 24 Tf %g %g Td (%s) Tj ET",
		p.OriginX+72, p.OriginY+p.Height/2, p.Text)
}
