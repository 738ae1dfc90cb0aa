package pdfdoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Output is an assembled document ready to be written.
//
// pdfcpu keeps its write state on the document context, so the document is
// serialized exactly once; later calls to WriteTo and Bytes reuse the result.
type Output struct {
	doc *Document

	serialized bool
	data       []byte
	err        error
}

// Assemble builds the output document from the composited first page and
// the remaining pages of src, in their original order. Pages after the
// first are carried through without being touched.
func Assemble(first *CompositedPage, src *Document) (*Output, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source document", ErrForeignPage)
	}
	if first == nil || first.page == nil || first.page.doc != src || first.page.index != 0 {
		return nil, ErrForeignPage
	}

	if first.changed {
		first.page.dict["Contents"] = first.contents
		first.page.dict["Resources"] = first.resources
	}

	return &Output{doc: src}, nil
}

// PageCount returns the number of pages in the output.
func (o *Output) PageCount() int {
	return o.doc.PageCount()
}

// Page returns page i (0-indexed) of the output.
func (o *Output) Page(i int) (*Page, error) {
	return o.doc.Page(i)
}

// WriteTo writes the serialized output document to w.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	data, err := o.serialize()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Bytes returns a copy of the serialized output document.
func (o *Output) Bytes() ([]byte, error) {
	data, err := o.serialize()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func (o *Output) serialize() ([]byte, error) {
	if o.serialized {
		return o.data, o.err
	}
	o.serialized = true

	var buf bytes.Buffer
	if err := api.WriteContext(o.doc.ctx, &buf); err != nil {
		o.err = fmt.Errorf("failed to write PDF: %w", err)
		return nil, o.err
	}
	o.data = stabilize(o.doc.ctx, buf.Bytes())
	return o.data, nil
}
