// Package pdfdoc reads source PDFs, exposes their pages and reassembles
// annotated output documents. It wraps pdfcpu's object model.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Validation modes accepted by NewConfiguration.
const (
	ValidationRelaxed = "relaxed"
	ValidationStrict  = "strict"
)

var disableConfigDir sync.Once

// NewConfiguration returns a pdfcpu configuration for the given validation
// mode. Unknown or empty modes fall back to relaxed validation.
func NewConfiguration(validation string) *model.Configuration {
	// pdfcpu otherwise installs a config dir under the user's home on first use.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	// Classic xref output keeps every written object in plain text, which
	// stabilize relies on.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	conf.ValidationMode = model.ValidationRelaxed
	if validation == ValidationStrict {
		conf.ValidationMode = model.ValidationStrict
	}
	return conf
}

// Document is a parsed, read-only view of a source PDF.
type Document struct {
	ctx *model.Context
}

// Open reads and parses the PDF at path. The file handle is released
// before Open returns.
func Open(path string, conf *model.Configuration) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return Read(bytes.NewReader(data), conf)
}

// Read parses a PDF from rs.
func Read(rs io.ReadSeeker, conf *model.Configuration) (*Document, error) {
	if conf == nil {
		conf = NewConfiguration(ValidationRelaxed)
	}

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := checkPageCount(ctx.PageCount); err != nil {
		return nil, err
	}

	return &Document{ctx: ctx}, nil
}

func checkPageCount(n int) error {
	if n < 1 {
		return ErrEmptyDocument
	}
	return nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Context exposes the underlying pdfcpu context for components that need
// to add objects to the document (the compositor).
func (d *Document) Context() *model.Context {
	return d.ctx
}

// Geometry returns the media box size of page i (0-indexed).
func (d *Document) Geometry(i int) (Geometry, error) {
	p, err := d.Page(i)
	if err != nil {
		return Geometry{}, err
	}
	return p.Geometry(), nil
}

// Page returns an opaque handle for page i (0-indexed).
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, i, d.ctx.PageCount)
	}

	dict, _, inherited, err := d.ctx.PageDict(i+1, false)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", ErrParse, i+1, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("%w: page %d has no dictionary", ErrParse, i+1)
	}

	box, err := d.mediaBox(dict, inherited)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", i+1, err)
	}

	p := &Page{
		doc:       d,
		index:     i,
		dict:      dict,
		inherited: inherited,
		originX:   math.Min(box.LL.X, box.UR.X),
		originY:   math.Min(box.LL.Y, box.UR.Y),
		geometry: Geometry{
			Width:  math.Abs(box.Width()),
			Height: math.Abs(box.Height()),
		},
	}
	if err := p.geometry.Validate(); err != nil {
		return nil, fmt.Errorf("page %d: %w", i+1, err)
	}
	return p, nil
}

// mediaBox resolves the page's own media box, falling back to the one
// inherited from the page tree.
func (d *Document) mediaBox(dict types.Dict, inherited *model.InheritedPageAttrs) (*types.Rectangle, error) {
	if o, found := dict.Find("MediaBox"); found && o != nil {
		arr, err := d.ctx.DereferenceArray(o)
		if err != nil {
			return nil, fmt.Errorf("%w: media box: %w", ErrParse, err)
		}
		rect, err := d.ctx.RectForArray(arr)
		if err != nil {
			return nil, fmt.Errorf("%w: media box: %w", ErrParse, err)
		}
		return rect, nil
	}
	if inherited != nil && inherited.MediaBox != nil {
		return inherited.MediaBox, nil
	}
	return nil, fmt.Errorf("%w: missing media box", ErrParse)
}
