package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page is a handle on one page of a Document.
type Page struct {
	doc       *Document
	index     int
	dict      types.Dict
	inherited *model.InheritedPageAttrs
	geometry  Geometry
	originX   float64
	originY   float64
}

// Index returns the 0-based page index.
func (p *Page) Index() int { return p.index }

// Document returns the document the page belongs to.
func (p *Page) Document() *Document { return p.doc }

// Geometry returns the page's media box size.
func (p *Page) Geometry() Geometry { return p.geometry }

// Origin returns the lower-left corner of the media box. Overlays are
// placed relative to it.
func (p *Page) Origin() (x, y float64) { return p.originX, p.originY }

// Resources returns the page's effective resource dictionary, which may be
// inherited from the page tree or shared with other pages. Callers must
// clone it before modifying it.
func (p *Page) Resources() (types.Dict, error) {
	if o, found := p.dict.Find("Resources"); found && o != nil {
		d, err := p.doc.ctx.DereferenceDict(o)
		if err != nil {
			return nil, fmt.Errorf("%w: resources: %w", ErrParse, err)
		}
		return d, nil
	}
	if p.inherited != nil {
		return p.inherited.Resources, nil
	}
	return nil, nil
}

// Contents returns the page's content streams in drawing order as a fresh
// array of references. A page without contents yields an empty array.
func (p *Page) Contents() (types.Array, error) {
	o, found := p.dict.Find("Contents")
	if !found || o == nil {
		return types.Array{}, nil
	}

	switch obj := o.(type) {
	case types.IndirectRef:
		v, err := p.doc.ctx.Dereference(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: contents: %w", ErrParse, err)
		}
		if arr, ok := v.(types.Array); ok {
			return append(types.Array{}, arr...), nil
		}
		return types.Array{obj}, nil
	case types.Array:
		return append(types.Array{}, obj...), nil
	default:
		return nil, fmt.Errorf("%w: unexpected contents entry %T", ErrParse, o)
	}
}

// Content returns the decoded content of all of the page's content streams,
// concatenated in drawing order.
func (p *Page) Content() ([]byte, error) {
	refs, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var out []byte
	for _, ref := range refs {
		o, err := p.doc.ctx.Dereference(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: content stream: %w", ErrParse, err)
		}
		sd, ok := o.(types.StreamDict)
		if !ok {
			return nil, fmt.Errorf("%w: content entry is %T, not a stream", ErrParse, o)
		}
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("%w: decode content stream: %w", ErrParse, err)
		}
		out = append(out, sd.Content...)
	}
	return out, nil
}

// Entry returns a direct entry of the page dictionary.
func (p *Page) Entry(key string) (types.Object, bool) {
	return p.dict.Find(key)
}

// CompositedPage is a first page with replacement Contents and Resources
// entries. The entries are installed into the document by Assemble.
type CompositedPage struct {
	page      *Page
	contents  types.Array
	resources types.Dict
	changed   bool
}

// NewCompositedPage describes page p drawn with the given content stream
// references and resource dictionary.
func NewCompositedPage(p *Page, contents types.Array, resources types.Dict) *CompositedPage {
	return &CompositedPage{
		page:      p,
		contents:  contents,
		resources: resources,
		changed:   true,
	}
}

// UnchangedPage wraps p without modifications.
func UnchangedPage(p *Page) *CompositedPage {
	return &CompositedPage{page: p}
}

// Page returns the page the composition applies to.
func (c *CompositedPage) Page() *Page { return c.page }

// Changed reports whether the composition alters the page.
func (c *CompositedPage) Changed() bool { return c.changed }

// Contents returns the replacement content stream references.
func (c *CompositedPage) Contents() types.Array { return c.contents }

// Resources returns the replacement resource dictionary.
func (c *CompositedPage) Resources() types.Dict { return c.resources }
