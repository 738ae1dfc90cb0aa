// Package compose merges a generated overlay onto an existing page.
//
// Compositing is additive. The target's content streams are kept as they
// are and bracketed by a save/restore pair, then the overlay is drawn on
// top as a form XObject with its own resources. The target's resource
// dictionary is cloned before the XObject is registered, so dictionaries
// shared with other pages are never modified.
package compose

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/stamper/internal/overlay"
	"github.com/jackzampolin/stamper/internal/pdfdoc"
)

// ErrGeometryMismatch indicates the overlay was built for a page of a
// different size than the target.
var ErrGeometryMismatch = errors.New("overlay geometry does not match target page")

// xobjectPrefix names the overlay in the target's XObject resources.
const xobjectPrefix = "Voucher"

// Composite draws ov on top of target. The overlay must have exactly the
// target's geometry. An empty overlay leaves the page unchanged.
func Composite(target *pdfdoc.Page, ov *overlay.Overlay) (*pdfdoc.CompositedPage, error) {
	if target == nil || ov == nil {
		return nil, errors.New("composite: nil page or overlay")
	}
	if !ov.Geometry.Equal(target.Geometry()) {
		return nil, fmt.Errorf("%w: overlay %v, page %v", ErrGeometryMismatch, ov.Geometry, target.Geometry())
	}
	if ov.Empty() {
		return pdfdoc.UnchangedPage(target), nil
	}

	ctx := target.Document().Context()

	form, err := newForm(ctx, ov)
	if err != nil {
		return nil, err
	}

	resources, name, err := withXObject(ctx, target, form)
	if err != nil {
		return nil, err
	}

	contents, err := target.Contents()
	if err != nil {
		return nil, err
	}

	open, err := newStream(ctx, []byte("q\n"))
	if err != nil {
		return nil, err
	}
	ox, oy := target.Origin()
	invoke := fmt.Sprintf("Q\nq 1 0 0 1 %s %s cm /%s Do Q\n", num(ox), num(oy), name)
	closing, err := newStream(ctx, []byte(invoke))
	if err != nil {
		return nil, err
	}

	merged := make(types.Array, 0, len(contents)+2)
	merged = append(merged, *open)
	merged = append(merged, contents...)
	merged = append(merged, *closing)

	return pdfdoc.NewCompositedPage(target, merged, resources), nil
}

// newForm registers the overlay content as a form XObject.
func newForm(ctx *model.Context, ov *overlay.Overlay) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(ov.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay stream: %w", err)
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewNumberArray(0, 0, ov.Geometry.Width, ov.Geometry.Height))
	sd.Insert("Resources", types.Dict{
		"Font": types.Dict{
			overlay.FontResource: types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name(overlay.FontName),
				"Encoding": types.Name(overlay.FontEncoding),
			},
		},
	})
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode overlay stream: %w", err)
	}

	ir, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register overlay stream: %w", err)
	}
	return ir, nil
}

func newStream(ctx *model.Context, content []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	ir, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register content stream: %w", err)
	}
	return ir, nil
}

// withXObject returns a copy of the page's effective resources with form
// registered under an unused name.
func withXObject(ctx *model.Context, page *pdfdoc.Page, form *types.IndirectRef) (types.Dict, string, error) {
	res, err := page.Resources()
	if err != nil {
		return nil, "", err
	}

	resources := types.Dict{}
	if res != nil {
		resources = res.Clone().(types.Dict)
	}

	xobjects := types.Dict{}
	if o, found := resources.Find("XObject"); found && o != nil {
		d, err := ctx.DereferenceDict(o)
		if err != nil {
			return nil, "", fmt.Errorf("%w: xobject resources: %w", pdfdoc.ErrParse, err)
		}
		if d != nil {
			xobjects = d.Clone().(types.Dict)
		}
	}

	name := uniqueName(xobjects, xobjectPrefix)
	xobjects[name] = *form
	resources["XObject"] = xobjects

	return resources, name, nil
}

func uniqueName(d types.Dict, prefix string) string {
	if _, taken := d[prefix]; !taken {
		return prefix
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if _, taken := d[name]; !taken {
			return name
		}
	}
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
