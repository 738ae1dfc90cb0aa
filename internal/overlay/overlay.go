// Package overlay generates the voucher annotation drawn on an invoice's
// first page.
//
// An Overlay is a single page the size of the target page. Its content
// stream draws the label "Voucher Num: {voucher}" 50pt from the top-left
// corner in Helvetica-Bold 12pt and a stroked rectangle around it with 5pt
// padding. Coordinates are in default user space, origin bottom-left.
package overlay

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/text/encoding/charmap"

	"github.com/jackzampolin/stamper/internal/pdfdoc"
)

// Annotation layout. Font, size and colour are fixed so identical inputs
// always yield identical drawing instructions.
const (
	FontName     = "Helvetica-Bold"
	FontSize     = 12
	FontEncoding = "WinAnsiEncoding"

	// FontResource is the name the content stream uses for the font. It is
	// scoped to the overlay's own resource dictionary.
	FontResource = "F1"

	LabelPrefix = "Voucher Num: "

	Margin    = 50.0 // distance of the text origin from the left and top edges
	Padding   = 5.0  // gap between text and border
	BoxHeight = 20.0

	// ascent is the Helvetica-Bold ascender in text space units per point.
	ascent = 0.718
)

// Rect is an axis-aligned rectangle with its origin at the lower-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether inner lies inside r with at least pad points of
// clearance on every side.
func (r Rect) Contains(inner Rect, pad float64) bool {
	const eps = 1e-9
	return inner.X-r.X >= pad-eps &&
		inner.Y-r.Y >= pad-eps &&
		(r.X+r.W)-(inner.X+inner.W) >= pad-eps &&
		(r.Y+r.H)-(inner.Y+inner.H) >= pad-eps
}

// Overlay is the generated annotation page.
type Overlay struct {
	// Geometry is the overlay page size. It always equals the geometry it
	// was built for.
	Geometry pdfdoc.Geometry

	// Label is the rendered text, empty when there is nothing to draw.
	Label string

	// Content is the page content stream. It contains no drawing operators
	// when Label is empty.
	Content []byte

	textWidth float64
}

// Build generates the overlay for a page of geometry g carrying voucher.
// An empty or whitespace-only voucher produces an overlay with no marks.
func Build(g pdfdoc.Geometry, voucher string) (*Overlay, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ov := &Overlay{Geometry: g}
	if strings.TrimSpace(voucher) == "" {
		return ov, nil
	}

	encoded := encodeWinAnsi(LabelPrefix + voucher)

	ov.Label = decodeWinAnsi(encoded)
	ov.textWidth = font.TextWidth(string(encoded), FontName, FontSize)
	ov.Content = ov.render(encoded)
	return ov, nil
}

// Empty reports whether the overlay draws nothing.
func (o *Overlay) Empty() bool {
	return o.Label == ""
}

// TextOrigin returns the baseline start of the label.
func (o *Overlay) TextOrigin() (x, y float64) {
	return Margin, o.Geometry.Height - Margin
}

// TextWidth returns the rendered label width in points.
func (o *Overlay) TextWidth() float64 {
	return o.textWidth
}

// TextBounds returns the label's box from baseline to ascender.
func (o *Overlay) TextBounds() Rect {
	x, y := o.TextOrigin()
	return Rect{X: x, Y: y, W: o.textWidth, H: ascent * FontSize}
}

// Box returns the stroked border rectangle.
func (o *Overlay) Box() Rect {
	x, y := o.TextOrigin()
	return Rect{
		X: x - Padding,
		Y: y - Padding,
		W: o.textWidth + 2*Padding,
		H: BoxHeight,
	}
}

func (o *Overlay) render(text []byte) []byte {
	x, y := o.TextOrigin()
	box := o.Box()

	var b bytes.Buffer
	b.WriteString("q\n")
	b.WriteString("0 0 0 rg\n")
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "/%s %d Tf\n", FontResource, FontSize)
	fmt.Fprintf(&b, "%s %s Td\n", num(x), num(y))
	fmt.Fprintf(&b, "<%s> Tj\n", hex.EncodeToString(text))
	b.WriteString("ET\n")
	b.WriteString("0 0 0 RG\n")
	b.WriteString("1 w\n")
	fmt.Fprintf(&b, "%s %s %s %s re\n", num(box.X), num(box.Y), num(box.W), num(box.H))
	b.WriteString("S\n")
	b.WriteString("Q\n")
	return b.Bytes()
}

// encodeWinAnsi maps s to the font's WinAnsi encoding. Runes outside the
// code page become '?'.
func encodeWinAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func decodeWinAnsi(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return sb.String()
}

// num formats a coordinate with at most three decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
