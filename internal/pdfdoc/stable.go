package pdfdoc

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FixedDate is the CreationDate and ModDate recorded in every output
// document.
var FixedDate = types.DateString(time.Unix(0, 0).UTC())

// stabilize replaces the clock-derived values pdfcpu writes (Info dates and
// the second file identifier) so the same input always yields the same
// bytes. Replacements keep their length, so xref offsets stay valid.
// Documents written with object or xref streams are returned unchanged.
func stabilize(ctx *model.Context, data []byte) []byte {
	if ctx.WriteObjectStream || ctx.WriteXRefStream || ctx.Encrypt != nil {
		return data
	}

	if ctx.Info != nil {
		if d, err := ctx.DereferenceDict(*ctx.Info); err == nil && d != nil {
			for _, key := range []string{"CreationDate", "ModDate"} {
				s := d.StringEntry(key)
				if s == nil || len(*s) != len(FixedDate) {
					continue
				}
				data = bytes.ReplaceAll(data,
					[]byte(types.StringLiteral(*s).PDFString()),
					[]byte(types.StringLiteral(FixedDate).PDFString()))
				d.Update(key, types.StringLiteral(FixedDate))
			}
		}
	}

	if len(ctx.ID) != 2 {
		return data
	}
	id, ok := ctx.ID[1].(types.HexLiteral)
	if !ok || len(id) != 2*md5.Size {
		return data
	}

	// The identifier becomes a digest of the document with the identifier
	// zeroed out.
	blank := types.HexLiteral(bytes.Repeat([]byte("0"), len(id)))
	data = bytes.ReplaceAll(data, []byte(id.PDFString()), []byte(blank.PDFString()))
	sum := md5.Sum(data)
	stable := types.HexLiteral(hex.EncodeToString(sum[:]))
	data = bytes.ReplaceAll(data, []byte(blank.PDFString()), []byte(stable.PDFString()))
	ctx.ID[1] = stable
	if first, ok := ctx.ID[0].(types.HexLiteral); ok && first == id {
		ctx.ID[0] = stable
	}
	return data
}
