// Package manifest defines the unit of work for a stamping run and reads
// and writes manifest files (xlsx, csv, json).
//
// A manifest has three required columns: "File Name" (the source PDF),
// "Invoice Num" (the output base name) and "Voucher Num" (the annotation,
// may be empty).
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Column headers.
const (
	ColumnFileName   = "File Name"
	ColumnInvoiceNum = "Invoice Num"
	ColumnVoucherNum = "Voucher Num"
)

// Columns lists the required columns in canonical order.
var Columns = []string{ColumnFileName, ColumnInvoiceNum, ColumnVoucherNum}

var (
	// ErrInvalidRecord indicates a record that cannot be processed.
	ErrInvalidRecord = errors.New("invalid manifest record")

	// ErrMissingColumn indicates a manifest without a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnsupportedFormat indicates an unknown manifest file extension.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrNoPDFs indicates a source folder without PDF files.
	ErrNoPDFs = errors.New("no PDF files found")
)

// Record is one manifest row.
type Record struct {
	FileName   string `json:"file_name" yaml:"file_name"`
	InvoiceNum string `json:"invoice_num" yaml:"invoice_num"`
	VoucherNum string `json:"voucher_num" yaml:"voucher_num"`
}

// Validate checks that the record names a source file and an invoice number
// usable verbatim as a file base name.
func (r Record) Validate() error {
	if r.FileName == "" {
		return fmt.Errorf("%w: empty file name", ErrInvalidRecord)
	}
	switch {
	case r.InvoiceNum == "":
		return fmt.Errorf("%w: %s: empty invoice number", ErrInvalidRecord, r.FileName)
	case r.InvoiceNum == "." || r.InvoiceNum == "..":
		return fmt.Errorf("%w: %s: invoice number %q is not a file name", ErrInvalidRecord, r.FileName, r.InvoiceNum)
	case strings.ContainsAny(r.InvoiceNum, `/\`):
		return fmt.Errorf("%w: %s: invoice number %q contains a path separator", ErrInvalidRecord, r.FileName, r.InvoiceNum)
	}
	return nil
}

// OutputName returns the destination file name, {InvoiceNum}.pdf.
func (r Record) OutputName() string {
	return r.InvoiceNum + ".pdf"
}

// HasVoucher reports whether the record carries an annotation.
func (r Record) HasVoucher() bool {
	return strings.TrimSpace(r.VoucherNum) != ""
}

// normalizeCell trims a cell and maps spreadsheet artifacts to their text
// form: "nan" becomes empty and integral floats like "1234.0" lose the
// fractional part.
func normalizeCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	if i := strings.IndexByte(s, '.'); i > 0 && isDigits(s[:i]) && strings.Trim(s[i+1:], "0") == "" && len(s) > i+1 {
		return s[:i]
	}
	return s
}

func isDigits(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
