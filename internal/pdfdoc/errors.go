package pdfdoc

import "errors"

var (
	// ErrNotFound indicates the source file does not exist.
	ErrNotFound = errors.New("source file not found")

	// ErrParse indicates the source file is not a readable PDF.
	ErrParse = errors.New("not a readable PDF")

	// ErrEmptyDocument indicates the document parsed but has no pages.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrInvalidGeometry indicates a page size that is not positive and finite.
	ErrInvalidGeometry = errors.New("invalid page geometry")

	// ErrPageOutOfRange indicates a page index outside [0, PageCount).
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrForeignPage indicates a composited page handed to Assemble that is
	// not the first page of the document being assembled.
	ErrForeignPage = errors.New("composited page does not belong to source document")
)
