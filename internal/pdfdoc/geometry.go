package pdfdoc

import (
	"fmt"
	"math"
)

// Geometry is a page's media box size in points.
type Geometry struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Common page sizes.
var (
	A4     = Geometry{Width: 595, Height: 842}
	Letter = Geometry{Width: 612, Height: 792}
)

// Validate checks that both dimensions are positive finite numbers.
func (g Geometry) Validate() error {
	if !validDimension(g.Width) || !validDimension(g.Height) {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, g)
	}
	return nil
}

// Equal reports whether g and o describe exactly the same size.
func (g Geometry) Equal(o Geometry) bool {
	return g.Width == o.Width && g.Height == o.Height
}

func (g Geometry) String() string {
	return fmt.Sprintf("%gx%g", g.Width, g.Height)
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
