package overlay

import (
	"bytes"
	"encoding/hex"
	"math"
	"strings"
	"testing"

	"github.com/jackzampolin/stamper/internal/pdfdoc"
)

func TestBuild(t *testing.T) {
	sizes := []pdfdoc.Geometry{
		pdfdoc.A4,
		pdfdoc.Letter,
		{Width: 300, Height: 1000},
	}

	for _, g := range sizes {
		t.Run(g.String(), func(t *testing.T) {
			ov, err := Build(g, "V-77")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !ov.Geometry.Equal(g) {
				t.Errorf("Geometry = %v, want %v", ov.Geometry, g)
			}
			if ov.Label != "Voucher Num: V-77" {
				t.Errorf("Label = %q, want %q", ov.Label, "Voucher Num: V-77")
			}

			x, y := ov.TextOrigin()
			if x != 50 || y != g.Height-50 {
				t.Errorf("TextOrigin() = (%g, %g), want (50, %g)", x, y, g.Height-50)
			}
			if ov.TextWidth() <= 0 {
				t.Errorf("TextWidth() = %g, want positive", ov.TextWidth())
			}

			// The border surrounds the text with at least the configured
			// padding on every side and fits inside the page.
			box, text := ov.Box(), ov.TextBounds()
			if box.X != text.X-Padding || box.Y != text.Y-Padding {
				t.Errorf("Box() origin = (%g, %g), want padding %g around text", box.X, box.Y, Padding)
			}
			if got := box.W - text.W; math.Abs(got-2*Padding) > 1e-9 {
				t.Errorf("Box() width exceeds text by %g, want %g", got, 2*Padding)
			}
			if box.H != BoxHeight {
				t.Errorf("Box() height = %g, want %g", box.H, BoxHeight)
			}
			if !box.Contains(text, Padding) {
				t.Errorf("Box() %+v does not contain text %+v with %gpt padding", box, text, Padding)
			}
			page := Rect{W: g.Width, H: g.Height}
			if !page.Contains(box, 0) {
				t.Errorf("Box() %+v escapes page %v", box, g)
			}
		})
	}
}

func TestBuild_Content(t *testing.T) {
	ov, err := Build(pdfdoc.Letter, "V-77")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	content := string(ov.Content)

	wantHex := "<" + hex.EncodeToString([]byte("Voucher Num: V-77")) + "> Tj"
	for _, want := range []string{"/F1 12 Tf", "50 742 Td", wantHex, " re\nS\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("Content missing %q:\n%s", want, content)
		}
	}
	if !strings.HasPrefix(content, "q\n") || !strings.HasSuffix(content, "Q\n") {
		t.Errorf("Content is not wrapped in q/Q:\n%s", content)
	}
}

func TestBuild_Empty(t *testing.T) {
	for _, voucher := range []string{"", "   ", "\t\n"} {
		ov, err := Build(pdfdoc.A4, voucher)
		if err != nil {
			t.Fatalf("Build(%q) error = %v", voucher, err)
		}
		if !ov.Empty() {
			t.Errorf("Build(%q).Empty() = false, want true", voucher)
		}
		if len(ov.Content) != 0 {
			t.Errorf("Build(%q).Content = %q, want no drawing", voucher, ov.Content)
		}
		if !ov.Geometry.Equal(pdfdoc.A4) {
			t.Errorf("Build(%q).Geometry = %v, want A4", voucher, ov.Geometry)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(pdfdoc.Letter, "V-123")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(pdfdoc.Letter, "V-123")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Content, b.Content) {
		t.Errorf("Build() not deterministic:\n%s\n%s", a.Content, b.Content)
	}
}

func TestBuild_NonASCII(t *testing.T) {
	ov, err := Build(pdfdoc.Letter, "Nº 5 – ü 漢")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// Characters outside WinAnsi are substituted, the rest are kept.
	if want := "Voucher Num: Nº 5 – ü ?"; ov.Label != want {
		t.Errorf("Label = %q, want %q", ov.Label, want)
	}
	if ov.TextWidth() <= 0 {
		t.Errorf("TextWidth() = %g, want positive", ov.TextWidth())
	}
}

func TestBuild_InvalidGeometry(t *testing.T) {
	if _, err := Build(pdfdoc.Geometry{Width: 0, Height: 100}, "V"); err == nil {
		t.Error("Build() with zero width succeeded")
	}
}

func TestRect_Contains(t *testing.T) {
	outer := Rect{X: 0, Y: 0, W: 100, H: 100}
	tests := []struct {
		name  string
		inner Rect
		pad   float64
		want  bool
	}{
		{"inside", Rect{X: 10, Y: 10, W: 10, H: 10}, 5, true},
		{"touching edge", Rect{X: 0, Y: 0, W: 10, H: 10}, 0, true},
		{"too close for padding", Rect{X: 2, Y: 10, W: 10, H: 10}, 5, false},
		{"outside", Rect{X: 95, Y: 95, W: 10, H: 10}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.inner, tt.pad); got != tt.want {
				t.Errorf("Contains(%+v, %g) = %v, want %v", tt.inner, tt.pad, got, tt.want)
			}
		})
	}
}
