package vt

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Surface receives paint requests for individual cells.
type Surface interface {
	DrawCell(rect image.Rectangle, cell Cell, inverse bool)
}

// FontMetrics is the pixel size of one grid cell.
type FontMetrics struct {
	CellWidth  int
	CellHeight int
}

// DefaultFace is used when no face has been configured.
var DefaultFace font.Face = basicfont.Face7x13

// MetricsFromFace measures a monospace face: the advance of 'a' for width and
// the line height for height.
func MetricsFromFace(face font.Face) FontMetrics {
	adv, ok := face.GlyphAdvance('a')
	if !ok {
		adv = fixed.I(1)
	}
	m := face.Metrics()
	return FontMetrics{
		CellWidth:  adv.Ceil(),
		CellHeight: m.Height.Ceil(),
	}
}

// CellRect is the pixel rectangle of the cell at viewport-relative (row, col).
func (m FontMetrics) CellRect(row, col int) image.Rectangle {
	x := col * m.CellWidth
	y := row * m.CellHeight
	return image.Rect(x, y, x+m.CellWidth, y+m.CellHeight)
}

// ImageSurface paints cells into an in-memory RGBA image.
type ImageSurface struct {
	Img  *image.RGBA
	Face font.Face
}

// NewImageSurface allocates an image large enough for cols x rows cells.
func NewImageSurface(cols, rows int, face font.Face) *ImageSurface {
	if face == nil {
		face = DefaultFace
	}
	m := MetricsFromFace(face)
	return &ImageSurface{
		Img:  image.NewRGBA(image.Rect(0, 0, cols*m.CellWidth, rows*m.CellHeight)),
		Face: face,
	}
}

func (s *ImageSurface) DrawCell(rect image.Rectangle, cell Cell, inverse bool) {
	fg, bg := cell.Colors(inverse)
	draw.Draw(s.Img, rect, image.NewUniform(toRGBA(bg, color.RGBA{A: 0xff})), image.Point{}, draw.Src)

	if cell.Char == 0 || cell.Char == ' ' {
		return
	}

	fgc := toRGBA(fg, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	d := font.Drawer{
		Dst:  s.Img,
		Src:  image.NewUniform(fgc),
		Face: s.Face,
		Dot:  fixed.P(rect.Min.X, rect.Min.Y+s.Face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(string(cell.Char))

	if cell.Style.Has(StyleBold) {
		// no bold face in basicfont; overstrike one pixel to the right
		d.Dot = fixed.P(rect.Min.X+1, rect.Min.Y+s.Face.Metrics().Ascent.Ceil())
		d.DrawString(string(cell.Char))
	}
	if cell.Style.Has(StyleUnderline) {
		line := image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y)
		draw.Draw(s.Img, line, image.NewUniform(fgc), image.Point{}, draw.Src)
	}
}

func toRGBA(c tcell.Color, fallback color.RGBA) color.RGBA {
	if c == tcell.ColorDefault || !c.Valid() {
		return fallback
	}
	r, g, b := c.RGB()
	if r < 0 {
		return fallback
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}
