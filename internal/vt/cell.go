package vt

import (
	"image"

	"github.com/gdamore/tcell/v2"
)

// Color is the colour stored in a cell and in the cursor's pending attributes.
type Color = tcell.Color

// Default colours applied by Cursor.ResetAttributes and used for blank cells.
var (
	DefaultForeground = tcell.NewRGBColor(255, 255, 255)
	DefaultBackground = tcell.NewRGBColor(0, 0, 0)
)

// StyleFlags holds the per-cell rendition bits.
type StyleFlags uint8

const (
	StyleBold StyleFlags = 1 << iota
	StyleUnderline
	StyleInverse
)

// Has reports whether every bit in f is set.
func (s StyleFlags) Has(f StyleFlags) bool {
	return s&f == f
}

// Position is an absolute grid coordinate. Row includes the scrollback offset.
type Position struct {
	Row int
	Col int
}

// Cell is the smallest addressable unit of the grid.
type Cell struct {
	Char       rune // 0 marks the right half of a wide rune
	Foreground Color
	Background Color
	Style      StyleFlags

	dirty bool
}

// BlankCell returns a space drawn in the default colours.
func BlankCell() Cell {
	return Cell{
		Char:       ' ',
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// Reset blanks the cell. The dirty flag is left for the caller to set.
func (c *Cell) Reset() {
	dirty := c.dirty
	*c = BlankCell()
	c.dirty = dirty
}

// SetDirty flags the cell for the next redraw. Calling it repeatedly is harmless.
func (c *Cell) SetDirty() {
	c.dirty = true
}

// IsDirty reports whether the cell changed since the last redraw.
func (c *Cell) IsDirty() bool {
	return c.dirty
}

// ClearDirty is called by the redraw pass once the cell has been painted.
func (c *Cell) ClearDirty() {
	c.dirty = false
}

// apply copies a full attribute set onto the cell.
func (c *Cell) apply(a Attributes) {
	c.Foreground = a.Foreground
	c.Background = a.Background
	c.Style = a.styleFlags()
}

// Draw asks the surface to paint the cell at rect. Inverse swaps the colours on
// top of whatever the cell itself carries, which is how the cursor is shown.
func (c *Cell) Draw(surface Surface, rect image.Rectangle, inverse bool) {
	surface.DrawCell(rect, *c, inverse)
}

// Colors resolves the colours a renderer should use, honouring StyleInverse and
// an extra inversion requested by the caller.
func (c Cell) Colors(inverse bool) (fg, bg Color) {
	fg, bg = c.Foreground, c.Background
	if c.Style.Has(StyleInverse) != inverse {
		fg, bg = bg, fg
	}
	return fg, bg
}
