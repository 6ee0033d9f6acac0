package vt

import (
	"io"
	"log"

	"golang.org/x/image/font"
)

// Screen is the capability set the cursor needs from the grid that owns it.
// The cursor keeps a non-owning handle; the screen owns every cell.
type Screen interface {
	Size() (width, height int)
	BaseRow() int
	// ScrollBottom is the exclusive absolute row bound of the active scroll region.
	ScrollBottom() int
	BufferSize() int
	Cell(row, col int) *Cell
	IsAlternateBuffer() bool
	Scroll(times int)
	OnCursorActivity()
}

// Outcome discriminates the result of a column or row advance.
type Outcome int

const (
	Completed Outcome = iota
	ScrollRequired
)

func (o Outcome) String() string {
	if o == ScrollRequired {
		return "ScrollRequired"
	}
	return "Completed"
}

// AdvanceResult is returned by every operation that can advance the row. A
// ScrollRequired result must be resolved by the caller (scroll the screen)
// before any other cursor operation; Row is where the cursor was held.
type AdvanceResult struct {
	Outcome Outcome
	Row     int
}

// ScrollRequired reports whether the caller has to scroll the screen.
func (r AdvanceResult) ScrollRequired() bool {
	return r.Outcome == ScrollRequired
}

var completed = AdvanceResult{Outcome: Completed}

// Cursor is the active write position plus the attributes applied to the next
// write. It is not safe for concurrent use.
type Cursor struct {
	screen Screen
	row    int
	col    int
	attrs  Attributes

	face    font.Face
	metrics FontMetrics

	logger *log.Logger
}

// NewCursor creates a cursor at (0, 0) with default attributes.
func NewCursor(screen Screen) *Cursor {
	c := &Cursor{
		screen: screen,
		logger: log.New(io.Discard, "", 0),
	}
	c.SetFont(DefaultFace)
	c.ResetAttributes()
	return c
}

// SetLogger routes debug output. A nil logger discards.
func (c *Cursor) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	c.logger = l
}

// SetFont switches the face used for metric queries.
func (c *Cursor) SetFont(face font.Face) {
	if face == nil {
		face = DefaultFace
	}
	c.face = face
	c.metrics = MetricsFromFace(face)
	c.logger.Printf("Font metrics: (%d, %d)", c.metrics.CellWidth, c.metrics.CellHeight)
}

func (c *Cursor) Font() font.Face {
	return c.face
}

func (c *Cursor) Metrics() FontMetrics {
	return c.metrics
}

// === Attributes ===

func (c *Cursor) SetForeground(color Color) { c.attrs.Foreground = color }
func (c *Cursor) SetBackground(color Color) { c.attrs.Background = color }
func (c *Cursor) SetBold(bold bool)         { c.attrs.Bold = bold }
func (c *Cursor) SetUnderline(on bool)      { c.attrs.Underline = on }
func (c *Cursor) SetInverse(on bool)        { c.attrs.Inverse = on }
func (c *Cursor) SetWraparound(on bool)     { c.attrs.Wraparound = on }

// Attributes returns a copy of the pending attribute set.
func (c *Cursor) Attributes() Attributes {
	return c.attrs
}

// SetAttributes replaces the pending set wholesale (used by restore-cursor).
func (c *Cursor) SetAttributes(a Attributes) {
	c.attrs = a
}

func (c *Cursor) ResetAttributes() {
	c.attrs = DefaultAttributes()
}

// === Writing ===

// Write stores ch with the current attributes at the cursor. With advance set
// the column advance follows immediately and its result is returned.
func (c *Cursor) Write(ch rune, advance bool) AdvanceResult {
	cell := c.cell()
	cell.apply(c.attrs)
	cell.Char = ch
	cell.SetDirty()
	c.logger.Printf("Writing %q to (%d, %d)", ch, c.row, c.col)
	if !advance {
		return completed
	}
	return c.AdvanceColumn()
}

// ResetCell blanks the cell under the cursor.
func (c *Cursor) ResetCell() {
	cell := c.cell()
	cell.Reset()
	cell.SetDirty()
}

// === Advancing ===

// AdvanceColumn moves one column right, wrapping to the next row or holding at
// the last column depending on the wraparound attribute.
func (c *Cursor) AdvanceColumn() AdvanceResult {
	c.dirty()
	c.col++
	width, _ := c.screen.Size()
	if c.col == width {
		if c.attrs.Wraparound {
			c.col = 0
			if res := c.AdvanceRow(true, true); res.ScrollRequired() {
				return res
			}
		} else {
			c.col = width - 1
		}
	}
	c.dirty()
	return completed
}

// AdvanceRow moves one row down. When doScroll is set and the next row is the
// scroll-region bottom, the cursor stays on the boundary row and
// ScrollRequired is returned instead.
func (c *Cursor) AdvanceRow(doScroll, resetCol bool) AdvanceResult {
	c.dirty()
	if resetCol {
		c.col = 0
	}
	scrollBottom := c.screen.ScrollBottom()
	c.logger.Printf("Advance row: scroll_bottom=%d, row=%d, scroll=%v", scrollBottom, c.row, doScroll)

	if doScroll && c.row+1 == scrollBottom {
		if limit := c.screen.BufferSize() - 1; c.row > limit {
			c.row = limit
		}
		return AdvanceResult{Outcome: ScrollRequired, Row: c.row}
	}

	c.row++
	if bottom := c.bottomRow(); c.row > bottom {
		c.row = bottom
	}
	c.dirty()
	return completed
}

// === Relative movement ===

func (c *Cursor) MoveUp(n int) {
	c.screen.OnCursorActivity()
	c.moveTo(c.row-max(n, 0), c.col)
}

func (c *Cursor) MoveDown(n int) {
	c.screen.OnCursorActivity()
	target := c.row + max(n, 0)
	if bottom := c.bottomRow(); target > bottom {
		target = max(bottom, c.row)
	}
	c.moveTo(target, c.col)
}

func (c *Cursor) MoveLeft(n int) {
	c.screen.OnCursorActivity()
	c.moveTo(c.row, c.col-max(n, 0))
}

func (c *Cursor) MoveRight(n int) {
	c.screen.OnCursorActivity()
	width, _ := c.screen.Size()
	target := c.col + max(n, 0)
	if target > width-1 {
		target = max(width-1, c.col)
	}
	c.moveTo(c.row, target)
}

// moveTo clamps against row 0 and column 0, and only dirties when the
// position actually changes.
func (c *Cursor) moveTo(row, col int) {
	row = max(row, 0)
	col = max(col, 0)
	if row == c.row && col == c.col {
		return
	}
	c.dirty()
	c.row, c.col = row, col
	c.dirty()
}

// bottomRow is the lowest row reachable by downward motion: the bottom of the
// visible window, never past the end of the buffer.
func (c *Cursor) bottomRow() int {
	_, height := c.screen.Size()
	return min(c.screen.BaseRow()+height, c.screen.BufferSize()) - 1
}

// === Absolute positioning ===

// SetPosition jumps to an absolute position, clamped to the buffer and width.
func (c *Cursor) SetPosition(row, col int) {
	width, _ := c.screen.Size()
	row = min(max(row, 0), c.screen.BufferSize()-1)
	col = min(max(col, 0), width-1)
	c.dirty()
	c.row, c.col = row, col
	c.dirty()
}

func (c *Cursor) Position() Position {
	return Position{Row: c.row, Col: c.col}
}

// ResetPosition homes the cursor. On the alternate buffer it jumps to (0, 0);
// on the main buffer the viewport is scrolled so its top lands on the cursor
// row, and the cursor itself does not move.
func (c *Cursor) ResetPosition() {
	if c.screen.IsAlternateBuffer() {
		c.dirty()
		c.row, c.col = 0, 0
		c.dirty()
		return
	}
	times := c.row - c.screen.BaseRow()
	c.screen.Scroll(times)
}

func (c *Cursor) ResetColumn() {
	c.dirty()
	c.col = 0
	c.dirty()
}

func (c *Cursor) ResetRow() {
	c.dirty()
	c.row = 0
	c.dirty()
}

// === Rendering ===

// Render draws the cell under the cursor with its colours inverted.
func (c *Cursor) Render(surface Surface) {
	rect := c.metrics.CellRect(c.row-c.screen.BaseRow(), c.col)
	c.cell().Draw(surface, rect, true)
}

func (c *Cursor) cell() *Cell {
	return c.screen.Cell(c.row, c.col)
}

func (c *Cursor) dirty() {
	c.cell().SetDirty()
}
