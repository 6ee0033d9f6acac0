package vt

import (
	"io"
	"log"
	"strings"
	"time"
)

// GridScreen is the grid behind a terminal session: a main buffer with
// scrollback, an alternate buffer without it, and an optional scroll region.
// Rows are absolute; the main viewport starts at BaseRow.
type GridScreen struct {
	width      int
	height     int
	scrollback int

	main           [][]Cell // height + scrollback rows
	alt            [][]Cell // height rows
	base           int      // viewport top within main
	usingAlternate bool

	// Scroll region, viewport relative and inclusive (DECSTBM)
	regionTop    int
	regionBottom int
	regionSet    bool

	// Blink state, reset by cursor activity
	blinkInterval time.Duration
	lastActivity  time.Time
	activity      int
	now           func() time.Time

	scratch Cell
	logger  *log.Logger
}

// NewGridScreen creates a blank screen of columns x lines with room for
// scrollback lines of history above the viewport.
func NewGridScreen(columns, lines, scrollback int) *GridScreen {
	columns = max(columns, 1)
	lines = max(lines, 1)
	scrollback = max(scrollback, 0)

	s := &GridScreen{
		width:        columns,
		height:       lines,
		scrollback:   scrollback,
		main:         newRows(lines+scrollback, columns),
		alt:          newRows(lines, columns),
		regionBottom: lines - 1,
		now:          time.Now,
		logger:       log.New(io.Discard, "", 0),
	}
	s.lastActivity = s.now()
	s.MarkAllDirty()
	return s
}

func newRows(n, width int) [][]Cell {
	rows := make([][]Cell, n)
	for i := range rows {
		rows[i] = newRow(width)
	}
	return rows
}

func newRow(width int) []Cell {
	row := make([]Cell, width)
	for j := range row {
		row[j] = BlankCell()
	}
	return row
}

// SetLogger routes debug output. A nil logger discards.
func (s *GridScreen) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.logger = l
}

// SetBlinkInterval sets the cursor blink half-period. Zero disables blinking.
func (s *GridScreen) SetBlinkInterval(d time.Duration) {
	s.blinkInterval = max(d, 0)
}

// === Geometry ===

func (s *GridScreen) Size() (width, height int) {
	return s.width, s.height
}

func (s *GridScreen) BaseRow() int {
	if s.usingAlternate {
		return 0
	}
	return s.base
}

func (s *GridScreen) ScrollBottom() int {
	return s.BaseRow() + s.regionBottom + 1
}

// ScrollTop is the absolute first row of the scroll region.
func (s *GridScreen) ScrollTop() int {
	return s.BaseRow() + s.regionTop
}

func (s *GridScreen) BufferSize() int {
	return len(s.rows())
}

func (s *GridScreen) IsAlternateBuffer() bool {
	return s.usingAlternate
}

func (s *GridScreen) rows() [][]Cell {
	if s.usingAlternate {
		return s.alt
	}
	return s.main
}

// Cell returns the cell at absolute coordinates. Coordinates outside the
// active buffer yield a scratch cell so a misplaced cursor never panics.
func (s *GridScreen) Cell(row, col int) *Cell {
	rows := s.rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		s.scratch = BlankCell()
		return &s.scratch
	}
	return &rows[row][col]
}

// === Scrolling ===

// Scroll shifts content by times rows. On the main buffer without a scroll
// region the viewport moves down into the buffer and what leaves the top
// becomes scrollback; once the buffer end is reached the oldest rows are
// dropped. Inside a scroll region, or on the alternate buffer, the region
// rows shift up and blank rows enter at its bottom.
func (s *GridScreen) Scroll(times int) {
	if times <= 0 {
		return
	}

	if s.regionSet || s.usingAlternate {
		top, bottom := s.ScrollTop(), s.ScrollBottom()-1
		shiftUp(s.rows(), top, bottom, times, s.width)
		s.logger.Printf("Scroll: region %d-%d by %d", top, bottom, times)
		s.MarkAllDirty()
		return
	}

	oldEnd := s.base + s.height
	newBase := s.base + times
	if over := newBase + s.height - len(s.main); over > 0 {
		shiftUp(s.main, 0, len(s.main)-1, over, s.width)
		newBase -= over
		oldEnd -= over
	}
	for r := max(oldEnd, 0); r < newBase+s.height; r++ {
		s.main[r] = newRow(s.width)
	}
	s.base = newBase
	s.logger.Printf("Scroll: base row now %d (buffer %d)", s.base, len(s.main))
	s.MarkAllDirty()
}

// shiftUp moves rows top..bottom (inclusive) up by n, blanking the n rows
// freed at the bottom.
func shiftUp(rows [][]Cell, top, bottom, n, width int) {
	if top < 0 || bottom >= len(rows) || top > bottom {
		return
	}
	n = min(n, bottom-top+1)
	for y := top; y <= bottom-n; y++ {
		rows[y] = rows[y+n]
	}
	for y := bottom - n + 1; y <= bottom; y++ {
		rows[y] = newRow(width)
	}
}

// SetScrollRegion sets the DECSTBM margins, viewport relative and inclusive.
// An empty or inverted range, or one covering the whole screen, clears it.
func (s *GridScreen) SetScrollRegion(top, bottom int) {
	top = max(top, 0)
	bottom = min(bottom, s.height-1)
	if top >= bottom || (top == 0 && bottom == s.height-1) {
		s.ResetScrollRegion()
		return
	}
	s.regionTop, s.regionBottom, s.regionSet = top, bottom, true
	s.logger.Printf("Set scroll region: %d-%d (0-based)", top, bottom)
}

func (s *GridScreen) ResetScrollRegion() {
	s.regionTop, s.regionBottom, s.regionSet = 0, s.height-1, false
}

// ScrollRegion returns the margins (viewport relative, inclusive) and whether
// a region narrower than the screen is active.
func (s *GridScreen) ScrollRegion() (top, bottom int, set bool) {
	return s.regionTop, s.regionBottom, s.regionSet
}

// === Cursor activity and blink ===

// OnCursorActivity restarts the blink cycle so the cursor is shown.
func (s *GridScreen) OnCursorActivity() {
	s.activity++
	s.lastActivity = s.now()
}

// Activity counts OnCursorActivity calls.
func (s *GridScreen) Activity() int {
	return s.activity
}

// CursorVisible reports the blink phase at now.
func (s *GridScreen) CursorVisible(now time.Time) bool {
	if s.blinkInterval == 0 {
		return true
	}
	elapsed := now.Sub(s.lastActivity)
	if elapsed < 0 {
		return true
	}
	return (elapsed/s.blinkInterval)%2 == 0
}

// === Alternate buffer ===

// EnterAlternateBuffer switches to a cleared alternate grid. The main grid and
// its scrollback are left untouched.
func (s *GridScreen) EnterAlternateBuffer() {
	if s.usingAlternate {
		return
	}
	for i := range s.alt {
		s.alt[i] = newRow(s.width)
	}
	s.usingAlternate = true
	s.ResetScrollRegion()
	s.MarkAllDirty()
	s.logger.Printf("Switched to alternate buffer")
}

func (s *GridScreen) ExitAlternateBuffer() {
	if !s.usingAlternate {
		return
	}
	s.usingAlternate = false
	s.ResetScrollRegion()
	s.MarkAllDirty()
	s.logger.Printf("Switched to main buffer")
}

// === Erasing ===

// EraseRange blanks columns from..to (inclusive) of an absolute row.
func (s *GridScreen) EraseRange(row, from, to int) {
	rows := s.rows()
	if row < 0 || row >= len(rows) {
		return
	}
	from = max(from, 0)
	to = min(to, s.width-1)
	for x := from; x <= to; x++ {
		rows[row][x].Reset()
		rows[row][x].SetDirty()
	}
}

// EraseRows blanks absolute rows from..to (inclusive).
func (s *GridScreen) EraseRows(from, to int) {
	for r := from; r <= to; r++ {
		s.EraseRange(r, 0, s.width-1)
	}
}

// Reset clears both buffers and all scrollback.
func (s *GridScreen) Reset() {
	s.main = newRows(s.height+s.scrollback, s.width)
	s.alt = newRows(s.height, s.width)
	s.base = 0
	s.usingAlternate = false
	s.ResetScrollRegion()
	s.MarkAllDirty()
}

// === Resize ===

// Resize changes the visible geometry. The bottom of the main viewport stays
// anchored: shrinking pushes top rows into scrollback and growing pulls them
// back. The returned shift is how many rows were dropped from the top of the
// main buffer; absolute rows held elsewhere must be reduced by it.
func (s *GridScreen) Resize(columns, lines int) (shift int) {
	return s.ResizeAround(columns, lines, -1)
}

// ResizeAround is Resize that keeps the absolute main-buffer row keep inside
// the new viewport, giving up bottom rows before it. A negative keep anchors
// the bottom only.
func (s *GridScreen) ResizeAround(columns, lines, keep int) (shift int) {
	if columns <= 0 || lines <= 0 {
		return 0
	}
	if columns == s.width && lines == s.height {
		return 0
	}

	for i := range s.main {
		s.main[i] = resizeRow(s.main[i], columns)
	}
	for i := range s.alt {
		s.alt[i] = resizeRow(s.alt[i], columns)
	}

	oldEnd := s.base + s.height
	newLen := lines + s.scrollback
	newBase := max(oldEnd-lines, 0)
	if keep >= 0 {
		newBase = min(newBase, max(keep-lines+1, 0))
	}
	drop := max(newBase+lines-newLen, 0)
	rows := s.main[drop:]
	newBase -= drop
	if len(rows) > newLen {
		rows = rows[:newLen]
	}
	for len(rows) < newLen {
		rows = append(rows, newRow(columns))
	}
	s.main = rows
	s.base = newBase

	alt := s.alt
	if len(alt) > lines {
		alt = alt[:lines]
	}
	for len(alt) < lines {
		alt = append(alt, newRow(columns))
	}
	s.alt = alt

	s.width, s.height = columns, lines
	s.ResetScrollRegion()
	s.MarkAllDirty()
	s.logger.Printf("Screen resized to %dx%d, base row %d", columns, lines, s.base)
	return drop
}

func resizeRow(row []Cell, width int) []Cell {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]Cell, width)
	copy(out, row)
	for i := len(row); i < width; i++ {
		out[i] = BlankCell()
	}
	return out
}

// === Dirty tracking and redraw ===

// MarkAllDirty flags every visible cell.
func (s *GridScreen) MarkAllDirty() {
	rows := s.rows()
	vb := s.BaseRow()
	for r := vb; r < vb+s.height && r < len(rows); r++ {
		for c := range rows[r] {
			rows[r][c].SetDirty()
		}
	}
}

// DirtyCells lists visible cells changed since the last redraw.
func (s *GridScreen) DirtyCells() []Position {
	var out []Position
	rows := s.rows()
	vb := s.BaseRow()
	for r := vb; r < vb+s.height && r < len(rows); r++ {
		for c := range rows[r] {
			if rows[r][c].IsDirty() {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// Redraw paints every dirty visible cell and clears its flag. It returns the
// number of cells painted.
func (s *GridScreen) Redraw(surface Surface, metrics FontMetrics) int {
	rows := s.rows()
	vb := s.BaseRow()
	painted := 0
	for r := vb; r < vb+s.height && r < len(rows); r++ {
		for c := range rows[r] {
			cell := &rows[r][c]
			if !cell.IsDirty() {
				continue
			}
			cell.Draw(surface, metrics.CellRect(r-vb, c), false)
			cell.ClearDirty()
			painted++
		}
	}
	return painted
}

// === Inspection ===

// Display returns the visible rows with trailing blanks trimmed.
func (s *GridScreen) Display() []string {
	rows := s.rows()
	vb := s.BaseRow()
	lines := make([]string, 0, s.height)
	for r := vb; r < vb+s.height && r < len(rows); r++ {
		lines = append(lines, rowText(rows[r]))
	}
	return lines
}

// ScrollbackLines returns the main-buffer rows above the viewport, oldest first.
func (s *GridScreen) ScrollbackLines() []string {
	lines := make([]string, 0, s.base)
	for r := 0; r < s.base; r++ {
		lines = append(lines, rowText(s.main[r]))
	}
	return lines
}

func rowText(row []Cell) string {
	var b strings.Builder
	for _, cell := range row {
		// continuation half of a wide rune
		if cell.Char == 0 {
			continue
		}
		b.WriteRune(cell.Char)
	}
	return strings.TrimRight(b.String(), " ")
}
