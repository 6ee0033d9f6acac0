package vt

import (
	"log"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 8

type savedCursor struct {
	row   int
	col   int
	attrs Attributes
}

// emulator applies decoded instructions to a GridScreen through its Cursor.
// Every AdvanceResult is resolved before the next cursor call.
type emulator struct {
	screen *GridScreen
	cursor *Cursor

	newlineMode  bool
	cursorHidden bool
	title        string
	bells        int

	saved    *savedCursor // DECSC, viewport relative
	altSaved *savedCursor // main-buffer cursor while the alternate buffer is active, absolute

	logger *log.Logger
}

var _ Listener = (*emulator)(nil)

// resolve performs the scroll a ScrollRequired result asks for. The advance
// is retried only when the viewport itself moved; when the grid or the
// region content shifted instead, the cursor is already on the right row.
func (e *emulator) resolve(res AdvanceResult, resetCol bool) {
	if !res.ScrollRequired() {
		return
	}
	before := e.screen.ScrollBottom()
	e.screen.Scroll(1)
	if e.screen.ScrollBottom() != before {
		e.cursor.AdvanceRow(false, resetCol)
	}
}

func (e *emulator) viewportRow() int {
	return e.cursor.Position().Row - e.screen.BaseRow()
}

// absoluteRow converts a 1-based viewport line into an absolute row.
func (e *emulator) absoluteRow(line int) int {
	_, height := e.screen.Size()
	return e.screen.BaseRow() + min(max(line, 1), height) - 1
}

// === Text ===

func (e *emulator) Draw(text string) {
	width, _ := e.screen.Size()
	for _, r := range text {
		switch runewidth.RuneWidth(r) {
		case 0:
			continue
		case 2:
			if width < 2 {
				e.resolve(e.cursor.Write(r, true), true)
				continue
			}
			if e.cursor.Position().Col == width-1 {
				if !e.cursor.Attributes().Wraparound {
					e.resolve(e.cursor.Write(r, true), true)
					continue
				}
				// a wide rune never straddles the right edge
				e.resolve(e.cursor.Write(' ', true), true)
			}
			e.resolve(e.cursor.Write(r, true), true)
			e.resolve(e.cursor.Write(0, true), true)
		default:
			e.resolve(e.cursor.Write(r, true), true)
		}
	}
}

// === C0 controls ===

func (e *emulator) Bell() {
	e.bells++
	e.logger.Printf("Bell")
}

func (e *emulator) Backspace() {
	e.cursor.MoveLeft(1)
}

func (e *emulator) Tab() {
	col := e.cursor.Position().Col
	next := (col/tabWidth + 1) * tabWidth
	e.cursor.MoveRight(next - col)
}

func (e *emulator) Linefeed() {
	e.resolve(e.cursor.AdvanceRow(true, e.newlineMode), e.newlineMode)
}

func (e *emulator) Index() {
	e.resolve(e.cursor.AdvanceRow(true, false), false)
}

func (e *emulator) NextLine() {
	e.resolve(e.cursor.AdvanceRow(true, true), true)
}

func (e *emulator) CarriageReturn() {
	e.cursor.ResetColumn()
}

// === Cursor movement ===

func (e *emulator) CursorUp(count int) {
	// stay inside the viewport, scrollback is not addressable
	e.cursor.MoveUp(min(count, max(e.viewportRow(), 0)))
}

func (e *emulator) CursorDown(count int) {
	e.cursor.MoveDown(count)
}

func (e *emulator) CursorForward(count int) {
	e.cursor.MoveRight(count)
}

func (e *emulator) CursorBack(count int) {
	e.cursor.MoveLeft(count)
}

func (e *emulator) CursorUp1(count int) {
	e.CursorUp(count)
	e.cursor.ResetColumn()
}

func (e *emulator) CursorDown1(count int) {
	e.CursorDown(count)
	e.cursor.ResetColumn()
}

func (e *emulator) CursorPosition(line, column int) {
	e.cursor.SetPosition(e.absoluteRow(line), column-1)
}

func (e *emulator) CursorToColumn(column int) {
	e.cursor.SetPosition(e.cursor.Position().Row, column-1)
}

func (e *emulator) CursorToLine(line int) {
	e.cursor.SetPosition(e.absoluteRow(line), e.cursor.Position().Col)
}

// === Save / restore ===

func (e *emulator) SaveCursor() {
	pos := e.cursor.Position()
	e.saved = &savedCursor{row: e.viewportRow(), col: pos.Col, attrs: e.cursor.Attributes()}
}

func (e *emulator) RestoreCursor() {
	if e.saved == nil {
		e.cursor.ResetAttributes()
		e.cursor.SetPosition(e.screen.BaseRow(), 0)
		return
	}
	e.cursor.SetPosition(e.absoluteRow(e.saved.row+1), e.saved.col)
	e.cursor.SetAttributes(e.saved.attrs)
}

// === Erasing ===

func (e *emulator) EraseInDisplay(how int) {
	width, height := e.screen.Size()
	base := e.screen.BaseRow()
	pos := e.cursor.Position()
	switch how {
	case 0:
		e.screen.EraseRange(pos.Row, pos.Col, width-1)
		e.screen.EraseRows(pos.Row+1, base+height-1)
	case 1:
		e.screen.EraseRows(base, pos.Row-1)
		e.screen.EraseRange(pos.Row, 0, pos.Col)
	case 2, 3:
		e.screen.EraseRows(base, base+height-1)
	}
}

func (e *emulator) EraseInLine(how int) {
	width, _ := e.screen.Size()
	pos := e.cursor.Position()
	switch how {
	case 0:
		e.screen.EraseRange(pos.Row, pos.Col, width-1)
	case 1:
		e.screen.EraseRange(pos.Row, 0, pos.Col)
	case 2:
		e.screen.EraseRange(pos.Row, 0, width-1)
	}
}

// === Modes ===

func (e *emulator) SetMode(modes []int, private bool) {
	e.setModes(modes, private, true)
}

func (e *emulator) ResetMode(modes []int, private bool) {
	e.setModes(modes, private, false)
}

func (e *emulator) setModes(modes []int, private, on bool) {
	for _, m := range modes {
		switch {
		case private && m == DECAWM:
			e.cursor.SetWraparound(on)
		case private && m == DECTCEM:
			e.cursorHidden = !on
		case private && (m == AltScreen || m == AltScreen47 || m == AltScreenSav):
			if on {
				e.enterAlternate()
			} else {
				e.exitAlternate()
			}
		case !private && m == LNM:
			e.newlineMode = on
		default:
			e.logger.Printf("Ignoring mode %d (private=%v, set=%v)", m, private, on)
		}
	}
}

func (e *emulator) enterAlternate() {
	if e.screen.IsAlternateBuffer() {
		return
	}
	pos := e.cursor.Position()
	e.altSaved = &savedCursor{row: pos.Row, col: pos.Col, attrs: e.cursor.Attributes()}
	e.screen.EnterAlternateBuffer()
	e.cursor.ResetPosition()
	e.cursor.ResetAttributes()
}

func (e *emulator) exitAlternate() {
	if !e.screen.IsAlternateBuffer() {
		return
	}
	e.screen.ExitAlternateBuffer()
	if s := e.altSaved; s != nil {
		e.cursor.SetPosition(s.row, s.col)
		e.cursor.SetAttributes(s.attrs)
	}
	e.altSaved = nil
}

// === Rendition, margins, reset ===

func (e *emulator) SelectGraphicRendition(params []int) {
	SelectGraphicRendition(e.cursor, params)
}

func (e *emulator) SetMargins(top, bottom int) {
	_, height := e.screen.Size()
	if top == 0 {
		top = 1
	}
	if bottom == 0 {
		bottom = height
	}
	e.screen.SetScrollRegion(top-1, bottom-1)
	// no origin mode, so home is the viewport top
	e.cursor.SetPosition(e.screen.BaseRow(), 0)
}

func (e *emulator) SetTitle(title string) {
	e.title = title
}

// Reset returns to the initial state. On the main buffer the old screen is
// scrolled into history rather than discarded.
func (e *emulator) Reset() {
	e.exitAlternate()
	e.screen.ResetScrollRegion()
	e.cursor.ResetAttributes()
	e.cursor.ResetPosition()
	e.cursor.ResetColumn()

	// when the buffer was already full the grid shifted instead of the
	// viewport, so the cursor row may sit below the new top
	base := e.screen.BaseRow()
	if e.cursor.Position().Row != base {
		e.cursor.SetPosition(base, 0)
	}
	_, height := e.screen.Size()
	e.screen.EraseRows(base, base+height-1)

	e.newlineMode = false
	e.cursorHidden = false
	e.saved = nil
	e.title = ""
}

func (e *emulator) Debug(args ...interface{}) {
	e.logger.Println(args...)
}
