package vt

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/font"
)

// Options configures a Terminal. Zero values pick the defaults below.
type Options struct {
	Columns       int
	Rows          int
	Scrollback    int
	NewlineMode   bool
	BlinkInterval time.Duration
	Face          font.Face
	Logger        *log.Logger
}

const (
	DefaultColumns    = 80
	DefaultRows       = 24
	DefaultScrollback = 1000
)

// Terminal is one emulated session: a screen, its cursor and the decoder
// feeding them. All methods are safe for concurrent use; Feed and Redraw are
// serialised so a redraw never sees a half-applied update.
type Terminal struct {
	mu sync.Mutex

	id     string
	emu    *emulator
	stream *Stream
	logger *log.Logger
}

// New creates a terminal session with its own id.
func New(opts Options) *Terminal {
	if opts.Columns <= 0 {
		opts.Columns = DefaultColumns
	}
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Scrollback < 0 {
		opts.Scrollback = 0
	}

	id := uuid.New().String()
	logger := log.New(io.Discard, "", 0)
	if opts.Logger != nil {
		logger = log.New(opts.Logger.Writer(), fmt.Sprintf("%s[%s] ", opts.Logger.Prefix(), id[:8]), opts.Logger.Flags())
	}

	screen := NewGridScreen(opts.Columns, opts.Rows, opts.Scrollback)
	screen.SetLogger(logger)
	screen.SetBlinkInterval(opts.BlinkInterval)

	cursor := NewCursor(screen)
	cursor.SetLogger(logger)
	if opts.Face != nil {
		cursor.SetFont(opts.Face)
	}

	emu := &emulator{
		screen:      screen,
		cursor:      cursor,
		newlineMode: opts.NewlineMode,
		logger:      logger,
	}
	stream := NewStream(emu)
	stream.SetLogger(logger)

	logger.Printf("Terminal created: %dx%d, scrollback %d", opts.Columns, opts.Rows, opts.Scrollback)
	return &Terminal{
		id:     id,
		emu:    emu,
		stream: stream,
		logger: logger,
	}
}

func (t *Terminal) ID() string {
	return t.id
}

// Feed decodes output from the child process and applies it.
func (t *Terminal) Feed(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stream.Feed(data)
}

// Write implements io.Writer so a PTY can be copied straight into the terminal.
func (t *Terminal) Write(p []byte) (int, error) {
	t.Feed(p)
	return len(p), nil
}

// Resize changes the grid geometry. The cursor stays on its content row: when
// shrinking, rows below the cursor leave the viewport before rows above it.
func (t *Terminal) Resize(columns, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.emu
	pos := e.cursor.Position()
	keep := pos.Row
	if e.screen.IsAlternateBuffer() {
		keep = -1
		if s := e.altSaved; s != nil {
			keep = s.row
		}
	}
	shift := e.screen.ResizeAround(columns, rows, keep)
	if s := e.altSaved; s != nil {
		s.row = max(s.row-shift, 0)
	}
	if !e.screen.IsAlternateBuffer() {
		pos.Row -= shift
	}

	width, height := e.screen.Size()
	base := e.screen.BaseRow()
	row := min(max(pos.Row, base), base+height-1)
	e.cursor.SetPosition(row, min(pos.Col, width-1))
	t.logger.Printf("Resize: %dx%d, cursor now (%d, %d)", width, height, row, e.cursor.Position().Col)
}

// Redraw paints every dirty cell followed by the cursor, and returns the
// number of grid cells painted.
func (t *Terminal) Redraw(surface Surface) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.emu
	painted := e.screen.Redraw(surface, e.cursor.Metrics())
	if !e.cursorHidden && e.screen.CursorVisible(time.Now()) {
		e.cursor.Render(surface)
	}
	// repaint the cursor cell next pass so a blink or hide is picked up
	pos := e.cursor.Position()
	e.screen.Cell(pos.Row, pos.Col).SetDirty()
	return painted
}

// Display returns the visible rows as text.
func (t *Terminal) Display() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.screen.Display()
}

// ScrollbackLines returns the history above the viewport, oldest first.
func (t *Terminal) ScrollbackLines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.screen.ScrollbackLines()
}

// Position is the cursor position relative to the top of the viewport.
func (t *Terminal) Position() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos := t.emu.cursor.Position()
	pos.Row -= t.emu.screen.BaseRow()
	return pos
}

func (t *Terminal) Size() (columns, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.screen.Size()
}

func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.title
}

func (t *Terminal) CursorHidden() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.cursorHidden
}

// Bells counts BEL characters received.
func (t *Terminal) Bells() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.bells
}

// PixelSize is the surface size needed to show the whole viewport.
func (t *Terminal) PixelSize() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.emu.cursor.Metrics()
	cols, rows := t.emu.screen.Size()
	return cols * m.CellWidth, rows * m.CellHeight
}

// Cell returns a copy of the cell at viewport-relative coordinates.
func (t *Terminal) Cell(row, col int) Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.emu.screen.Cell(t.emu.screen.BaseRow()+row, col)
}
