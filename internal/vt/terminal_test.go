package vt_test

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetherterm/internal/vt"
)

func newTerminal(cols, rows, scrollback int) *vt.Terminal {
	return vt.New(vt.Options{Columns: cols, Rows: rows, Scrollback: scrollback})
}

func feed(term *vt.Terminal, s string) {
	term.Feed([]byte(s))
}

func TestTerminalDefaults(t *testing.T) {
	term := vt.New(vt.Options{})
	cols, rows := term.Size()
	assert.Equal(t, vt.DefaultColumns, cols)
	assert.Equal(t, vt.DefaultRows, rows)
	assert.Len(t, term.ID(), 36)
	assert.NotEqual(t, term.ID(), vt.New(vt.Options{}).ID())
}

func TestTerminalPlainText(t *testing.T) {
	term := newTerminal(10, 3, 10)

	feed(term, "hello\r\nworld")

	assert.Equal(t, []string{"hello", "world", ""}, term.Display())
	assert.Equal(t, vt.Position{Row: 1, Col: 5}, term.Position())
}

func TestTerminalLinefeedKeepsColumn(t *testing.T) {
	term := newTerminal(10, 3, 10)

	feed(term, "ab\ncd")

	assert.Equal(t, []string{"ab", "  cd", ""}, term.Display())
}

func TestTerminalNewlineMode(t *testing.T) {
	term := vt.New(vt.Options{Columns: 10, Rows: 3, NewlineMode: true})
	feed(term, "ab\ncd")
	assert.Equal(t, []string{"ab", "cd", ""}, term.Display())

	feed(term, "\x1b[20l\nef")
	assert.Equal(t, []string{"ab", "cd", "  ef"}, term.Display())
}

func TestTerminalScrollsIntoHistory(t *testing.T) {
	term := newTerminal(10, 3, 10)

	for i := 1; i <= 5; i++ {
		feed(term, fmt.Sprintf("line%d\r\n", i))
	}

	assert.Equal(t, []string{"line4", "line5", ""}, term.Display())
	assert.Equal(t, []string{"line1", "line2", "line3"}, term.ScrollbackLines())
	assert.Equal(t, vt.Position{Row: 2, Col: 0}, term.Position())
}

func TestTerminalScrollsWhenBufferFull(t *testing.T) {
	term := newTerminal(10, 2, 1)

	for i := 1; i <= 6; i++ {
		feed(term, fmt.Sprintf("L%d\r\n", i))
	}

	assert.Equal(t, []string{"L6", ""}, term.Display())
	assert.Equal(t, []string{"L5"}, term.ScrollbackLines())
	assert.Equal(t, vt.Position{Row: 1, Col: 0}, term.Position())
}

func TestTerminalWrapsLongLines(t *testing.T) {
	term := newTerminal(5, 3, 10)

	feed(term, "abcdefgh")

	assert.Equal(t, []string{"abcde", "fgh", ""}, term.Display())
	assert.Equal(t, vt.Position{Row: 1, Col: 3}, term.Position())
}

func TestTerminalWrapAtBottomScrolls(t *testing.T) {
	term := newTerminal(3, 2, 10)

	feed(term, "abcdefg")

	assert.Equal(t, []string{"def", "g"}, term.Display())
	assert.Equal(t, []string{"abc"}, term.ScrollbackLines())
}

func TestTerminalWraparoundOff(t *testing.T) {
	term := newTerminal(5, 2, 0)

	feed(term, "\x1b[?7labcdefgh")

	assert.Equal(t, []string{"abcdh", ""}, term.Display())
	assert.Equal(t, vt.Position{Row: 0, Col: 4}, term.Position())
}

func TestTerminalRenditionResetKeepsWraparoundOff(t *testing.T) {
	for _, reset := range []string{"\x1b[m", "\x1b[0m"} {
		term := newTerminal(5, 2, 0)

		feed(term, "\x1b[?7l"+reset+"abcdefgh")

		assert.Equal(t, []string{"abcdh", ""}, term.Display(), "after %q", reset)
	}
}

func TestTerminalWideRunes(t *testing.T) {
	term := newTerminal(5, 3, 0)

	feed(term, "a世b")
	assert.Equal(t, "a世b", term.Display()[0])
	assert.Equal(t, vt.Position{Row: 0, Col: 4}, term.Position())
	assert.Equal(t, rune(0), term.Cell(0, 2).Char)

	feed(term, "界")
	assert.Equal(t, []string{"a世b", "界", ""}, term.Display(), "wide rune moved to the next line instead of splitting")
}

func TestTerminalDropsZeroWidth(t *testing.T) {
	term := newTerminal(10, 2, 0)

	feed(term, "éx")

	assert.Equal(t, "ex", term.Display()[0])
}

func TestTerminalCursorMovement(t *testing.T) {
	term := newTerminal(20, 10, 0)

	tests := []struct {
		input string
		want  vt.Position
	}{
		{"\x1b[5;8H", vt.Position{Row: 4, Col: 7}},
		{"\x1b[2A", vt.Position{Row: 2, Col: 7}},
		{"\x1b[3B", vt.Position{Row: 5, Col: 7}},
		{"\x1b[4C", vt.Position{Row: 5, Col: 11}},
		{"\x1b[6D", vt.Position{Row: 5, Col: 5}},
		{"\x1b[2E", vt.Position{Row: 7, Col: 0}},
		{"\x1b[3F", vt.Position{Row: 4, Col: 0}},
		{"\x1b[15G", vt.Position{Row: 4, Col: 14}},
		{"\x1b[9d", vt.Position{Row: 8, Col: 14}},
		{"\x1b[99;99H", vt.Position{Row: 9, Col: 19}},
		{"\x1b[99A", vt.Position{Row: 0, Col: 19}},
		{"\x1b[H", vt.Position{Row: 0, Col: 0}},
		{"\t", vt.Position{Row: 0, Col: 8}},
		{"\t\t\t", vt.Position{Row: 0, Col: 19}},
		{"\b", vt.Position{Row: 0, Col: 18}},
		{"\r", vt.Position{Row: 0, Col: 0}},
	}
	for _, tt := range tests {
		feed(term, tt.input)
		assert.Equal(t, tt.want, term.Position(), "after %q", tt.input)
	}
}

func TestTerminalCursorUpStaysInViewport(t *testing.T) {
	term := newTerminal(10, 3, 10)
	feed(term, "1\r\n2\r\n3\r\n4\r\n5")

	feed(term, "\x1b[10A")

	assert.Equal(t, vt.Position{Row: 0, Col: 1}, term.Position())
}

func TestTerminalErase(t *testing.T) {
	fill := "abcde\r\nfghij\r\nklmno\x1b[2;3H"
	tests := []struct {
		name string
		seq  string
		want []string
	}{
		{"display below", "\x1b[J", []string{"abcde", "fg", ""}},
		{"display above", "\x1b[1J", []string{"", "   ij", "klmno"}},
		{"display all", "\x1b[2J", []string{"", "", ""}},
		{"line right", "\x1b[K", []string{"abcde", "fg", "klmno"}},
		{"line left", "\x1b[1K", []string{"abcde", "   ij", "klmno"}},
		{"line all", "\x1b[2K", []string{"abcde", "", "klmno"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := newTerminal(6, 3, 0)
			feed(term, fill+tt.seq)
			assert.Equal(t, tt.want, term.Display())
			assert.Equal(t, vt.Position{Row: 1, Col: 2}, term.Position())
		})
	}
}

func TestTerminalGraphicRendition(t *testing.T) {
	term := newTerminal(10, 2, 0)

	feed(term, "\x1b[1;31;44mA\x1b[0mB\x1b[38;2;1;2;3;7mC")

	a := term.Cell(0, 0)
	assert.Equal(t, 'A', a.Char)
	assert.Equal(t, tcell.PaletteColor(1), a.Foreground)
	assert.Equal(t, tcell.PaletteColor(4), a.Background)
	assert.True(t, a.Style.Has(vt.StyleBold))

	b := term.Cell(0, 1)
	assert.Equal(t, vt.DefaultForeground, b.Foreground)
	assert.Equal(t, vt.StyleFlags(0), b.Style)

	c := term.Cell(0, 2)
	assert.Equal(t, tcell.NewRGBColor(1, 2, 3), c.Foreground)
	assert.True(t, c.Style.Has(vt.StyleInverse))
}

func TestTerminalScrollRegion(t *testing.T) {
	term := newTerminal(10, 5, 10)
	feed(term, "r0\r\nr1\r\nr2\r\nr3\r\nr4")

	feed(term, "\x1b[2;4r")
	assert.Equal(t, vt.Position{Row: 0, Col: 0}, term.Position(), "homed to the viewport top")

	feed(term, "\x1b[4;1H\nnew")

	assert.Equal(t, []string{"r0", "r2", "r3", "new", "r4"}, term.Display())
	assert.Empty(t, term.ScrollbackLines(), "region scrolling does not feed history")
	assert.Equal(t, vt.Position{Row: 3, Col: 3}, term.Position())
}

func TestTerminalLinefeedBelowRegion(t *testing.T) {
	term := newTerminal(10, 5, 10)
	feed(term, "\x1b[1;2r\x1b[4;1H\n")

	assert.Equal(t, vt.Position{Row: 4, Col: 0}, term.Position())

	feed(term, "\n")
	assert.Equal(t, vt.Position{Row: 4, Col: 0}, term.Position(), "bottom of the viewport holds")
	assert.Empty(t, term.ScrollbackLines())
}

func TestTerminalAlternateBuffer(t *testing.T) {
	term := newTerminal(10, 3, 10)
	feed(term, "shell\r\n$ ")
	require.Equal(t, vt.Position{Row: 1, Col: 2}, term.Position())

	feed(term, "\x1b[1;31m\x1b[?1049h")
	assert.Equal(t, vt.Position{}, term.Position())
	assert.Equal(t, []string{"", "", ""}, term.Display())

	feed(term, "full\r\nscreen\r\napp\r\nmore")
	assert.Equal(t, []string{"screen", "app", "more"}, term.Display())

	feed(term, "\x1b[?1049lx")
	assert.Equal(t, []string{"shell", "$ x", ""}, term.Display())
	assert.Equal(t, tcell.PaletteColor(1), term.Cell(1, 2).Foreground, "attributes restored")
	assert.Empty(t, term.ScrollbackLines())
}

func TestTerminalSaveRestoreCursor(t *testing.T) {
	term := newTerminal(10, 5, 0)

	feed(term, "\x1b[3;4H\x1b[4m\x1b7\x1b[0m\x1b[H\x1b8u")

	assert.Equal(t, 'u', term.Cell(2, 3).Char)
	assert.True(t, term.Cell(2, 3).Style.Has(vt.StyleUnderline))
}

func TestTerminalRestoreWithoutSave(t *testing.T) {
	term := newTerminal(10, 5, 0)

	feed(term, "\x1b[3;4H\x1b[1m\x1b8x")

	assert.Equal(t, vt.Position{Row: 0, Col: 1}, term.Position())
	assert.False(t, term.Cell(0, 0).Style.Has(vt.StyleBold))
}

func TestTerminalResetErasesWholeViewport(t *testing.T) {
	for _, scrollback := range []int{0, 10} {
		term := newTerminal(10, 3, scrollback)
		feed(term, "a\r\nb\r\nc\x1b[2;1H")

		feed(term, "\x1bc")

		assert.Equal(t, []string{"", "", ""}, term.Display(), "scrollback %d", scrollback)
		assert.Equal(t, vt.Position{}, term.Position(), "scrollback %d", scrollback)
	}
}

func TestTerminalResetScrollsScreenAway(t *testing.T) {
	term := newTerminal(10, 3, 10)
	feed(term, "one\r\ntwo\r\nthree\x1b[?25l\x1b]0;title\a\x1b[1m")
	require.True(t, term.CursorHidden())
	require.Equal(t, "title", term.Title())

	feed(term, "\x1bc")

	assert.Equal(t, []string{"", "", ""}, term.Display())
	assert.Equal(t, vt.Position{}, term.Position())
	assert.Equal(t, []string{"one", "two"}, term.ScrollbackLines())
	assert.False(t, term.CursorHidden())
	assert.Empty(t, term.Title())

	feed(term, "x")
	assert.False(t, term.Cell(0, 0).Style.Has(vt.StyleBold))
}

func TestTerminalResetWithFullBuffer(t *testing.T) {
	term := newTerminal(10, 3, 0)
	feed(term, "one\r\ntwo\r\nthree")

	feed(term, "\x1bc")

	assert.Equal(t, []string{"", "", ""}, term.Display())
	assert.Equal(t, vt.Position{}, term.Position())
}

func TestTerminalResize(t *testing.T) {
	term := newTerminal(10, 4, 10)
	feed(term, "a\r\nb\r\nc\r\nd")

	term.Resize(5, 2)
	assert.Equal(t, []string{"c", "d"}, term.Display())
	assert.Equal(t, vt.Position{Row: 1, Col: 1}, term.Position())

	term.Resize(5, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, term.Display())
	assert.Equal(t, vt.Position{Row: 3, Col: 1}, term.Position())
}

func TestTerminalResizeKeepsCursorRowVisible(t *testing.T) {
	term := newTerminal(20, 24, 100)
	feed(term, "line1\r\nline2\r\n$ ")

	term.Resize(20, 10)

	display := term.Display()
	require.Len(t, display, 10)
	assert.Equal(t, []string{"line1", "line2", "$"}, display[:3])
	assert.Equal(t, vt.Position{Row: 2, Col: 2}, term.Position())
	assert.Empty(t, term.ScrollbackLines())
}

func TestTerminalResizeDropsRowsBelowCursorFirst(t *testing.T) {
	term := newTerminal(10, 6, 100)
	feed(term, "a\r\nb\r\nc\r\nd\x1b[3;1H")

	term.Resize(10, 2)

	assert.Equal(t, []string{"b", "c"}, term.Display())
	assert.Equal(t, []string{"a"}, term.ScrollbackLines())
	assert.Equal(t, vt.Position{Row: 1, Col: 0}, term.Position())
}

func TestTerminalResizeInAlternateBufferKeepsMainCursor(t *testing.T) {
	term := newTerminal(10, 6, 100)
	feed(term, "$ \x1b[?1049hfull")

	term.Resize(10, 3)
	feed(term, "\x1b[?1049lx")

	assert.Equal(t, "$ x", term.Display()[0])
	assert.Equal(t, vt.Position{Row: 0, Col: 3}, term.Position())
}

func TestTerminalResizeClampsCursor(t *testing.T) {
	term := newTerminal(10, 4, 0)
	feed(term, "\x1b[1;10H")

	term.Resize(4, 4)

	assert.Equal(t, vt.Position{Row: 0, Col: 3}, term.Position())
}

func TestTerminalRedraw(t *testing.T) {
	term := newTerminal(4, 2, 0)
	surface := &recordingSurface{}

	feed(term, "hi")
	painted := term.Redraw(surface)

	assert.Equal(t, 8, painted, "first pass paints the whole grid")
	require.Len(t, surface.inv, 9)
	assert.True(t, surface.inv[8], "cursor overlay drawn last")

	surface = &recordingSurface{}
	feed(term, "\x1b[?25l")
	term.Redraw(surface)
	assert.Len(t, surface.inv, 1, "only the previous cursor cell is repainted")
	assert.False(t, surface.inv[0])
}

func TestTerminalPixelSize(t *testing.T) {
	term := newTerminal(80, 24, 0)
	w, h := term.PixelSize()
	assert.Equal(t, 80*7, w)
	assert.Equal(t, 24*13, h)
}

func TestTerminalBell(t *testing.T) {
	term := newTerminal(10, 2, 0)
	feed(term, "\a\a")
	assert.Equal(t, 2, term.Bells())
}

func TestTerminalLogsWithSessionPrefix(t *testing.T) {
	var buf bytes.Buffer
	term := vt.New(vt.Options{Columns: 10, Rows: 2, Logger: log.New(&buf, "", 0)})

	feed(term, "x")

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "["+term.ID()[:8]+"] "), first)
}

func TestTerminalConcurrentFeedAndRedraw(t *testing.T) {
	term := newTerminal(20, 5, 50)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			feed(term, fmt.Sprintf("\x1b[3%dmline %d\r\n", i%8, i))
		}
	}()
	go func() {
		defer wg.Done()
		surface := &recordingSurface{}
		for i := 0; i < 200; i++ {
			term.Redraw(surface)
			_ = term.Display()
		}
	}()
	wg.Wait()

	assert.Equal(t, "line 199", term.Display()[3])
}

func TestTerminalImplementsWriter(t *testing.T) {
	term := newTerminal(10, 2, 0)
	n, err := fmt.Fprintf(term, "%s", "ok")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ok", term.Display()[0])
}
