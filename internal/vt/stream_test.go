package vt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tetherterm/internal/vt"
)

func TestStreamDispatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain text", "hello", []string{"Draw[hello]"}},
		{"controls", "\a\b\t\n\v\f\r", []string{
			"Bell[]", "Backspace[]", "Tab[]", "Linefeed[]", "Linefeed[]", "Linefeed[]", "CarriageReturn[]",
		}},
		{"text around controls", "ab\r\ncd", []string{
			"Draw[ab]", "CarriageReturn[]", "Linefeed[]", "Draw[cd]",
		}},
		{"escapes", "\x1bc\x1bD\x1bE\x1b7\x1b8", []string{
			"Reset[]", "Index[]", "NextLine[]", "SaveCursor[]", "RestoreCursor[]",
		}},
		{"cursor movement defaults", "\x1b[A\x1b[B\x1b[C\x1b[D\x1b[E\x1b[F", []string{
			"CursorUp[1]", "CursorDown[1]", "CursorForward[1]", "CursorBack[1]", "CursorDown1[1]", "CursorUp1[1]",
		}},
		{"cursor movement counts", "\x1b[5A\x1b[0B", []string{"CursorUp[5]", "CursorDown[1]"}},
		{"position", "\x1b[10;20H\x1b[f\x1b[;7H", []string{
			"CursorPosition[10 20]", "CursorPosition[1 1]", "CursorPosition[1 7]",
		}},
		{"column and line", "\x1b[12G\x1b[3d", []string{"CursorToColumn[12]", "CursorToLine[3]"}},
		{"erase", "\x1b[J\x1b[2J\x1b[K\x1b[1K", []string{
			"EraseInDisplay[0]", "EraseInDisplay[2]", "EraseInLine[0]", "EraseInLine[1]",
		}},
		{"sgr", "\x1b[m\x1b[1;31m", []string{
			"SelectGraphicRendition[[]]", "SelectGraphicRendition[[1 31]]",
		}},
		{"margins", "\x1b[2;10r\x1b[r", []string{"SetMargins[2 10]", "SetMargins[0 0]"}},
		{"private modes", "\x1b[?1049h\x1b[?25;7l", []string{
			"SetMode[[1049] true]", "ResetMode[[25 7] true]",
		}},
		{"ansi mode", "\x1b[20h", []string{"SetMode[[20] false]"}},
		{"title with BEL", "\x1b]0;hello\a", []string{"SetTitle[hello]"}},
		{"title with ST", "\x1b]2;world\x1b\\", []string{"SetTitle[world]"}},
		{"charset designation skipped", "\x1b(Bx", []string{"Draw[x]"}},
		{"control inside CSI", "\x1b[2\nA", []string{"Linefeed[]", "CursorUp[2]"}},
		{"cancelled CSI", "\x1b[3\x18x", []string{"Draw[x]"}},
		{"parameters clamped", "\x1b[123456A", []string{"CursorUp[9999]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listener := vt.NewMockListener()
			stream := vt.NewStream(listener)

			stream.Feed([]byte(tt.input))

			assert.Equal(t, tt.want, listener.Calls)
		})
	}
}

func TestStreamKeepsAtMostSixteenParams(t *testing.T) {
	listener := vt.NewMockListener()
	stream := vt.NewStream(listener)

	stream.Feed([]byte("\x1b[1;2;3;4;5;6;7;8;9;10;11;12;13;14;15;16;17;18m"))

	assert.Equal(t, []string{
		"SelectGraphicRendition[[1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16]]",
	}, listener.Calls)
}

func TestStreamSequenceSplitAcrossFeeds(t *testing.T) {
	listener := vt.NewMockListener()
	stream := vt.NewStream(listener)

	stream.Feed([]byte("\x1b["))
	stream.Feed([]byte("3;"))
	stream.Feed([]byte("4H"))
	stream.Feed([]byte("\x1b]0;ti"))
	stream.Feed([]byte("tle\x1b"))
	stream.Feed([]byte("\\"))

	assert.Equal(t, []string{"CursorPosition[3 4]", "SetTitle[title]"}, listener.Calls)
}

func TestStreamUTF8SplitAcrossFeeds(t *testing.T) {
	listener := vt.NewMockListener()
	stream := vt.NewStream(listener)
	data := []byte("a世b")

	// split inside the three-byte encoding of 世
	stream.Feed(data[:2])
	stream.Feed(data[2:3])
	stream.Feed(data[3:])

	assert.Equal(t, []string{"Draw[a]", "Draw[世b]"}, listener.Calls)
}

func TestStreamUnknownSequencesGoToDebug(t *testing.T) {
	listener := vt.NewMockListener()
	stream := vt.NewStream(listener)

	stream.Feed([]byte("\x1b[5n"))

	if assert.Len(t, listener.Calls, 1) {
		assert.Contains(t, listener.Calls[0], "Debug")
	}
}

func BenchmarkStreamParsing(b *testing.B) {
	listener := vt.NewMockListener()
	stream := vt.NewStream(listener)

	testData := []byte("\x1b[2J\x1b[H" +
		"\x1b[31mRed text\x1b[0m Normal text\r\n" +
		"\x1b[1mBold\x1b[0m \x1b[4mUnderline\x1b[0m\r\n" +
		"Plain text line\r\n" +
		"\x1b[10;20HPositioned text" +
		"\x1b[2K")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		listener.Calls = nil
		stream.Feed(testData)
	}

	b.ReportMetric(float64(len(testData)), "bytes/op")
}
