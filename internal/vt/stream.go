package vt

import (
	"io"
	"log"
	"strings"
	"unicode/utf8"
)

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateOSCEscape
	stateSkipOne // designator byte after ESC ( ) # %
)

const (
	maxParamValue = 9999
	maxParams     = 16
	maxOSCLength  = 4096
)

// Stream decodes a byte stream of text and escape sequences into Listener
// calls. Sequences and UTF-8 runes split across Feed calls are carried over.
type Stream struct {
	listener Listener
	state    parserState

	params   []int
	param    int
	hasParam bool
	private  bool

	osc     strings.Builder
	pending []byte

	logger *log.Logger
}

func NewStream(listener Listener) *Stream {
	return &Stream{
		listener: listener,
		state:    stateGround,
		logger:   log.New(io.Discard, "", 0),
	}
}

// SetLogger routes debug output. A nil logger discards.
func (s *Stream) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.logger = l
}

// Feed decodes data, dispatching each complete instruction to the listener.
func (s *Stream) Feed(data []byte) {
	if len(s.pending) > 0 {
		data = append(s.pending, data...)
		s.pending = nil
	}

	for i := 0; i < len(data); {
		b := data[i]
		switch s.state {
		case stateGround:
			if b == ESC {
				s.state = stateEscape
				i++
				continue
			}
			if b < 0x20 || b == DEL {
				s.control(b)
				i++
				continue
			}
			start := i
			for i < len(data) && data[i] >= 0x20 && data[i] != DEL {
				i++
			}
			text := data[start:i]
			if i == len(data) {
				text, s.pending = splitIncomplete(text)
			}
			if len(text) > 0 {
				s.listener.Draw(string(text))
			}

		case stateEscape:
			s.escape(b)
			i++

		case stateSkipOne:
			s.state = stateGround
			i++

		case stateCSI:
			s.csiByte(b)
			i++

		case stateOSC:
			switch b {
			case BEL:
				s.finishOSC()
			case ESC:
				s.state = stateOSCEscape
			default:
				if s.osc.Len() < maxOSCLength {
					s.osc.WriteByte(b)
				}
			}
			i++

		case stateOSCEscape:
			// ESC \ is the string terminator; anything else aborts the OSC
			s.finishOSC()
			if b != '\\' {
				s.state = stateEscape
				continue
			}
			i++
		}
	}
}

// splitIncomplete separates a trailing partial UTF-8 sequence from text.
func splitIncomplete(text []byte) ([]byte, []byte) {
	for k := 1; k <= utf8.UTFMax-1 && k <= len(text); k++ {
		at := len(text) - k
		if !utf8.RuneStart(text[at]) {
			continue
		}
		if utf8.FullRune(text[at:]) {
			return text, nil
		}
		tail := make([]byte, k)
		copy(tail, text[at:])
		return text[:at], tail
	}
	return text, nil
}

func (s *Stream) control(b byte) {
	switch b {
	case BEL:
		s.listener.Bell()
	case BS:
		s.listener.Backspace()
	case HT:
		s.listener.Tab()
	case LF, VT, FF:
		s.listener.Linefeed()
	case CR:
		s.listener.CarriageReturn()
	}
}

func (s *Stream) escape(b byte) {
	s.state = stateGround
	switch b {
	case '[':
		s.params = s.params[:0]
		s.param, s.hasParam, s.private = 0, false, false
		s.state = stateCSI
	case ']':
		s.osc.Reset()
		s.state = stateOSC
	case '(', ')', '#', '%':
		s.state = stateSkipOne
	case 'c':
		s.listener.Reset()
	case 'D':
		s.listener.Index()
	case 'E':
		s.listener.NextLine()
	case '7':
		s.listener.SaveCursor()
	case '8':
		s.listener.RestoreCursor()
	case CAN, SUB:
	default:
		s.listener.Debug("Unknown escape:", string(rune(b)))
	}
}

func (s *Stream) csiByte(b byte) {
	switch {
	case b >= '0' && b <= '9':
		s.param = min(s.param*10+int(b-'0'), maxParamValue)
		s.hasParam = true
	case b == ';':
		s.pushParam()
	case b == '?':
		s.private = true
	case b == CAN || b == SUB:
		s.state = stateGround
	case b == ESC:
		s.state = stateEscape
	case b < 0x20:
		// C0 controls still execute inside a sequence
		s.control(b)
	case b >= 0x40 && b <= 0x7e:
		if s.hasParam || len(s.params) > 0 {
			s.pushParam()
		}
		s.dispatchCSI(b, s.params, s.private)
		s.state = stateGround
	}
	// remaining intermediates (space, >, $, ...) are ignored
}

func (s *Stream) pushParam() {
	if len(s.params) < maxParams {
		s.params = append(s.params, s.param)
	}
	s.param, s.hasParam = 0, false
}

func (s *Stream) finishOSC() {
	s.state = stateGround
	code, text, ok := strings.Cut(s.osc.String(), ";")
	s.osc.Reset()
	if !ok {
		return
	}
	switch code {
	case "0", "1", "2":
		s.listener.SetTitle(text)
	}
}

func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (s *Stream) dispatchCSI(final byte, params []int, private bool) {
	switch final {
	case 'A':
		s.listener.CursorUp(param(params, 0, 1))
	case 'B', 'e':
		s.listener.CursorDown(param(params, 0, 1))
	case 'C', 'a':
		s.listener.CursorForward(param(params, 0, 1))
	case 'D':
		s.listener.CursorBack(param(params, 0, 1))
	case 'E':
		s.listener.CursorDown1(param(params, 0, 1))
	case 'F':
		s.listener.CursorUp1(param(params, 0, 1))
	case 'G', '`':
		s.listener.CursorToColumn(param(params, 0, 1))
	case 'H', 'f':
		s.listener.CursorPosition(param(params, 0, 1), param(params, 1, 1))
	case 'd':
		s.listener.CursorToLine(param(params, 0, 1))
	case 'J':
		s.listener.EraseInDisplay(param(params, 0, 0))
	case 'K':
		s.listener.EraseInLine(param(params, 0, 0))
	case 'm':
		s.listener.SelectGraphicRendition(append([]int(nil), params...))
	case 'r':
		s.listener.SetMargins(param(params, 0, 0), param(params, 1, 0))
	case 'h':
		s.listener.SetMode(append([]int(nil), params...), private)
	case 'l':
		s.listener.ResetMode(append([]int(nil), params...), private)
	default:
		s.listener.Debug("Unknown CSI:", string(rune(final)), params, private)
	}
}
