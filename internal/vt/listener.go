package vt

import "fmt"

// Listener receives decoded instructions from a Stream, one call per
// instruction.
type Listener interface {
	Draw(text string)
	Bell()
	Backspace()
	Tab()
	Linefeed()
	NextLine()
	CarriageReturn()

	CursorUp(count int)
	CursorDown(count int)
	CursorForward(count int)
	CursorBack(count int)
	CursorUp1(count int)
	CursorDown1(count int)
	CursorPosition(line, column int)
	CursorToColumn(column int)
	CursorToLine(line int)

	Reset()
	Index()
	SaveCursor()
	RestoreCursor()

	EraseInLine(how int)
	EraseInDisplay(how int)

	SetMode(modes []int, private bool)
	ResetMode(modes []int, private bool)
	SelectGraphicRendition(params []int)
	SetMargins(top, bottom int)
	SetTitle(title string)

	Debug(args ...interface{})
}

// MockListener records every call as a string, for tests and benchmarks.
type MockListener struct {
	Calls []string
}

func NewMockListener() *MockListener {
	return &MockListener{
		Calls: make([]string, 0),
	}
}

func (m *MockListener) log(method string, args ...interface{}) {
	m.Calls = append(m.Calls, fmt.Sprintf("%s%v", method, args))
}

func (m *MockListener) Draw(text string)                    { m.log("Draw", text) }
func (m *MockListener) Bell()                               { m.log("Bell") }
func (m *MockListener) Backspace()                          { m.log("Backspace") }
func (m *MockListener) Tab()                                { m.log("Tab") }
func (m *MockListener) Linefeed()                           { m.log("Linefeed") }
func (m *MockListener) NextLine()                           { m.log("NextLine") }
func (m *MockListener) CarriageReturn()                     { m.log("CarriageReturn") }
func (m *MockListener) CursorUp(count int)                  { m.log("CursorUp", count) }
func (m *MockListener) CursorDown(count int)                { m.log("CursorDown", count) }
func (m *MockListener) CursorForward(count int)             { m.log("CursorForward", count) }
func (m *MockListener) CursorBack(count int)                { m.log("CursorBack", count) }
func (m *MockListener) CursorUp1(count int)                 { m.log("CursorUp1", count) }
func (m *MockListener) CursorDown1(count int)               { m.log("CursorDown1", count) }
func (m *MockListener) CursorPosition(line, column int)     { m.log("CursorPosition", line, column) }
func (m *MockListener) CursorToColumn(column int)           { m.log("CursorToColumn", column) }
func (m *MockListener) CursorToLine(line int)               { m.log("CursorToLine", line) }
func (m *MockListener) Reset()                              { m.log("Reset") }
func (m *MockListener) Index()                              { m.log("Index") }
func (m *MockListener) SaveCursor()                         { m.log("SaveCursor") }
func (m *MockListener) RestoreCursor()                      { m.log("RestoreCursor") }
func (m *MockListener) EraseInLine(how int)                 { m.log("EraseInLine", how) }
func (m *MockListener) EraseInDisplay(how int)              { m.log("EraseInDisplay", how) }
func (m *MockListener) SetMode(modes []int, private bool)   { m.log("SetMode", modes, private) }
func (m *MockListener) ResetMode(modes []int, private bool) { m.log("ResetMode", modes, private) }
func (m *MockListener) SelectGraphicRendition(p []int)      { m.log("SelectGraphicRendition", p) }
func (m *MockListener) SetMargins(top, bottom int)          { m.log("SetMargins", top, bottom) }
func (m *MockListener) SetTitle(title string)               { m.log("SetTitle", title) }
func (m *MockListener) Debug(args ...interface{})           { m.log("Debug", args...) }
