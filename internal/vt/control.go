package vt

// C0 control characters
const (
	NUL = 0x00
	BEL = 0x07
	BS  = 0x08
	HT  = 0x09
	LF  = 0x0a
	VT  = 0x0b
	FF  = 0x0c
	CR  = 0x0d
	CAN = 0x18
	SUB = 0x1a
	ESC = 0x1b
	DEL = 0x7f
)

// Private modes handled by the terminal
const (
	DECAWM       = 7
	DECTCEM      = 25
	AltScreen    = 47
	AltScreen47  = 1047
	AltScreenSav = 1049

	// LNM is the ANSI (non-private) newline mode
	LNM = 20
)
