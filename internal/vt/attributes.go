package vt

// Attributes is the pending rendition owned by the cursor. It is a value type:
// writes copy it into the target cell, so later changes never reach cells that
// were already written.
type Attributes struct {
	Foreground Color
	Background Color
	Bold       bool
	Underline  bool
	Inverse    bool
	Wraparound bool
}

// DefaultAttributes is white on black, no styling, wraparound on.
func DefaultAttributes() Attributes {
	return Attributes{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
		Wraparound: true,
	}
}

func (a Attributes) styleFlags() StyleFlags {
	var s StyleFlags
	if a.Bold {
		s |= StyleBold
	}
	if a.Underline {
		s |= StyleUnderline
	}
	if a.Inverse {
		s |= StyleInverse
	}
	return s
}
