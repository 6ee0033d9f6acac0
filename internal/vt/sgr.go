package vt

import "github.com/gdamore/tcell/v2"

// SGR parameters that switch a single attribute on or off.
var sgrText = map[int]func(*Cursor){
	1:  func(c *Cursor) { c.SetBold(true) },
	4:  func(c *Cursor) { c.SetUnderline(true) },
	7:  func(c *Cursor) { c.SetInverse(true) },
	21: func(c *Cursor) { c.SetBold(false) },
	22: func(c *Cursor) { c.SetBold(false) },
	24: func(c *Cursor) { c.SetUnderline(false) },
	27: func(c *Cursor) { c.SetInverse(false) },
}

const (
	sgrFgExtended = 38
	sgrBgExtended = 48
	sgrFgDefault  = 39
	sgrBgDefault  = 49
)

// SelectGraphicRendition applies SGR parameters to the cursor's pending
// attributes. Unknown parameters are ignored. No parameters means 0, and a
// reset never touches wraparound since that is a mode.
func SelectGraphicRendition(c *Cursor, params []int) {
	if len(params) == 0 {
		params = []int{0}
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			// keep wraparound, it is a mode rather than a rendition
			wrap := c.Attributes().Wraparound
			c.ResetAttributes()
			c.SetWraparound(wrap)
		case sgrText[p] != nil:
			sgrText[p](c)
		case p >= 30 && p <= 37:
			c.SetForeground(tcell.PaletteColor(p - 30))
		case p >= 40 && p <= 47:
			c.SetBackground(tcell.PaletteColor(p - 40))
		case p >= 90 && p <= 97:
			c.SetForeground(tcell.PaletteColor(p - 90 + 8))
		case p >= 100 && p <= 107:
			c.SetBackground(tcell.PaletteColor(p - 100 + 8))
		case p == sgrFgDefault:
			c.SetForeground(DefaultForeground)
		case p == sgrBgDefault:
			c.SetBackground(DefaultBackground)
		case p == sgrFgExtended || p == sgrBgExtended:
			color, used, ok := extendedColor(params[i+1:])
			i += used
			if !ok {
				continue
			}
			if p == sgrFgExtended {
				c.SetForeground(color)
			} else {
				c.SetBackground(color)
			}
		}
	}
}

// extendedColor decodes the tail of a 38/48 sequence: 5;n or 2;r;g;b. It
// returns how many parameters it consumed.
func extendedColor(rest []int) (Color, int, bool) {
	if len(rest) == 0 {
		return tcell.ColorDefault, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return tcell.ColorDefault, len(rest), false
		}
		n := rest[1]
		if n < 0 || n > 255 {
			return tcell.ColorDefault, 2, false
		}
		return tcell.PaletteColor(n), 2, true
	case 2:
		if len(rest) < 4 {
			return tcell.ColorDefault, len(rest), false
		}
		r, g, b := clampByte(rest[1]), clampByte(rest[2]), clampByte(rest[3])
		return tcell.NewRGBColor(r, g, b), 4, true
	}
	return tcell.ColorDefault, 1, false
}

func clampByte(v int) int32 {
	return int32(min(max(v, 0), 255))
}
