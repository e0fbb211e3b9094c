package artwork

import (
	"image/color"
	"strconv"
	"strings"
)

// hexRGB parses a #rrggbb color into its channel values. Theme colors
// are compile-time constants, so parse failures resolve to black rather
// than an error path.
func hexRGB(hex string) (r, g, b int) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	rv, err1 := strconv.ParseUint(s[0:2], 16, 8)
	gv, err2 := strconv.ParseUint(s[2:4], 16, 8)
	bv, err3 := strconv.ParseUint(s[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0
	}
	return int(rv), int(gv), int(bv)
}

func hexColor(hex string) color.Color {
	r, g, b := hexRGB(hex)
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
