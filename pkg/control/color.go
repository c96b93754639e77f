package control

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned when a color string cannot be parsed.
var ErrInvalidColor = errors.New("control: invalid color")

// ParseColor accepts "#rgb", "#rrggbb" or a CSS color name such as "navy".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}

	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[s]
		if !ok {
			return color.RGBA{}, fmt.Errorf("%w: unknown name %q", ErrInvalidColor, s)
		}
		c.A = 255
		return c, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
