package settings

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a parsed highlight colour with its opacity.
type Color struct {
	colorful.Color
	Alpha float64
}

var (
	funcColorRegex = regexp.MustCompile(`^(rgba?)\(([^)]*)\)$`)
	white          = colorful.Color{R: 1, G: 1, B: 1}
)

// ParseColor accepts rgba(r,g,b,a), rgb(r,g,b), #rgb and #rrggbb.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil || (len(s) != 4 && len(s) != 7) {
			return Color{}, fmt.Errorf("%w: bad hex colour %q", ErrInvalidSettingValue, s)
		}
		return Color{Color: c, Alpha: 1}, nil
	}

	match := funcColorRegex.FindStringSubmatch(s)
	if match == nil {
		return Color{}, fmt.Errorf("%w: unsupported colour %q", ErrInvalidSettingValue, s)
	}
	parts := strings.Split(match[2], ",")
	want := 3
	if match[1] == "rgba" {
		want = 4
	}
	if len(parts) != want {
		return Color{}, fmt.Errorf("%w: %s needs %d components", ErrInvalidSettingValue, match[1], want)
	}

	var rgb [3]float64
	for i := range rgb {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("%w: bad channel %q", ErrInvalidSettingValue, parts[i])
		}
		rgb[i] = float64(n) / 255
	}
	alpha := 1.0
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("%w: bad alpha %q", ErrInvalidSettingValue, parts[3])
		}
		alpha = a
	}
	return Color{Color: colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, Alpha: alpha}, nil
}

// Over composites c onto bg.
func (c Color) Over(bg colorful.Color) colorful.Color {
	return bg.BlendRgb(c.Color, c.Alpha).Clamped()
}

// TerminalHex is the opaque colour a light page would show, for terminals
// that cannot blend.
func (c Color) TerminalHex() string {
	return c.Over(white).Hex()
}

// NRGBA converts c for image/color consumers, keeping the alpha channel.
func (c Color) NRGBA() color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(c.Alpha*255 + 0.5)}
}
