package urgency

import (
	"fmt"
	"math"
)

// Colour is an 8-bit RGB triple.
type Colour struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

var (
	Green  = Colour{Red: 0, Green: 255, Blue: 0}
	Yellow = Colour{Red: 255, Green: 255, Blue: 0}
	Orange = Colour{Red: 255, Green: 165, Blue: 0}
	Red    = Colour{Red: 255, Green: 0, Blue: 0}
)

// Hex formats the colour as a lowercase #rrggbb string.
func (c Colour) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// Redness orders colours by visual alarm: red minus green.
func (c Colour) Redness() int {
	return int(c.Red) - int(c.Green)
}

// Gradient blends green to yellow to red as intensity goes from 0 to 1.
// Intensity is clamped to [0, 1].
func Gradient(intensity float64) Colour {
	if math.IsNaN(intensity) {
		intensity = 0
	}
	intensity = math.Max(0, math.Min(1, intensity))

	if intensity <= 0.5 {
		return Colour{
			Red:   uint8(math.Round(255 * intensity / 0.5)),
			Green: 255,
		}
	}
	return Colour{
		Red:   255,
		Green: uint8(math.Round(255 * (1 - (intensity-0.5)/0.5))),
	}
}
