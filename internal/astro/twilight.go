package astro

import (
	"fmt"
	"strconv"
)

// Twilight presets: the solar altitude (degrees) below which the sky
// counts as dark for visibility classification.
const (
	TwilightDark         = -18.0
	TwilightAstronomical = -12.0
	TwilightNautical     = -6.0
	TwilightCivil        = -0.8333
)

// ParseTwilight resolves a twilight selector: one of the named presets
// or a literal numeric degree value.
func ParseTwilight(s string) (float64, error) {
	switch s {
	case "dark":
		return TwilightDark, nil
	case "astronomical":
		return TwilightAstronomical, nil
	case "nautical":
		return TwilightNautical, nil
	case "civil":
		return TwilightCivil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("twilight must be dark, astronomical, nautical, civil, or a number of degrees, got %q", s)
	}
	return v, nil
}
