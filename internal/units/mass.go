package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// massFactors maps unit spellings to grams. Volumes are treated as
// gram-equivalent (1 ml = 1 g) for nutrition purposes.
var massFactors = map[string]float64{
	"g":  1,
	"kg": 1000,
	"mg": 0.001,
	"ml": 1,
	"cl": 10,
	"dl": 100,
	"l":  1000,
}

// MassFactor returns how many grams one unit represents. Unknown units
// (for example "Stück") report false; callers must treat that as missing data.
func MassFactor(unit string) (float64, bool) {
	f, ok := massFactors[strings.ToLower(strings.TrimSpace(unit))]
	return f, ok
}

// ToGrams converts quantity in unit into grams.
func ToGrams(quantity float64, unit string) (float64, bool) {
	f, ok := MassFactor(unit)
	if !ok {
		return 0, false
	}
	return quantity * f, true
}

var yieldWeightPattern = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*(\pL+)?`)

// ParseYieldWeight reads a free-text weight such as "1,2 kg", "0,75 l" or
// "850 g netto". Only the first line is considered; a missing unit means
// grams and a word that is not a mass or volume unit makes the text unusable.
func ParseYieldWeight(text string) (float64, bool) {
	line, _, _ := strings.Cut(text, "\n")
	m := yieldWeightPattern.FindStringSubmatch(strings.ToLower(line))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(NormalizeDecimal(m[1]), 64)
	if err != nil {
		return 0, false
	}
	unit := m[2]
	if unit == "" {
		unit = "g"
	}
	grams, ok := ToGrams(v, unit)
	if !ok {
		return 0, false
	}
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams <= 0 {
		return 0, false
	}
	return grams, true
}
