package features

import "strings"

// Fixed, versioned vocabularies. Every category maps to the same code in
// every invocation, independent of which rows are present in a given call.
// Code 0 is the reserved "unknown" bucket for values outside the
// vocabulary, including the case where an upstream source was unreachable.

var weatherConditions = []string{
	"clear-day", "clear-night", "cloudy", "fog",
	"partly-cloudy-day", "partly-cloudy-night", "rain", "snow", "wind",
}

var weatherCodes = map[string]float64{
	"partly-cloudy-day":   1,
	"partly-cloudy-night": 2,
	"cloudy":              3,
	"clear-day":           4,
	"clear-night":         5,
	"rain":                6,
	"snow":                7,
	"fog":                 8,
	"wind":                9,
}

var tempBands = []string{"cold", "mild", "warm", "hot"}

func tempBand(t float64) string {
	switch {
	case t <= 5:
		return "cold"
	case t <= 15:
		return "mild"
	case t <= 25:
		return "warm"
	default:
		return "hot"
	}
}

var seasonNames = []string{"winter", "spring", "summer", "fall"}

func seasonOf(month int) string {
	switch {
	case month <= 3:
		return "winter"
	case month <= 6:
		return "spring"
	case month <= 9:
		return "summer"
	default:
		return "fall"
	}
}

var incidentCodes = map[string]float64{
	"no_incident": 1,
	"verified":    2,
	"unverified":  3,
}

var collectionTypeCodes = map[string]float64{
	"measured":  1,
	"estimated": 2,
}

// streetSlug turns a street name into a stable feature-name fragment:
// lowercase ASCII with German umlauts transliterated.
func streetSlug(street string) string {
	replacer := strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
		"Ä", "ae", "Ö", "oe", "Ü", "ue",
	)
	s := strings.ToLower(replacer.Replace(street))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	return b.String()
}
