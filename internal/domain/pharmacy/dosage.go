package pharmacy

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe  = regexp.MustCompile(`[\d.]+`)
	integerRe = regexp.MustCompile(`\d+`)
)

// EstimateUnitsNeeded estimates the total units a prescription line consumes
// from dose, frequency and duration free-text fields. Frequency understands
// "cada N horas" and "N vez/veces al día"; anything else falls back to three
// intakes a day. Unreadable doses count as one unit and unreadable durations
// as three days. The result is rounded up so the pharmacy never hands out too
// little.
func EstimateUnitsNeeded(dose, frequency, duration string) int {
	doseUnits := 1.0
	if m := numberRe.FindString(dose); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			doseUnits = f
		}
	}

	perDay := 3
	freq := strings.ToLower(frequency)
	switch {
	case strings.Contains(freq, "cada") && strings.Contains(freq, "hora"):
		if m := integerRe.FindString(freq); m != "" {
			if hours, err := strconv.Atoi(m); err == nil && hours > 0 {
				perDay = 24 / hours
			}
		}
	case strings.Contains(freq, "vez") || strings.Contains(freq, "veces"):
		if m := integerRe.FindString(freq); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				perDay = n
			}
		}
	}

	days := 3
	if m := integerRe.FindString(duration); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			days = n
		}
	}

	return int(math.Ceil(doseUnits * float64(perDay) * float64(days)))
}
