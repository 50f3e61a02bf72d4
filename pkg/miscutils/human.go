// SPDX-License-Identifier: MPL-2.0

package miscutils

import (
	"fmt"
	"math"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour

	// yobiUnit labels values that overflow the zetta range.
	yobiUnit = "Yi"
)

// sizeUnits are the binary prefixes HumanSize steps through, in order.
var sizeUnits = [...]string{"", "K", "M", "G", "T", "P", "E", "Z"}

// HumanTime renders a duration given in seconds as days, hours, minutes and seconds.
//
// Leading zero-valued units are omitted but seconds are always shown, and parts are
// joined with ", ". Labels are always plural (" days", " hours", ...); compact
// labels use the first letter only ("1d, 2h, 0m, 5s"). Fractions of a second are
// truncated. Units are computed with floored division, so a negative input wraps
// around like a clock: HumanTime(-5, false) is "23 hours, 59 minutes, 55 seconds".
func HumanTime(seconds float64, compact bool) string {
	label := func(unit string) string {
		if compact {
			return unit[:1]
		}
		return " " + unit
	}

	days := int64(math.Floor(seconds / secondsPerDay))
	hours := int64(floorMod(math.Floor(seconds/secondsPerHour), 24))
	minutes := int64(floorMod(math.Floor(seconds/secondsPerMinute), 60))
	secs := int64(floorMod(seconds, 60))

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d%s", days, label("days")))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%d%s", hours, label("hours")))
	}
	if days > 0 || hours > 0 || minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d%s", minutes, label("minutes")))
	}
	parts = append(parts, fmt.Sprintf("%d%s", secs, label("seconds")))

	return strings.Join(parts, ", ")
}

// floorMod returns x modulo m with the sign of m.
func floorMod(x, m float64) float64 {
	return x - m*math.Floor(x/m)
}

// HumanSize renders a byte count with binary (1024-based) unit prefixes,
// e.g. HumanSize(1536, "B", 2) is "1.50 KB".
//
// The value is divided by 1024 until its magnitude drops below 1024 and printed
// with the given precision and a minimum width of 3. Values of 1024 ZB and above
// are printed in yobi units without a width: "%.<precision>f Yi<suffix>".
func HumanSize(value float64, suffix string, precision int) string {
	if precision < 0 {
		precision = 0
	}
	for _, unit := range sizeUnits {
		if math.Abs(value) < 1024.0 {
			return fmt.Sprintf("%3.*f %s%s", precision, value, unit, suffix)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.*f %s%s", precision, value, yobiUnit, suffix)
}
