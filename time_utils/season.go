package timeutils

import "time"

// SeasonAnnual is the catch-all bucket that contains every row regardless of month.
const SeasonAnnual = "annual"

// Seasons lists the reporting buckets in their canonical order.
var Seasons = []string{"winter", "spring", "summer", "autumn", SeasonAnnual}

// Season returns the reporting bucket for a calendar month, independent of year:
// winter is Dec-Feb, spring Mar-May, summer Jun-Aug, autumn Sep-Nov.
func Season(m time.Month) string {
	switch {
	case m == time.December || m <= time.February:
		return "winter"
	case m <= time.May:
		return "spring"
	case m <= time.August:
		return "summer"
	default:
		return "autumn"
	}
}
