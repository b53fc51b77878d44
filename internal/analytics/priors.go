package analytics

import "time"

// peakHours maps each weekday to posting hours that historically perform
// for short-form video: morning commute (7-9), lunch break (12-13), evening
// prime time (19-22), weekend late-morning scroll. Tuesday and Wednesday
// carry an extra evening slot since they see the highest organic reach.
// These priors drive scheduling until the store has enough real data.
var peakHours = map[time.Weekday][]int{
	time.Monday:    {7, 8, 12, 19, 20},
	time.Tuesday:   {7, 8, 12, 19, 20, 21},
	time.Wednesday: {7, 8, 12, 19, 20, 21},
	time.Thursday:  {7, 8, 12, 19, 20},
	time.Friday:    {7, 8, 12, 19},
	time.Saturday:  {10, 11, 12, 14, 20},
	time.Sunday:    {11, 12, 14, 19},
}

// defaultPeaks is the fallback when a weekday is somehow missing.
var defaultPeaks = []int{7, 8, 12, 19, 20}

// PeakHours returns the prior posting hours for a weekday, in preference
// order. The returned slice is a copy.
func PeakHours(day time.Weekday) []int {
	hours, ok := peakHours[day]
	if !ok {
		hours = defaultPeaks
	}
	out := make([]int, len(hours))
	copy(out, hours)
	return out
}
