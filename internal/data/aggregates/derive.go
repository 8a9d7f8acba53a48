package aggregates

import "math"

// deriveAvgSpeedKmh computes the rounded average speed from distance and
// typical travel time. Returns 0 when either input cannot produce a speed.
func deriveAvgSpeedKmh(distanceKm float64, typicalTimeMin int) int {
	if distanceKm <= 0 || typicalTimeMin <= 0 {
		return 0
	}
	return int(math.Round(distanceKm / float64(typicalTimeMin) * 60))
}

// deriveTollPassTimeMin estimates minutes to reach a toll stop from the
// option's average speed. Returns nil when no estimate is possible.
func deriveTollPassTimeMin(distanceKm *float64, avgSpeedKmh int) *int {
	if distanceKm == nil || *distanceKm <= 0 || avgSpeedKmh <= 0 {
		return nil
	}
	v := int(math.Round(*distanceKm * 60 / float64(avgSpeedKmh)))
	return &v
}
