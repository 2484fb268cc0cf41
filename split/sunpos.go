package split

import (
	"math"
)

// AzimuthElevation converts an ENU sun-position vector into azimuth and
// elevation in degrees. Azimuth is measured from south towards east, which
// is why the north component enters negated.
func AzimuthElevation(e, n, u float64) (azimuth, elevation float64) {
	azimuth = radToDeg(math.Atan2(e, -n))
	elevation = radToDeg(math.Atan2(u, math.Hypot(e, n)))
	return azimuth, elevation
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
