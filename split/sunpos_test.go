package split

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAzimuthElevation(t *testing.T) {
	// Sun due south on the horizon: SunPosN is negative towards south
	az, el := AzimuthElevation(0, -1, 0)
	require.InDelta(t, 0, az, 1e-9)
	require.InDelta(t, 0, el, 1e-9)

	// Sun due east on the horizon
	az, el = AzimuthElevation(1, 0, 0)
	require.InDelta(t, 90, az, 1e-9)
	require.InDelta(t, 0, el, 1e-9)

	// Sun straight up
	az, el = AzimuthElevation(0, 0, 1)
	require.InDelta(t, 90, el, 1e-9)

	// 45 degrees elevation south-east
	az, el = AzimuthElevation(1, -1, math.Sqrt2)
	require.InDelta(t, 45, az, 1e-9)
	require.InDelta(t, 45, el, 1e-9)
}

func TestAzimuthElevationWestNegative(t *testing.T) {
	az, _ := AzimuthElevation(-1, 0, 0)
	require.InDelta(t, -90, az, 1e-9)
}
