package geodesy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCentralMeridian(t *testing.T) {
	ref, err := FromDegrees(0.001, 3, 0).Grid(5)
	require.NoError(t, err)

	assert.Equal(t, 31, ref.Zone)
	assert.Equal(t, "N", ref.Hemisphere)
	assert.InDelta(t, 500000, ref.Easting, 1e-3)
	assert.InDelta(t, 110.6, ref.Northing, 1)
	assert.Contains(t, ref.MGRS, "31N")
}

func TestGridSouthernHemisphere(t *testing.T) {
	ref, err := FromDegrees(-33.8688, 151.2093, 0).Grid(3)
	require.NoError(t, err)

	assert.Equal(t, 56, ref.Zone)
	assert.Equal(t, "S", ref.Hemisphere)
	assert.NotEmpty(t, ref.MGRS)
}

func TestAngleTo(t *testing.T) {
	a := FromDegrees(0, 0, 0)
	b := FromDegrees(0, 1, 1000)
	assert.InDelta(t, math.Pi/180, a.AngleTo(b).Radians(), 1e-12)
}
