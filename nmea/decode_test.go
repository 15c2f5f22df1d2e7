package nmea

import (
	"strings"
	"testing"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Composed sentences must be accepted by an independent parser
func TestEncodedSentencesDecode(t *testing.T) {
	lines := encodeLines(t, createTestSnapshot(), MaskOf(GGA, GLL, VTG, ZDA), DefaultConfig())
	require.Len(t, lines, 4)

	parsed := make(map[string]gonmea.Sentence)
	for _, l := range lines {
		s, err := gonmea.Parse(strings.TrimSpace(l))
		require.NoError(t, err, l)
		assert.Equal(t, "GN", s.TalkerID())
		parsed[s.DataType()] = s
	}

	gga, ok := parsed[gonmea.TypeGGA].(gonmea.GGA)
	require.True(t, ok)
	assert.InDelta(t, 48.1173, gga.Latitude, 1e-9)
	assert.InDelta(t, 11.0+31.0/60, gga.Longitude, 1e-9)
	assert.Equal(t, gonmea.GPS, gga.FixQuality)
	assert.Equal(t, int64(8), gga.NumSatellites)
	assert.InDelta(t, 0.9, gga.HDOP, 1e-9)
	assert.InDelta(t, 545.4, gga.Altitude, 1e-9)
	assert.Equal(t, 12, gga.Time.Hour)
	assert.Equal(t, 35, gga.Time.Minute)
	assert.Equal(t, 19, gga.Time.Second)
	assert.Equal(t, 250, gga.Time.Millisecond)

	gll, ok := parsed[gonmea.TypeGLL].(gonmea.GLL)
	require.True(t, ok)
	assert.Equal(t, gonmea.ValidGLL, gll.Validity)
	assert.InDelta(t, 48.1173, gll.Latitude, 1e-9)

	vtg, ok := parsed[gonmea.TypeVTG].(gonmea.VTG)
	require.True(t, ok)
	assert.InDelta(t, 90, vtg.TrueTrack, 1e-9)
	assert.InDelta(t, 10, vtg.GroundSpeedKnots, 1e-9)
	assert.InDelta(t, 18.52, vtg.GroundSpeedKPH, 1e-9)

	zda, ok := parsed[gonmea.TypeZDA].(gonmea.ZDA)
	require.True(t, ok)
	assert.Equal(t, int64(23), zda.Day)
	assert.Equal(t, int64(3), zda.Month)
	assert.Equal(t, int64(2024), zda.Year)
}

func TestSouthWestDecodes(t *testing.T) {
	snap := createTestSnapshot()
	snap.Position.Lat = -snap.Position.Lat
	snap.Position.Lon = -snap.Position.Lon

	lines := encodeLines(t, snap, MaskOf(GGA), DefaultConfig())
	require.Len(t, lines, 1)

	s, err := gonmea.Parse(strings.TrimSpace(lines[0]))
	require.NoError(t, err)
	gga := s.(gonmea.GGA)
	assert.InDelta(t, -48.1173, gga.Latitude, 1e-9)
	assert.InDelta(t, -(11.0 + 31.0/60), gga.Longitude, 1e-9)
}
