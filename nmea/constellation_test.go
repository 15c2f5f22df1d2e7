package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConstellationIdentifiers(t *testing.T) {
	tests := []struct {
		c        Constellation
		talker   byte
		systemID int
		svidBase int
		name     string
	}{
		{GPS, 'P', 1, 1, "GPS"},
		{BeiDou, 'B', 4, 1, "BDS"},
		{Galileo, 'A', 3, 1, "GAL"},
		{GLONASS, 'L', 2, 65, "GLO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.talker, tt.c.Talker())
			assert.Equal(t, tt.systemID, tt.c.SystemID())
			assert.Equal(t, tt.svidBase, tt.c.SvidBase())
			assert.Equal(t, tt.name, tt.c.String())

			parsed, err := ParseConstellation(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.c, parsed)
		})
	}

	_, err := ParseConstellation("QZSS")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Constellation(9)", Constellation(9).String())
}

func TestSatMaskNextAscending(t *testing.T) {
	m := SatMask(0).Set(63).Set(0).Set(9).Set(4)

	var got []int
	for i := m.Next(0); i >= 0; i = m.Next(i + 1) {
		got = append(got, i)
	}

	assert.Equal(t, []int{0, 4, 9, 63}, got)
	assert.Equal(t, 4, m.Count())
	assert.Equal(t, -1, m.Next(64))
	assert.Equal(t, -1, SatMask(0).Next(0))
	assert.True(t, m.Has(63))
	assert.False(t, m.Clear(63).Has(63))
	assert.Equal(t, m, m.Set(64))
}

func TestSatMaskIterationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := SatMask(rapid.Uint64().Draw(t, "mask"))

		prev := -1
		count := 0
		for i := m.Next(0); i >= 0; i = m.Next(i + 1) {
			if i <= prev {
				t.Fatalf("iteration not ascending: %d after %d", i, prev)
			}
			if !m.Has(i) {
				t.Fatalf("visited unset bit %d", i)
			}
			prev = i
			count++
		}
		if count != m.Count() {
			t.Fatalf("visited %d bits, mask has %d", count, m.Count())
		}
	})
}

func TestSentenceMask(t *testing.T) {
	m := MaskOf(GGA, RMC, ZDA)
	assert.True(t, m.Has(GGA))
	assert.False(t, m.Has(GSV))
	assert.Equal(t, "GGA,RMC,ZDA", m.String())
	assert.Equal(t, SentenceMask(0x7F), AllSentences)

	s, err := ParseSentence("vtg")
	require.NoError(t, err)
	assert.Equal(t, VTG, s)

	_, err = ParseSentence("GST")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"single", Config{Constellations: []Constellation{Galileo}}, false},
		{"reordered", Config{Constellations: []Constellation{GLONASS, GPS}}, false},
		{"empty", Config{}, true},
		{"duplicate", Config{Constellations: []Constellation{GPS, GPS}}, true},
		{"unknown", Config{Constellations: []Constellation{GPS, 7}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
