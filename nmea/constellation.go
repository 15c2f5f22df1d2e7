package nmea

import (
	"fmt"
	"math/bits"
	"strings"
)

// Constellation identifies a satellite navigation system
type Constellation uint8

const (
	GPS Constellation = iota + 1
	BeiDou
	Galileo
	GLONASS
)

// NumConstellations is the number of supported constellations
const NumConstellations = 4

// combinedTalker is used when the fix mixes constellations or is not valid
const combinedTalker = 'N'

var constellationInfo = [NumConstellations]struct {
	name     string
	talker   byte
	systemID int
	svidBase int
}{
	{"GPS", 'P', 1, 1},
	{"BDS", 'B', 4, 1},
	{"GAL", 'A', 3, 1},
	{"GLO", 'L', 2, 65},
}

// Constellations lists every supported constellation in identifier order
var Constellations = []Constellation{GPS, BeiDou, Galileo, GLONASS}

// Valid reports whether c is a known constellation
func (c Constellation) Valid() bool {
	return c >= GPS && c <= GLONASS
}

func (c Constellation) index() int {
	return int(c) - 1
}

func (c Constellation) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Constellation(%d)", uint8(c))
	}
	return constellationInfo[c.index()].name
}

// Talker returns the second letter of the talker identifier
func (c Constellation) Talker() byte {
	return constellationInfo[c.index()].talker
}

// SystemID returns the NMEA 4.11 GNSS system identifier used in GSA
func (c Constellation) SystemID() int {
	return constellationInfo[c.index()].systemID
}

// SvidBase returns the satellite ID reported for bit 0 of the in-use mask
func (c Constellation) SvidBase() int {
	return constellationInfo[c.index()].svidBase
}

// ParseConstellation accepts short and long constellation names, case insensitive
func ParseConstellation(s string) (Constellation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GPS", "GP":
		return GPS, nil
	case "BDS", "BEIDOU", "GB":
		return BeiDou, nil
	case "GAL", "GALILEO", "GA":
		return Galileo, nil
	case "GLO", "GLONASS", "GL":
		return GLONASS, nil
	}
	return 0, fmt.Errorf("%w: unknown constellation %q", ErrInvalidInput, s)
}

// MaxSatellites is the number of satellites a SatMask can address
const MaxSatellites = 64

// SatMask has bit i set when satellite i of a constellation contributes to the
// fix. Iteration with Next visits set bits in ascending index order, so the
// lowest satellite ID comes first.
type SatMask uint64

// Has reports whether bit i is set
func (m SatMask) Has(i int) bool {
	return i >= 0 && i < MaxSatellites && m&(1<<uint(i)) != 0
}

// Set returns m with bit i set
func (m SatMask) Set(i int) SatMask {
	if i < 0 || i >= MaxSatellites {
		return m
	}
	return m | 1<<uint(i)
}

// Clear returns m with bit i cleared
func (m SatMask) Clear(i int) SatMask {
	if i < 0 || i >= MaxSatellites {
		return m
	}
	return m &^ (1 << uint(i))
}

// Count returns the number of set bits
func (m SatMask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// Next returns the lowest set bit index that is >= from, or -1 if none.
//
//	for i := m.Next(0); i >= 0; i = m.Next(i + 1) { ... }
func (m SatMask) Next(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= MaxSatellites {
		return -1
	}
	rest := uint64(m) >> uint(from)
	if rest == 0 {
		return -1
	}
	return from + bits.TrailingZeros64(rest)
}
