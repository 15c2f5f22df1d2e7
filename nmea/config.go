package nmea

import (
	"fmt"
	"strings"
)

// Sentence is a sentence type. The numeric order is the emission order.
type Sentence uint8

const (
	GGA Sentence = iota
	GSA
	GSV
	GLL
	RMC
	VTG
	ZDA

	NumSentences
)

var sentenceNames = [NumSentences]string{"GGA", "GSA", "GSV", "GLL", "RMC", "VTG", "ZDA"}

// Sentences lists every sentence type in emission order
var Sentences = []Sentence{GGA, GSA, GSV, GLL, RMC, VTG, ZDA}

func (s Sentence) String() string {
	if s >= NumSentences {
		return fmt.Sprintf("Sentence(%d)", uint8(s))
	}
	return sentenceNames[s]
}

// ParseSentence accepts a three letter sentence identifier, case insensitive
func ParseSentence(name string) (Sentence, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range sentenceNames {
		if n == upper {
			return Sentence(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sentence %q", ErrInvalidInput, name)
}

// SentenceMask selects sentence types, bit n for Sentence n
type SentenceMask uint8

// AllSentences selects every sentence type
const AllSentences SentenceMask = 1<<NumSentences - 1

// MaskOf builds a mask from sentence types
func MaskOf(sentences ...Sentence) SentenceMask {
	var m SentenceMask
	for _, s := range sentences {
		m |= 1 << s
	}
	return m
}

// Has reports whether s is selected
func (m SentenceMask) Has(s Sentence) bool {
	return m&(1<<s) != 0
}

// Any reports whether any of the sentences in other are selected
func (m SentenceMask) Any(other SentenceMask) bool {
	return m&other != 0
}

func (m SentenceMask) String() string {
	var names []string
	for _, s := range Sentences {
		if m.Has(s) {
			names = append(names, s.String())
		}
	}
	return strings.Join(names, ",")
}

// Config is the composer configuration. It is read for the duration of one
// Encode call and never retained.
type Config struct {
	// Constellations lists the enabled constellations in talker priority order.
	// Per-constellation GSA and GSV sentences follow this order. A single entry
	// makes that constellation's talker exclusive.
	Constellations []Constellation
}

// DefaultConfig enables every constellation in identifier order
func DefaultConfig() Config {
	return Config{Constellations: []Constellation{GPS, BeiDou, Galileo, GLONASS}}
}

// Validate checks that the priority list is non-empty and holds each known
// constellation at most once
func (c Config) Validate() error {
	if len(c.Constellations) == 0 {
		return fmt.Errorf("%w: no constellations enabled", ErrInvalidInput)
	}
	var seen [NumConstellations]bool
	for _, con := range c.Constellations {
		if !con.Valid() {
			return fmt.Errorf("%w: unknown constellation %d", ErrInvalidInput, uint8(con))
		}
		if seen[con.index()] {
			return fmt.Errorf("%w: constellation %s listed twice", ErrInvalidInput, con)
		}
		seen[con.index()] = true
	}
	return nil
}

// Enabled reports whether con is in the priority list
func (c Config) Enabled(con Constellation) bool {
	for _, e := range c.Constellations {
		if e == con {
			return true
		}
	}
	return false
}

// exclusive returns the only enabled constellation, if there is just one
func (c Config) exclusive() (Constellation, bool) {
	if len(c.Constellations) == 1 {
		return c.Constellations[0], true
	}
	return 0, false
}
