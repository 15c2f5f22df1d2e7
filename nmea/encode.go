// Package nmea composes NMEA0183 sentences from a receiver fix snapshot.
package nmea

import (
	"fmt"
	"math"
)

const (
	// maxSentenceLen bounds one composed sentence for finite field values
	// below one billion, including the checksum and CRLF
	maxSentenceLen = 128

	// MaxGsvSatellites is the most satellites reported per constellation in GSV
	MaxGsvSatellites = 36

	gsvPerSentence   = 4
	maxGsvSentences  = MaxGsvSatellites / gsvPerSentence
	gsaSatellites    = 12
	minElevation     = 0.00872664626 // 0.5 degree
	maxElevation     = 90            // degrees, after rounding
	trackedCN0       = 1000          // 10 dB-Hz
	normalizeDegrees = 360
)

// BufferSize is a buffer length large enough for every sentence type with all
// constellations enabled and the maximum number of GSV satellites.
const BufferSize = 5*maxSentenceLen + NumConstellations*(1+maxGsvSentences)*maxSentenceLen

// Encode composes the sentences selected by mask into dst and returns the
// number of bytes written. Sentences are emitted in Sentence order and each
// is checksummed and CRLF terminated. dst is never written past its capacity;
// if it is too small, Encode returns 0 and ErrBufferTooSmall.
func Encode(dst []byte, snap *FixSnapshot, mask SentenceMask, cfg Config) (int, error) {
	if snap == nil {
		return 0, fmt.Errorf("%w: nil snapshot", ErrInvalidInput)
	}
	if mask&^AllSentences != 0 {
		return 0, fmt.Errorf("%w: sentence mask %#x", ErrInvalidInput, uint8(mask))
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := snap.validate(); err != nil {
		return 0, fmt.Errorf("%w: snapshot", err)
	}

	var f sharedFields
	if err := f.compute(snap, mask, cfg); err != nil {
		return 0, fmt.Errorf("%w: field value out of range: %v", ErrInvalidInput, err)
	}

	w := NewWriter(dst)
	for _, s := range Sentences {
		if !mask.Has(s) {
			continue
		}
		switch s {
		case GGA:
			writeGGA(&w, &f, snap)
		case GSA:
			writeGSA(&w, &f, snap, cfg)
		case GSV:
			for _, c := range cfg.Constellations {
				writeGSV(&w, c, snap.State(c))
			}
		case GLL:
			writeGLL(&w, &f)
		case RMC:
			writeRMC(&w, &f)
		case VTG:
			writeVTG(&w, &f)
		case ZDA:
			writeZDA(&w, &f, snap)
		}
	}

	if err := w.Err(); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

func statusFlag(valid bool) byte {
	if valid {
		return 'A'
	}
	return 'V'
}

func writeGGA(w *Writer, f *sharedFields, snap *FixSnapshot) {
	w.Begin(f.talker, "GGA")
	w.Comma()
	w.Write(f.time.bytes())
	w.Comma()
	w.Write(f.latLon.bytes())
	w.Comma()
	if f.valid {
		w.WriteByte('1')
	} else {
		w.WriteByte('0')
	}
	w.Comma()
	w.Uint(snap.SatCount, 1)
	w.Comma()
	w.Write(f.hdop.bytes())
	w.Comma()
	w.Write(f.altitude.bytes())
	// no differential data
	w.WriteString(",,")
	w.End()
}

func writeGSA(w *Writer, f *sharedFields, snap *FixSnapshot, cfg Config) {
	for _, c := range cfg.Constellations {
		// a single-system talker reports only its own constellation
		if f.talker != combinedTalker && c.Talker() != f.talker {
			continue
		}
		inUse := snap.State(c).InUse
		if inUse == 0 {
			continue
		}

		w.Begin(f.talker, "GSA")
		w.WriteString(",A,")
		if f.valid {
			w.WriteByte('3')
		} else {
			w.WriteByte('1')
		}

		count := 0
		for i := inUse.Next(0); i >= 0 && count < gsaSatellites; i = inUse.Next(i + 1) {
			w.Comma()
			w.Uint(c.SvidBase()+i, 2)
			count++
		}
		for ; count < gsaSatellites; count++ {
			w.Comma()
		}

		w.Comma()
		w.Write(f.pdop.bytes())
		w.Comma()
		w.Write(f.hdop.bytes())
		w.Comma()
		w.Write(f.vdop.bytes())
		w.Comma()
		w.Uint(c.SystemID(), 1)
		w.End()
	}
}

// gsvEntry is one satellite block of a GSV sentence. Elevation is -1 when the
// satellite is tracked but its position in the sky is not yet known.
type gsvEntry struct {
	id        int
	elevation int
	azimuth   int
	cn0       int
}

func writeGSV(w *Writer, c Constellation, state *ConstellationState) {
	var entries [MaxGsvSatellites]gsvEntry
	n := 0

	for i, sat := range state.Satellites {
		if n == MaxGsvSatellites {
			break
		}
		switch {
		case sat.ElAzValid && sat.Elevation > minElevation:
			el := int(sat.Elevation*radToDeg + 0.5)
			if el > maxElevation {
				// impossible position, reported like a tracked-only satellite
				entries[n] = gsvEntry{id: c.SvidBase() + i, elevation: -1, cn0: roundCN0(sat.CN0)}
				break
			}
			az := int(math.Floor(sat.Azimuth*radToDeg+0.5)) % normalizeDegrees
			if az < 0 {
				az += normalizeDegrees
			}
			entries[n] = gsvEntry{
				id:        c.SvidBase() + i,
				elevation: el,
				azimuth:   az,
				cn0:       roundCN0(sat.CN0),
			}
		case sat.CN0 > trackedCN0:
			entries[n] = gsvEntry{id: c.SvidBase() + i, elevation: -1, cn0: roundCN0(sat.CN0)}
		default:
			continue
		}
		n++
	}

	total := (n + gsvPerSentence - 1) / gsvPerSentence
	for seq := 1; seq <= total; seq++ {
		w.Begin(c.Talker(), "GSV")
		w.Comma()
		w.Uint(total, 1)
		w.Comma()
		w.Uint(seq, 1)
		w.Comma()
		w.Uint(n, 2)

		for j := (seq - 1) * gsvPerSentence; j < seq*gsvPerSentence; j++ {
			if j >= n {
				// empty block pads the last sentence to four
				w.WriteString(",,,,")
				continue
			}
			e := entries[j]
			w.Comma()
			w.Uint(e.id, 2)
			w.Comma()
			if e.elevation >= 0 {
				w.Uint(e.elevation, 2)
			}
			w.Comma()
			if e.elevation >= 0 {
				w.Uint(e.azimuth, 3)
			}
			w.Comma()
			if e.cn0 > 0 {
				w.Uint(e.cn0, 2)
			}
		}

		// signal id, reserved
		w.WriteString(",0")
		w.End()
	}
}

// roundCN0 converts 0.01 dB-Hz to whole dB-Hz, rounding half up
func roundCN0(cn0 int) int {
	if cn0 <= 0 {
		return 0
	}
	return (cn0 + 50) / 100
}

func writeGLL(w *Writer, f *sharedFields) {
	w.Begin(f.talker, "GLL")
	w.Comma()
	w.Write(f.latLon.bytes())
	w.Comma()
	w.Write(f.time.bytes())
	w.Comma()
	w.WriteByte(statusFlag(f.valid))
	w.WriteString(",A")
	w.End()
}

func writeRMC(w *Writer, f *sharedFields) {
	w.Begin(f.talker, "RMC")
	w.Comma()
	w.Write(f.time.bytes())
	w.Comma()
	w.WriteByte(statusFlag(f.valid))
	w.Comma()
	w.Write(f.latLon.bytes())
	w.Comma()
	w.Write(f.speed.bytes())
	w.Comma()
	w.Write(f.course.bytes())
	w.Comma()
	w.Write(f.date.bytes())
	// no magnetic variation
	w.WriteString(",,E,A,")
	w.WriteByte(statusFlag(f.valid))
	w.End()
}

func writeVTG(w *Writer, f *sharedFields) {
	w.Begin(f.talker, "VTG")
	w.Comma()
	w.Write(f.course.bytes())
	w.WriteString(",T,,M,")
	w.Write(f.speed.bytes())
	w.WriteString(",N,")
	w.Write(f.kph.bytes())
	w.WriteString(",K,A")
	w.End()
}

func writeZDA(w *Writer, f *sharedFields, snap *FixSnapshot) {
	w.Begin(f.talker, "ZDA")
	w.Comma()
	w.Write(f.time.bytes())
	w.Comma()
	w.Uint(snap.Time.Day, 2)
	w.Comma()
	w.Uint(snap.Time.Month, 2)
	w.Comma()
	w.Uint(snap.Time.Year, 4)
	// no local zone
	w.WriteString(",,")
	w.End()
}
