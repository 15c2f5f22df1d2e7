package nmea

import (
	"math"

	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
)

const (
	// tenths of a micro-minute per degree, one digit past the rendered resolution
	roundedMinuteScale = 600000000.0
	msToKnots          = 3600.0 / 1852.0
	msToKph            = 3.6
	radToDeg           = 180 / math.Pi
)

// fragment is a pre-rendered field group reused by several sentence types
type fragment struct {
	buf [48]byte
	n   int
}

func (f *fragment) bytes() []byte {
	return f.buf[:f.n]
}

// render runs fn against a Writer over the fragment storage
func (f *fragment) render(fn func(w *Writer)) error {
	w := NewWriter(f.buf[:])
	fn(&w)
	f.n = w.Len()
	return w.Err()
}

// sharedFields are computed once per Encode call, only for the fields that the
// requested sentences need.
type sharedFields struct {
	talker byte
	valid  bool
	err    error

	latLon   fragment // ddmm.mmmmmm,N,dddmm.mmmmmm,E
	altitude fragment // a.aaa,M,0,M
	time     fragment // hhmmss.sss
	date     fragment // ddmmyy
	hdop     fragment
	vdop     fragment
	pdop     fragment
	speed    fragment // knots
	course   fragment // degrees true
	kph      fragment
}

var (
	needLatLon = MaskOf(GGA, GLL, RMC)
	needTime   = MaskOf(GGA, GLL, RMC, ZDA)
	needDop    = MaskOf(GGA, GSA)
	needSpeed  = MaskOf(RMC, VTG)
)

func (f *sharedFields) render(dst *fragment, fn func(w *Writer)) {
	if err := dst.render(fn); err != nil && f.err == nil {
		f.err = err
	}
}

func (f *sharedFields) compute(snap *FixSnapshot, mask SentenceMask, cfg Config) error {
	f.valid = snap.Quality.Valid()
	f.talker = selectTalker(snap, cfg, f.valid)

	if mask.Any(needLatLon) {
		f.render(&f.latLon, func(w *Writer) {
			lat, lon := snap.Position.Degrees()
			writeAngle(w, lat, 2, 'N', 'S')
			w.Comma()
			writeAngle(w, lon, 3, 'E', 'W')
		})
	}

	if mask.Has(GGA) {
		f.render(&f.altitude, func(w *Writer) {
			w.Float(snap.Position.Height, 3)
			w.WriteString(",M,0,M")
		})
	}

	if mask.Any(needTime) {
		f.render(&f.time, func(w *Writer) { writeTime(w, snap.Time) })
	}

	if mask.Has(RMC) {
		f.render(&f.date, func(w *Writer) {
			w.Uint(snap.Time.Day, 2)
			w.Uint(snap.Time.Month, 2)
			w.Uint(snap.Time.Year%100, 2)
		})
	}

	if f.valid && mask.Any(needDop) {
		f.render(&f.hdop, func(w *Writer) { w.Float(snap.Dop.HDOP, 3) })
		if mask.Has(GSA) {
			f.render(&f.vdop, func(w *Writer) { w.Float(snap.Dop.VDOP, 3) })
			f.render(&f.pdop, func(w *Writer) { w.Float(snap.Dop.PDOP, 3) })
		}
	}

	if f.valid && mask.Any(needSpeed) {
		f.render(&f.speed, func(w *Writer) { w.Float(snap.Velocity.Speed*msToKnots, 3) })
		f.render(&f.course, func(w *Writer) { w.Float(snap.Velocity.Course*radToDeg, 3) })
		if mask.Has(VTG) {
			f.render(&f.kph, func(w *Writer) { w.Float(snap.Velocity.Speed*msToKph, 3) })
		}
	}

	return f.err
}

// selectTalker prefers an exclusive configured constellation, then the single
// enabled constellation a valid fix was solved from, then the combined talker.
func selectTalker(snap *FixSnapshot, cfg Config, valid bool) byte {
	if c, ok := cfg.exclusive(); ok {
		return c.Talker()
	}
	if valid {
		if c, ok := snap.SingleSystem(); ok && cfg.Enabled(c) {
			return c.Talker()
		}
	}
	return combinedTalker
}

// writeAngle writes |deg| as whole degrees and minutes with six decimals,
// rounding half up and carrying into the degrees, then the hemisphere letter.
func writeAngle(w *Writer, deg float64, degWidth int, pos, neg byte) {
	hemi := pos
	if deg < 0 {
		hemi = neg
		deg = -deg
	}

	whole := int(deg)
	scaled := int((deg-float64(whole))*roundedMinuteScale + 5)
	if scaled >= int(roundedMinuteScale) {
		whole++
		scaled = 0
	}
	microMinutes := scaled / 10

	w.Uint(whole, degWidth)
	w.Uint(microMinutes/1000000, 2)
	w.WriteByte('.')
	w.Uint(microMinutes%1000000, 6)
	w.Comma()
	w.WriteByte(hemi)
}

func writeTime(w *Writer, t gnsstime.CalendarTime) {
	w.Uint(t.Hour, 2)
	w.Uint(t.Minute, 2)
	w.Uint(t.Second, 2)
	w.WriteByte('.')
	w.Uint(t.Millisecond, 3)
}
