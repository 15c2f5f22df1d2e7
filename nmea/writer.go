package nmea

import "strconv"

const hexDigits = "0123456789ABCDEF"

// Writer appends sentence text to a fixed-capacity buffer. The first write that
// would exceed the capacity fails with ErrBufferTooSmall and every later write
// is a no-op returning the same error. It never writes past cap(dst).
type Writer struct {
	buf   []byte
	err   error
	start int
}

// NewWriter returns a Writer over the full capacity of dst
func NewWriter(dst []byte) Writer {
	return Writer{buf: dst[:0]}
}

// Len returns the number of bytes written
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Err returns the first error encountered
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) reserve(n int) bool {
	if w.err != nil {
		return false
	}
	if len(w.buf)+n > cap(w.buf) {
		w.err = ErrBufferTooSmall
		return false
	}
	return true
}

// Write appends p in full or not at all
func (w *Writer) Write(p []byte) (int, error) {
	if !w.reserve(len(p)) {
		return 0, w.err
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (w *Writer) WriteByte(c byte) error {
	if !w.reserve(1) {
		return w.err
	}
	w.buf = append(w.buf, c)
	return nil
}

// WriteString appends s in full or not at all
func (w *Writer) WriteString(s string) (int, error) {
	if !w.reserve(len(s)) {
		return 0, w.err
	}
	w.buf = append(w.buf, s...)
	return len(s), nil
}

// Comma appends a field separator
func (w *Writer) Comma() {
	w.WriteByte(',')
}

// Uint appends v in decimal, zero padded to at least width digits
func (w *Writer) Uint(v, width int) {
	var tmp [20]byte
	digits := strconv.AppendUint(tmp[:0], uint64(v), 10)
	for i := len(digits); i < width; i++ {
		w.WriteByte('0')
	}
	w.Write(digits)
}

// Float appends v in fixed notation with prec fractional digits
func (w *Writer) Float(v float64, prec int) {
	var tmp [32]byte
	w.Write(strconv.AppendFloat(tmp[:0], v, 'f', prec, 64))
}

// Begin starts a sentence with '$', 'G', the talker letter and the sentence
// identifier.
func (w *Writer) Begin(talker byte, id string) {
	w.start = len(w.buf)
	w.WriteByte('$')
	w.WriteByte('G')
	w.WriteByte(talker)
	w.WriteString(id)
}

// End appends the checksum and line terminator to the sentence started by Begin
func (w *Writer) End() {
	if w.err != nil {
		return
	}
	sum := Checksum(w.buf[w.start:])
	w.WriteByte('*')
	w.WriteByte(hexDigits[sum>>4])
	w.WriteByte(hexDigits[sum&0x0F])
	w.WriteByte('\r')
	w.WriteByte('\n')
}

// Checksum XORs every byte after a leading '$' up to the first '*', '\r' or
// '\n' or the end of the sentence.
func Checksum(sentence []byte) byte {
	if len(sentence) > 0 && sentence[0] == '$' {
		sentence = sentence[1:]
	}
	var sum byte
	for _, c := range sentence {
		if c == '*' || c == '\r' || c == '\n' {
			break
		}
		sum ^= c
	}
	return sum
}
