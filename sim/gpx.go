package sim

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"
)

// TrackPoint is one GPX track or route point
type TrackPoint struct {
	Lat       float64   `xml:"lat,attr"`
	Lon       float64   `xml:"lon,attr"`
	Elevation float64   `xml:"ele"`
	Time      time.Time `xml:"time"`
}

type gpxDocument struct {
	XMLName xml.Name   `xml:"gpx"`
	Version string     `xml:"version,attr"`
	Creator string     `xml:"creator,attr"`
	Xmlns   string     `xml:"xmlns,attr"`
	Track   gpxTrack   `xml:"trk"`
	Routes  []gpxRoute `xml:"rte"`
}

type gpxTrack struct {
	Name string `xml:"name"`
	Segment struct {
		Points []TrackPoint `xml:"trkpt"`
	} `xml:"trkseg"`
}

type gpxRoute struct {
	Name   string       `xml:"name"`
	Points []TrackPoint `xml:"rtept"`
}

// trackFlushInterval is the number of points between rewrites of the file
const trackFlushInterval = 10

// TrackWriter records simulated positions as a GPX track. The whole document
// is rewritten on every flush so the file is valid between flushes.
type TrackWriter struct {
	file *os.File
	doc  gpxDocument
}

// NewTrackWriter creates or truncates path
func NewTrackWriter(path string) (*TrackWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create GPX file %s: %w", path, err)
	}

	w := &TrackWriter{file: file}
	w.doc.Version = "1.1"
	w.doc.Creator = "go-pvt-nmea"
	w.doc.Xmlns = "http://www.topografix.com/GPX/1/1"
	w.doc.Track.Name = "Simulated receiver track"
	return w, nil
}

// Add appends a point and flushes every trackFlushInterval points
func (w *TrackWriter) Add(p TrackPoint) error {
	p.Time = p.Time.UTC()
	w.doc.Track.Segment.Points = append(w.doc.Track.Segment.Points, p)
	if w.Len()%trackFlushInterval == 0 {
		return w.Flush()
	}
	return nil
}

// Len returns the number of recorded points
func (w *TrackWriter) Len() int {
	return len(w.doc.Track.Segment.Points)
}

// Flush rewrites the file with every point recorded so far
func (w *TrackWriter) Flush() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek GPX file: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate GPX file: %w", err)
	}
	if _, err := w.file.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write GPX header: %w", err)
	}

	enc := xml.NewEncoder(w.file)
	enc.Indent("", "  ")
	if err := enc.Encode(&w.doc); err != nil {
		return fmt.Errorf("encode GPX: %w", err)
	}
	return w.file.Sync()
}

// Close flushes and closes the file
func (w *TrackWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.Flush()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// ReadTrack parses a GPX file and returns its track points, or the points of
// its first route when it has no track
func ReadTrack(path string) ([]TrackPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GPX file %s: %w", path, err)
	}
	defer file.Close()

	var doc gpxDocument
	if err := xml.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse GPX file %s: %w", path, err)
	}

	points := doc.Track.Segment.Points
	if len(points) == 0 && len(doc.Routes) > 0 {
		points = doc.Routes[0].Points
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w in GPX file %s", ErrEmptyTrack, path)
	}
	return points, nil
}
