package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

// RecorderConfig enables recording of the output stream to files
type RecorderConfig struct {
	Enable bool `yaml:"enable" json:"enable"`

	// Pattern is an strftime pattern evaluated in UTC, e.g. logs/%Y-%m-%d.nmea
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Recorder appends the output stream to files named by an strftime pattern.
// A new file is opened whenever the formatted name changes.
type Recorder struct {
	pattern *strftime.Strftime
	now     func() time.Time
	name    string
	file    *os.File
}

// NewRecorder compiles pattern. No file is opened until the first Send.
func NewRecorder(pattern string) (*Recorder, error) {
	if pattern == "" {
		return nil, fmt.Errorf("recorder: %w", ErrNoDestination)
	}
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("recorder pattern %q: %w", pattern, err)
	}
	return &Recorder{pattern: p, now: time.Now}, nil
}

// Name returns the file currently open, if any
func (r *Recorder) Name() string {
	return r.name
}

func (r *Recorder) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	name := r.pattern.FormatString(r.now().UTC())
	if r.file != nil && name != r.name {
		if err := r.Close(); err != nil {
			return err
		}
	}
	if r.file == nil {
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		r.file = f
		r.name = name
	}

	_, err := r.file.Write(p)
	return err
}

func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.name = ""
	return err
}
