package pvt

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
	"github.com/charmbracelet/log"
)

// EngineConfig configures the epoch pipeline
type EngineConfig struct {
	Output   nmea.Config
	Schedule Schedule

	// Leap is nil until broadcast UTC parameters are known
	Leap *gnsstime.LeapSecondParams
}

// DefaultEngineConfig emits every sentence each epoch for all constellations
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Output:   nmea.DefaultConfig(),
		Schedule: EverySentence(),
	}
}

// Validate checks the composer configuration, schedule and leap parameters
func (c *EngineConfig) Validate() error {
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	return c.Leap.Validate()
}

// Status summarizes the engine for the status endpoint
type Status struct {
	Epochs     uint64         `json:"epochs"`
	Emitted    uint64         `json:"emitted"`
	Skipped    uint64         `json:"skipped"`
	Degenerate uint64         `json:"degenerate"`
	Bytes      uint64         `json:"bytes"`
	LastError  string         `json:"last_error,omitempty"`
	Fix        FixSummary     `json:"fix"`
	Dop        geodesy.DopSet `json:"dop"`
}

// FixSummary is the last snapshot in display units
type FixSummary struct {
	Time      string  `json:"time"`
	Quality   string  `json:"quality"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    float64 `json:"height"`
	Speed     float64 `json:"speed"`  // knots
	Course    float64 `json:"course"` // degrees
	SatCount  int     `json:"sat_count"`

	// Grid is set for valid fixes inside the UTM/MGRS coverage
	Grid *geodesy.GridReference `json:"grid,omitempty"`
}

// Summarize converts a snapshot to display units
func Summarize(snap *nmea.FixSnapshot) FixSummary {
	lat, lon := snap.Position.Degrees()
	sum := FixSummary{
		Time:      snap.Time.String(),
		Quality:   snap.Quality.String(),
		Latitude:  lat,
		Longitude: lon,
		Height:    snap.Position.Height,
		Speed:     snap.Velocity.Speed * 3600 / 1852,
		Course:    snap.Velocity.Course * 180 / math.Pi,
		SatCount:  snap.SatCount,
	}
	if snap.Quality.Valid() {
		if ref, err := snap.Position.Grid(5); err == nil {
			sum.Grid = &ref
		}
	}
	return sum
}

// Engine turns solutions into NMEA output. It keeps the rotation between
// epochs so a degenerate position reuses the last good one.
type Engine struct {
	mu       sync.Mutex
	cfg      EngineConfig
	logger   *log.Logger
	rotation geodesy.RotationCoefficients
	epoch    uint64
	buf      []byte
	last     nmea.FixSnapshot
	status   Status
}

// NewEngine validates cfg and returns an engine. A nil logger discards output.
func NewEngine(cfg EngineConfig, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Leap != nil {
		leap := *cfg.Leap
		cfg.Leap = &leap
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		rotation: geodesy.Identity(),
		buf:      make([]byte, nmea.BufferSize),
	}, nil
}

// Process runs one epoch. It returns the composed sentences, or nil when the
// schedule selects nothing this epoch. The returned slice is reused by the
// next call. A failed epoch is counted, logged and skipped.
func (e *Engine) Process(sol *Solution) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	epoch := e.epoch
	e.epoch++
	e.status.Epochs = e.epoch

	ep, err := BuildSnapshot(sol, e.rotation, e.cfg.Leap)
	if err != nil {
		return nil, e.skip(epoch, err)
	}
	if ep.Degenerate {
		e.status.Degenerate++
		e.logger.Warn("position at geocenter, keeping previous rotation", "epoch", epoch)
	}
	e.rotation = ep.Rotation
	e.last = ep.Snapshot
	e.status.Fix = Summarize(&ep.Snapshot)
	e.status.Dop = ep.Snapshot.Dop

	mask := e.cfg.Schedule.Mask(epoch)
	if mask == 0 {
		return nil, nil
	}

	n, err := nmea.Encode(e.buf, &e.last, mask, e.cfg.Output)
	if err != nil {
		return nil, e.skip(epoch, err)
	}
	e.status.Emitted++
	e.status.Bytes += uint64(n)
	e.logger.Debug("epoch encoded", "epoch", epoch, "sentences", mask.String(), "bytes", n)
	return e.buf[:n], nil
}

func (e *Engine) skip(epoch uint64, err error) error {
	e.status.Skipped++
	e.status.LastError = err.Error()
	e.logger.Warn("epoch skipped", "epoch", epoch, "err", err)
	return fmt.Errorf("epoch %d: %w", epoch, err)
}

// SetLeapSeconds installs newly decoded broadcast UTC parameters
func (e *Engine) SetLeapSeconds(p gnsstime.LeapSecondParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Leap = &p
	e.logger.Info("leap second parameters updated", "tls", p.TLS, "tlsf", p.TLSF, "wnlsf", p.WNLSF, "dn", p.DN)
	return nil
}

// Reset forgets the previous rotation and restarts the schedule at epoch 0
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rotation = geodesy.Identity()
	e.epoch = 0
	e.last = nmea.FixSnapshot{}
	e.status = Status{}
}

// Snapshot returns a copy of the last snapshot built
func (e *Engine) Snapshot() nmea.FixSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}
