// Package sim simulates a multi-constellation receiver and produces one
// positioning solution per output tick.
package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
	"github.com/Bucknalla/go-pvt-nmea/pvt"
)

// Handler receives each solution. Handlers run on the simulation goroutine in
// registration order.
type Handler func(sol *pvt.Solution)

// Simulator represents the receiver simulator
type Simulator struct {
	mu             sync.RWMutex
	config         Config
	logger         *log.Logger
	rng            *rand.Rand
	now            func() time.Time
	currentLat     float64
	currentLon     float64
	currentAlt     float64
	currentSpeed   float64 // knots, jitter applied
	currentCourse  float64 // degrees, jitter applied
	isLocked       bool
	quality        nmea.FixQuality
	inUse          int
	epochs         uint64
	lockTime       time.Time
	startTime      time.Time
	lastUpdateTime time.Time
	sky            sky
	track          *TrackWriter

	replayPoints    []TrackPoint
	replayIndex     int
	replayStartTime time.Time
	replayCompleted bool

	running  bool
	cancel   context.CancelFunc
	ticker   *time.Ticker
	done     chan struct{}
	handlers []Handler
}

// NewSimulator creates a simulator. A nil logger discards output.
func NewSimulator(config Config, logger *log.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulator{
		config:        config,
		logger:        logger,
		rng:           rand.New(rand.NewSource(seed)),
		now:           time.Now,
		currentLat:    config.Latitude,
		currentLon:    config.Longitude,
		currentAlt:    config.Altitude,
		currentSpeed:  config.Speed,
		currentCourse: config.Course,
	}
	s.reset(s.now())
	s.sky = newSky(config.Sky, s.rng)

	if config.ReplayFile != "" {
		points, err := ReadTrack(config.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("load replay file: %w", err)
		}
		s.replayPoints = points
		s.currentLat = points[0].Lat
		s.currentLon = points[0].Lon
		s.currentAlt = points[0].Elevation
	}

	if config.TrackFile != "" {
		track, err := NewTrackWriter(config.TrackFile)
		if err != nil {
			return nil, err
		}
		s.track = track
	}

	return s, nil
}

// reset restarts the lock and replay clocks at now
func (s *Simulator) reset(now time.Time) {
	s.startTime = now
	s.lockTime = now.Add(s.config.TimeToLock)
	s.lastUpdateTime = now
	s.replayStartTime = now
	s.replayIndex = 0
	s.replayCompleted = false
	s.isLocked = false
}

// AddHandler registers h to receive every solution
func (s *Simulator) AddHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Start starts the simulation in the background
func (s *Simulator) Start() error {
	_, err := s.start(context.Background())
	return err
}

// Run starts the simulation and blocks until ctx is cancelled, the configured
// duration elapses, a non-looping replay completes or Stop is called.
func (s *Simulator) Run(ctx context.Context) error {
	done, err := s.start(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

func (s *Simulator) start(parent context.Context) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, ErrSimulatorAlreadyRunning
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.ticker = time.NewTicker(s.config.OutputRate)
	s.done = make(chan struct{})
	s.running = true
	s.reset(s.now())

	s.logger.Info("simulator started", "satellites", s.config.Sky.Total(), "rate", s.config.OutputRate)
	go s.run(ctx, s.ticker.C, s.done, s.config.Duration)
	return s.done, nil
}

// Stop stops the simulation. The track file is closed by the simulation
// goroutine as it exits.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrSimulatorNotRunning
	}
	s.halt()
	return nil
}

// halt must be called with mu held
func (s *Simulator) halt() {
	s.cancel()
	s.ticker.Stop()
	s.running = false
}

// IsRunning returns whether the simulator is currently running
func (s *Simulator) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// UpdateConfig replaces the configuration, also while running. The sky and
// replay track are kept.
func (s *Simulator) UpdateConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldRate := s.config.OutputRate
	config.ReplayFile = s.config.ReplayFile
	config.TrackFile = s.config.TrackFile
	config.Sky = s.config.Sky
	s.config = config

	if s.running && oldRate != config.OutputRate {
		s.ticker.Reset(config.OutputRate)
	}
	return nil
}

// Status returns the current simulator status
func (s *Simulator) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var elapsed time.Duration
	if s.running {
		elapsed = now.Sub(s.startTime)
	}

	return Status{
		Running:     s.running,
		StartTime:   s.startTime,
		ElapsedTime: elapsed,
		Epochs:      s.epochs,
		Position: Position{
			Latitude:   s.currentLat,
			Longitude:  s.currentLon,
			Altitude:   s.currentAlt,
			Speed:      s.currentSpeed,
			Course:     s.currentCourse,
			IsLocked:   s.isLocked,
			Quality:    s.quality.String(),
			InUse:      s.inUse,
			Satellites: s.sky.statuses(s.isLocked, s.config.ElevationMask),
			Timestamp:  now,
		},
		Config:          s.config,
		ReplayIndex:     s.replayIndex,
		ReplayTotal:     len(s.replayPoints),
		ReplayCompleted: s.replayCompleted,
	}
}

func (s *Simulator) run(ctx context.Context, tick <-chan time.Time, done chan struct{}, duration time.Duration) {
	defer close(done)
	defer s.finish()

	var durationChan <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		durationChan = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-durationChan:
			s.logger.Info("simulation duration reached", "duration", duration)
			return
		case <-tick:
			sol, err := s.Step(s.now())
			if err != nil {
				s.logger.Warn("solution skipped", "err", err)
				continue
			}
			s.mu.RLock()
			handlers := s.handlers
			completed := s.config.ReplayFile != "" && !s.config.ReplayLoop && s.replayCompleted
			s.mu.RUnlock()

			for _, h := range handlers {
				h(&sol)
			}
			if completed {
				s.logger.Info("replay completed")
				return
			}
		}
	}
}

// finish stops the simulator if still running and closes the track file
func (s *Simulator) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.halt()
	}
	if s.track != nil {
		if err := s.track.Close(); err != nil {
			s.logger.Error("closing GPX track", "err", err)
		}
		s.track = nil
	}
}

// Step advances the model to now and returns the solution for that instant
func (s *Simulator) Step(now time.Time) (pvt.Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.update(now)

	week, weekMs, err := gnsstime.UtcToGps(gnsstime.FromTime(now), s.config.Leap)
	if err != nil {
		return pvt.Solution{}, fmt.Errorf("receiver time %s: %w", now.UTC().Format(time.RFC3339), err)
	}

	tracking, used := s.sky.tracking(s.isLocked, s.config.ElevationMask)
	s.inUse = len(used)
	s.quality = qualityFor(s.isLocked, s.inUse)
	s.epochs++

	llh := geodesy.FromDegrees(s.currentLat, s.currentLon, s.currentAlt)
	course := s.currentCourse * degToRad
	speed := s.currentSpeed * knotsToMS

	sol := pvt.Solution{
		GpsWeek:  week,
		WeekMs:   weekMs,
		Quality:  s.quality,
		SatCount: s.inUse,
		Tracking: tracking,
	}
	if s.isLocked {
		sol.State = geodesy.State{
			Position: geodesy.LlhToEcef(llh),
			Velocity: enuToEcef(llh, speed*math.Sin(course), speed*math.Cos(course), 0),
		}
		sol.Covariance = covariance(llh, used)
		s.recordTrack(now)
	}
	return sol, nil
}

// update must be called with mu held
func (s *Simulator) update(now time.Time) {
	dt := now.Sub(s.lastUpdateTime).Seconds()
	s.lastUpdateTime = now

	if !s.isLocked && !now.Before(s.lockTime) {
		s.isLocked = true
		s.logger.Info("position locked", "after", now.Sub(s.startTime))
	}

	if s.isLocked {
		if len(s.replayPoints) > 0 {
			s.updateReplayPosition(now)
		} else {
			s.updateSpeedAndCourse()
			s.updatePosition(dt)
			s.updateAltitude()
		}
	}

	s.sky.drift(s.rng)
}

func (s *Simulator) recordTrack(now time.Time) {
	if s.track == nil {
		return
	}
	err := s.track.Add(TrackPoint{Lat: s.currentLat, Lon: s.currentLon, Elevation: s.currentAlt, Time: now})
	if err != nil {
		s.logger.Warn("writing GPX track", "err", err)
	}
}
