package sim

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
	"github.com/Bucknalla/go-pvt-nmea/pvt"
)

// Helper function to create a test config
func createTestConfig() Config {
	return Config{
		Latitude:       37.7749,
		Longitude:      -122.4194,
		Radius:         100.0,
		Altitude:       45.0,
		Jitter:         0.5,
		AltitudeJitter: 0.1,
		Speed:          0.1,
		Sky:            Sky{GPS: 8, GLONASS: 4},
		ElevationMask:  10,
		TimeToLock:     0,
		OutputRate:     10 * time.Millisecond,
		ReplaySpeed:    1.0,
		Seed:           42,
	}
}

func createTestSimulatorWith(t *testing.T, config Config) *Simulator {
	t.Helper()
	sim, err := NewSimulator(config, nil)
	if err != nil {
		t.Fatalf("failed to create simulator: %v", err)
	}
	return sim
}

func TestNewSimulator(t *testing.T) {
	config := createTestConfig()
	sim := createTestSimulatorWith(t, config)

	if sim.currentLat != config.Latitude || sim.currentLon != config.Longitude || sim.currentAlt != config.Altitude {
		t.Errorf("initial position %f,%f,%f does not match config", sim.currentLat, sim.currentLon, sim.currentAlt)
	}
	if sim.isLocked {
		t.Error("receiver should not be locked initially")
	}
	if len(sim.sky[0]) != 8 || len(sim.sky[3]) != 4 || len(sim.sky[1]) != 0 {
		t.Errorf("unexpected sky sizes %d/%d/%d/%d", len(sim.sky[0]), len(sim.sky[1]), len(sim.sky[2]), len(sim.sky[3]))
	}
	for i := range sim.sky {
		for j, sat := range sim.sky[i] {
			if sat.elevation < 5 || sat.elevation > 85 || sat.azimuth < 0 || sat.azimuth >= 360 || sat.cn0 < 20 || sat.cn0 > 50 {
				t.Errorf("satellite %d/%d out of range: %+v", i, j, sat)
			}
		}
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"valid", func(c *Config) {}, nil},
		{"too few satellites", func(c *Config) { c.Sky = Sky{GPS: 3} }, ErrInvalidSatelliteCount},
		{"too many in one constellation", func(c *Config) { c.Sky.GPS = 37 }, ErrInvalidSatelliteCount},
		{"negative count", func(c *Config) { c.Sky.Galileo = -1 }, ErrInvalidSatelliteCount},
		{"bad latitude", func(c *Config) { c.Latitude = 91 }, ErrInvalidPosition},
		{"negative radius", func(c *Config) { c.Radius = -1 }, ErrInvalidRadius},
		{"jitter", func(c *Config) { c.Jitter = 1.5 }, ErrInvalidJitter},
		{"altitude jitter", func(c *Config) { c.AltitudeJitter = -0.1 }, ErrInvalidAltitudeJitter},
		{"speed", func(c *Config) { c.Speed = -1 }, ErrInvalidSpeed},
		{"course", func(c *Config) { c.Course = 360 }, ErrInvalidCourse},
		{"elevation mask", func(c *Config) { c.ElevationMask = 90 }, ErrInvalidElevationMask},
		{"output rate", func(c *Config) { c.OutputRate = 0 }, ErrInvalidOutputRate},
		{"replay speed", func(c *Config) { c.ReplaySpeed = 0 }, ErrInvalidReplaySpeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.modify(&config)
			err := config.Validate()
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}

	defaultConfig := DefaultConfig()
	if err := defaultConfig.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestStepBeforeLock(t *testing.T) {
	config := createTestConfig()
	config.TimeToLock = time.Minute
	sim := createTestSimulatorWith(t, config)

	sol, err := sim.Step(sim.startTime.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Quality != nmea.QualityNone || sol.SatCount != 0 {
		t.Errorf("expected no fix before lock, got %v with %d satellites", sol.Quality, sol.SatCount)
	}
	if sol.Covariance != ([10]float64{}) {
		t.Error("expected no covariance before lock")
	}
	for _, sat := range sol.Tracking[0].Satellites {
		if sat.ElAzValid {
			t.Error("satellites should be tracked without elevation and azimuth before lock")
		}
		if sat.CN0 == 0 {
			t.Error("tracked satellites should report a carrier to noise ratio")
		}
	}
}

func TestStepAfterLock(t *testing.T) {
	config := createTestConfig()
	config.ElevationMask = 0
	sim := createTestSimulatorWith(t, config)

	now := time.Date(2024, 3, 23, 12, 35, 19, 250e6, time.UTC)
	sol, err := sim.Step(now)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.isLocked {
		t.Fatal("expected lock with zero time to lock")
	}

	inUse := 0
	for _, st := range sol.Tracking {
		inUse += st.InUse.Count()
	}
	if inUse != sol.SatCount || inUse != sim.inUse {
		t.Errorf("sat count %d does not match in-use masks %d", sol.SatCount, inUse)
	}
	if inUse >= 4 && sol.Quality != nmea.QualityFix3D {
		t.Errorf("expected 3D fix with %d satellites, got %v", inUse, sol.Quality)
	}

	if sol.GpsWeek != 2306 {
		t.Errorf("expected GPS week 2306, got %d", sol.GpsWeek)
	}

	// the solution must describe the simulated position
	e, err := pvt.BuildSnapshot(&sol, geodesy.Identity(), nil)
	if err != nil {
		t.Fatal(err)
	}
	lat, lon := e.Snapshot.Position.Degrees()
	if d := distance(lat, lon, sim.currentLat, sim.currentLon); d > 0.01 {
		t.Errorf("solution is %f m from the simulated position", d)
	}
	if e.Snapshot.Time.Hour != 12 || e.Snapshot.Time.Minute != 35 || e.Snapshot.Time.Second != 19 || e.Snapshot.Time.Millisecond != 250 {
		t.Errorf("unexpected solution time %s", e.Snapshot.Time)
	}
	if inUse >= 4 && !e.Snapshot.Dop.Valid() {
		t.Error("expected valid DOP values")
	}
}

func TestQualityFor(t *testing.T) {
	tests := []struct {
		locked   bool
		inUse    int
		expected nmea.FixQuality
	}{
		{false, 10, nmea.QualityNone},
		{true, 0, nmea.QualityKept},
		{true, 3, nmea.QualityFix2D},
		{true, 4, nmea.QualityFix3D},
	}
	for _, tt := range tests {
		if got := qualityFor(tt.locked, tt.inUse); got != tt.expected {
			t.Errorf("qualityFor(%v, %d) = %v, expected %v", tt.locked, tt.inUse, got, tt.expected)
		}
	}
}

func TestStepVelocity(t *testing.T) {
	config := createTestConfig()
	config.Speed = 10
	config.Course = 90
	config.Jitter = 0
	config.Radius = 10000
	sim := createTestSimulatorWith(t, config)

	sol, err := sim.Step(sim.startTime.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	e, err := pvt.BuildSnapshot(&sol, geodesy.Identity(), nil)
	if err != nil {
		t.Fatal(err)
	}

	knots := e.Snapshot.Velocity.Speed / knotsToMS
	if diff := knots - 10; diff > 0.01 || diff < -0.01 {
		t.Errorf("expected 10 knots, got %f", knots)
	}
	course := e.Snapshot.Velocity.Course / degToRad
	if diff := course - 90; diff > 0.01 || diff < -0.01 {
		t.Errorf("expected course 90, got %f", course)
	}
}

func TestStartStop(t *testing.T) {
	sim := createTestSimulatorWith(t, createTestConfig())

	if err := sim.Stop(); !errors.Is(err, ErrSimulatorNotRunning) {
		t.Errorf("expected ErrSimulatorNotRunning, got %v", err)
	}
	if err := sim.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sim.IsRunning() {
		t.Error("simulator should be running")
	}
	if err := sim.Start(); !errors.Is(err, ErrSimulatorAlreadyRunning) {
		t.Errorf("expected ErrSimulatorAlreadyRunning, got %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
	if sim.IsRunning() {
		t.Error("simulator should be stopped")
	}
}

func TestHandlersReceiveSolutions(t *testing.T) {
	config := createTestConfig()
	config.Duration = 200 * time.Millisecond
	sim := createTestSimulatorWith(t, config)

	var count atomic.Int32
	sim.AddHandler(func(sol *pvt.Solution) {
		count.Add(1)
	})

	if err := sim.Run(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if sim.IsRunning() {
		t.Error("simulator should stop after its duration")
	}
	if count.Load() == 0 {
		t.Error("expected at least one solution")
	}
	if got := sim.Status().Epochs; got != uint64(count.Load()) {
		t.Errorf("status reports %d epochs, handlers saw %d", got, count.Load())
	}
}

func TestStatus(t *testing.T) {
	sim := createTestSimulatorWith(t, createTestConfig())
	if _, err := sim.Step(sim.startTime.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	status := sim.Status()
	if status.Running {
		t.Error("simulator was never started")
	}
	if len(status.Position.Satellites) != 12 {
		t.Errorf("expected 12 satellites in status, got %d", len(status.Position.Satellites))
	}
	if status.Position.Satellites[8].Constellation != "GLO" || status.Position.Satellites[8].ID != 65 {
		t.Errorf("expected first GLONASS satellite to be GLO 65, got %+v", status.Position.Satellites[8])
	}
	if !status.Position.IsLocked || status.Epochs != 1 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestUpdateConfig(t *testing.T) {
	sim := createTestSimulatorWith(t, createTestConfig())

	config := createTestConfig()
	config.Speed = 5
	config.Sky = Sky{GPS: 30}
	if err := sim.UpdateConfig(config); err != nil {
		t.Fatal(err)
	}
	if sim.config.Speed != 5 {
		t.Errorf("expected speed 5, got %f", sim.config.Speed)
	}
	if sim.config.Sky != (Sky{GPS: 8, GLONASS: 4}) {
		t.Errorf("sky should be kept, got %+v", sim.config.Sky)
	}

	config.Jitter = 2
	if err := sim.UpdateConfig(config); !errors.Is(err, ErrInvalidJitter) {
		t.Errorf("expected ErrInvalidJitter, got %v", err)
	}
}

func TestTrackRecording(t *testing.T) {
	config := createTestConfig()
	config.TrackFile = filepath.Join(t.TempDir(), "track.gpx")
	config.Duration = 100 * time.Millisecond
	sim := createTestSimulatorWith(t, config)

	if err := sim.Run(testContext(t)); err != nil {
		t.Fatal(err)
	}

	points, err := ReadTrack(config.TrackFile)
	if err != nil {
		t.Fatalf("track should be readable after the run: %v", err)
	}
	if uint64(len(points)) != sim.Status().Epochs {
		t.Errorf("expected one track point per locked epoch, got %d for %d epochs", len(points), sim.Status().Epochs)
	}
}

func replayFile(t *testing.T, timed bool) string {
	t.Helper()
	gpx := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg>`
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		stamp := base
		if timed {
			stamp = base.Add(time.Duration(i*10) * time.Second)
		}
		gpx += fmt.Sprintf(`<trkpt lat="%f" lon="-122.4194"><ele>%d</ele><time>%s</time></trkpt>`,
			37.7749+float64(i)*0.001, 10+i, stamp.Format(time.RFC3339))
	}
	gpx += `</trkseg></trk></gpx>`
	return writeTestFile(t, "replay.gpx", gpx)
}

func TestNewSimulatorWithReplay(t *testing.T) {
	config := createTestConfig()
	config.ReplayFile = replayFile(t, true)
	sim := createTestSimulatorWith(t, config)

	if sim.currentLat != 37.7749 || sim.currentAlt != 10 {
		t.Errorf("expected to start at the first track point, got %f %f", sim.currentLat, sim.currentAlt)
	}
	if sim.Status().ReplayTotal != 4 {
		t.Errorf("expected 4 replay points, got %d", sim.Status().ReplayTotal)
	}

	config.ReplayFile = filepath.Join(t.TempDir(), "missing.gpx")
	if _, err := NewSimulator(config, nil); err == nil {
		t.Error("expected error for missing replay file")
	}
}

func TestReplayWithSequentialTimestamps(t *testing.T) {
	config := createTestConfig()
	config.ReplayFile = replayFile(t, true)
	config.ReplaySpeed = 2
	sim := createTestSimulatorWith(t, config)
	start := sim.startTime

	// 6 s at 2x is 12 s into a track with points every 10 s
	if _, err := sim.Step(start.Add(6 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if sim.replayIndex != 1 {
		t.Errorf("expected replay index 1, got %d", sim.replayIndex)
	}
	if sim.currentAlt != 11 {
		t.Errorf("expected altitude of point 1, got %f", sim.currentAlt)
	}
	expectedKnots := distance(37.7759, -122.4194, 37.7769, -122.4194) / 10 / knotsToMS
	if diff := sim.currentSpeed - expectedKnots; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected %f knots, got %f", expectedKnots, sim.currentSpeed)
	}
	if sim.currentCourse > 0.01 && sim.currentCourse < 359.99 {
		t.Errorf("expected a northbound course, got %f", sim.currentCourse)
	}

	if _, err := sim.Step(start.Add(20 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if !sim.replayCompleted {
		t.Error("replay should be completed past the last timestamp")
	}
	if sim.currentAlt != 13 || sim.currentSpeed != 0 {
		t.Errorf("expected to hold the last point, got alt %f speed %f", sim.currentAlt, sim.currentSpeed)
	}
}

func TestReplayWithoutTimestamps(t *testing.T) {
	config := createTestConfig()
	config.ReplayFile = replayFile(t, false)
	config.ReplayLoop = true
	sim := createTestSimulatorWith(t, config)
	start := sim.startTime

	tests := []struct {
		elapsed time.Duration
		index   int
	}{
		{0, 0},
		{1500 * time.Millisecond, 1},
		{3 * time.Second, 3},
		{5 * time.Second, 1},
	}
	for _, tt := range tests {
		if _, err := sim.Step(start.Add(tt.elapsed)); err != nil {
			t.Fatal(err)
		}
		if sim.replayIndex != tt.index {
			t.Errorf("after %v expected index %d, got %d", tt.elapsed, tt.index, sim.replayIndex)
		}
	}
}

func TestReplayStopsWhenComplete(t *testing.T) {
	config := createTestConfig()
	config.ReplayFile = replayFile(t, true)
	config.ReplaySpeed = 1000
	config.Duration = 5 * time.Second
	sim := createTestSimulatorWith(t, config)

	began := time.Now()
	if err := sim.Run(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if time.Since(began) >= config.Duration {
		t.Error("non-looping replay should stop before the duration elapses")
	}
	if !sim.Status().ReplayCompleted {
		t.Error("replay should be marked completed")
	}
}
