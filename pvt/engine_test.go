package pvt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
)

func sentenceIDs(out []byte) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimSuffix(string(out), "\r\n"), "\r\n") {
		ids = append(ids, line[1:6])
	}
	return ids
}

func TestEngineProcessSchedule(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Schedule = Schedule{}
	cfg.Schedule[nmea.GGA] = 1
	cfg.Schedule[nmea.RMC] = 2

	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	out, err := engine.Process(createTestSolution())
	require.NoError(t, err)
	assert.Equal(t, []string{"GPGGA", "GPRMC"}, sentenceIDs(out))

	out, err = engine.Process(createTestSolution())
	require.NoError(t, err)
	assert.Equal(t, []string{"GPGGA"}, sentenceIDs(out))

	status := engine.Status()
	assert.Equal(t, uint64(2), status.Epochs)
	assert.Equal(t, uint64(2), status.Emitted)
	assert.Equal(t, "3d", status.Fix.Quality)
	assert.InDelta(t, 48.1173, status.Fix.Latitude, 1e-9)
	assert.InDelta(t, 5*3600.0/1852, status.Fix.Speed, 1e-6)
	assert.InDelta(t, 90, status.Fix.Course, 1e-6)
	require.NotNil(t, status.Fix.Grid)
	assert.Equal(t, 32, status.Fix.Grid.Zone)
	assert.Equal(t, "N", status.Fix.Grid.Hemisphere)
}

func TestEngineNothingDue(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Schedule = Schedule{}
	cfg.Schedule[nmea.ZDA] = 3

	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	_, err = engine.Process(createTestSolution())
	require.NoError(t, err)
	out, err := engine.Process(createTestSolution())
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, uint64(1), engine.Status().Emitted)
}

func TestEngineSkipsBadEpoch(t *testing.T) {
	var logs bytes.Buffer
	engine, err := NewEngine(DefaultEngineConfig(), log.New(&logs))
	require.NoError(t, err)

	sol := createTestSolution()
	sol.GpsWeek = -1
	_, err = engine.Process(sol)
	assert.ErrorIs(t, err, gnsstime.ErrOutOfRange)

	status := engine.Status()
	assert.Equal(t, uint64(1), status.Skipped)
	assert.NotEmpty(t, status.LastError)
	assert.Contains(t, logs.String(), "epoch skipped")

	out, err := engine.Process(createTestSolution())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestEngineKeepsRotationOnDegenerateEpoch(t *testing.T) {
	var logs bytes.Buffer
	engine, err := NewEngine(DefaultEngineConfig(), log.New(&logs))
	require.NoError(t, err)

	good := createTestSolution()
	_, err = engine.Process(good)
	require.NoError(t, err)
	expected, _ := geodesy.CalcConvMatrix(good.State.Position, geodesy.Identity())

	bad := createTestSolution()
	bad.State.Position = geodesy.ECEF{}
	_, err = engine.Process(bad)
	require.NoError(t, err)

	assert.Equal(t, expected, engine.rotation)
	assert.Equal(t, uint64(1), engine.Status().Degenerate)
	assert.Contains(t, logs.String(), "geocenter")
}

func TestEngineSetLeapSeconds(t *testing.T) {
	engine, err := NewEngine(DefaultEngineConfig(), nil)
	require.NoError(t, err)

	err = engine.SetLeapSeconds(gnsstime.LeapSecondParams{TLS: 18, TLSF: 19, DN: 0, Valid: true})
	assert.ErrorIs(t, err, gnsstime.ErrOutOfRange)

	require.NoError(t, engine.SetLeapSeconds(gnsstime.LeapSecondParams{TLS: 17, TLSF: 17, Valid: true}))
	_, err = engine.Process(createTestSolution())
	require.NoError(t, err)
	assert.Equal(t, 43, engine.Snapshot().Time.Second)
}

func TestEngineReset(t *testing.T) {
	engine, err := NewEngine(DefaultEngineConfig(), nil)
	require.NoError(t, err)

	_, err = engine.Process(createTestSolution())
	require.NoError(t, err)
	engine.Reset()

	assert.Equal(t, Status{}, engine.Status())
	assert.Equal(t, geodesy.Identity(), engine.rotation)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Output.Constellations = nil
	_, err := NewEngine(cfg, nil)
	assert.ErrorIs(t, err, nmea.ErrInvalidInput)

	cfg = DefaultEngineConfig()
	cfg.Schedule = Schedule{}
	_, err = NewEngine(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}
