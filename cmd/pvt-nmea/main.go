package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/Bucknalla/go-pvt-nmea/config"
	"github.com/Bucknalla/go-pvt-nmea/pvt"
	"github.com/Bucknalla/go-pvt-nmea/sim"
	"github.com/Bucknalla/go-pvt-nmea/sink"
	"github.com/Bucknalla/go-pvt-nmea/web"
)

// Version information - populated at build time via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	showVersion bool
	listPorts   bool
	gpx         bool
}

// newFlagSet binds the command line onto a copy of the defaults. Only flags
// the user actually sets are applied over the loaded file.
func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *options, *config.Config) {
	fs := pflag.NewFlagSet("pvt-nmea", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	f := config.Default()

	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information and exit")
	fs.BoolVar(&opts.listPorts, "list-ports", false, "List serial ports and exit")
	fs.BoolVar(&opts.gpx, "gpx", false, "Record a GPX track with a timestamp-based filename (requires --duration)")

	fs.Float64Var(&f.Sim.Latitude, "lat", f.Sim.Latitude, "Initial latitude (decimal degrees)")
	fs.Float64Var(&f.Sim.Longitude, "lon", f.Sim.Longitude, "Initial longitude (decimal degrees)")
	fs.Float64Var(&f.Sim.Radius, "radius", f.Sim.Radius, "Wandering radius in meters")
	fs.Float64Var(&f.Sim.Altitude, "altitude", f.Sim.Altitude, "Starting altitude in meters")
	fs.Float64Var(&f.Sim.Jitter, "jitter", f.Sim.Jitter, "Position jitter factor (0.0=stable, 1.0=high jitter)")
	fs.Float64Var(&f.Sim.AltitudeJitter, "altitude-jitter", f.Sim.AltitudeJitter, "Altitude jitter factor (0.0=stable, 1.0=high variation)")
	fs.Float64Var(&f.Sim.Speed, "speed", f.Sim.Speed, "Static speed in knots")
	fs.Float64Var(&f.Sim.Course, "course", f.Sim.Course, "Static course in degrees (0-359)")
	fs.IntVar(&f.Sim.Sky.GPS, "gps", f.Sim.Sky.GPS, "Simulated GPS satellites")
	fs.IntVar(&f.Sim.Sky.BeiDou, "beidou", f.Sim.Sky.BeiDou, "Simulated BeiDou satellites")
	fs.IntVar(&f.Sim.Sky.Galileo, "galileo", f.Sim.Sky.Galileo, "Simulated Galileo satellites")
	fs.IntVar(&f.Sim.Sky.GLONASS, "glonass", f.Sim.Sky.GLONASS, "Simulated GLONASS satellites")
	fs.Float64Var(&f.Sim.ElevationMask, "elevation-mask", f.Sim.ElevationMask, "Elevation mask in degrees")
	fs.DurationVar(&f.Sim.TimeToLock, "lock-time", f.Sim.TimeToLock, "Time to first fix")
	fs.DurationVar(&f.Sim.OutputRate, "rate", f.Sim.OutputRate, "Epoch rate")
	fs.DurationVar(&f.Sim.Duration, "duration", f.Sim.Duration, "How long to run (e.g. 30s, 5m, 1h). Default is indefinite")
	fs.StringVar(&f.Sim.ReplayFile, "replay", f.Sim.ReplayFile, "GPX file to replay instead of simulating")
	fs.Float64Var(&f.Sim.ReplaySpeed, "replay-speed", f.Sim.ReplaySpeed, "Replay speed multiplier")
	fs.BoolVar(&f.Sim.ReplayLoop, "replay-loop", f.Sim.ReplayLoop, "Loop the GPX replay continuously")
	fs.Int64Var(&f.Sim.Seed, "seed", f.Sim.Seed, "Random seed, 0 seeds from the clock")

	fs.StringSliceVar(&f.Output.Constellations, "constellations", nil, "Constellations in talker priority order (gps,bds,gal,glo)")

	fs.BoolVar(&f.Sinks.Stdout, "stdout", f.Sinks.Stdout, "Write sentences to stdout")
	fs.StringVar(&f.Sinks.Serial.Port, "serial", "", "Serial port for output (e.g. /dev/ttyUSB0, COM1)")
	fs.IntVar(&f.Sinks.Serial.Baud, "baud", f.Sinks.Serial.Baud, "Serial port baud rate")
	fs.StringVar(&f.Sinks.UDP.Dest, "udp", "", "UDP destination host:port")
	fs.StringVar(&f.Sinks.MQTT.Broker, "mqtt", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	fs.StringVar(&f.Sinks.MQTT.Topic, "mqtt-topic", "pvt/nmea", "MQTT topic")
	fs.StringVar(&f.Sinks.Record.Pattern, "record", "", "Record output to files named by an strftime pattern")

	fs.StringVar(&f.Web.Listen, "web", f.Web.Listen, "Serve the live view on this address")

	fs.StringVar(&f.Log.Level, "log-level", f.Log.Level, "Log level (debug, info, warn, error)")
	fs.BoolVarP(&f.Log.Quiet, "quiet", "q", false, "Suppress info messages (only output sentences)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pvt-nmea [options]\n\n")
		fmt.Fprintf(stderr, "Composes NMEA0183 sentences from a simulated GNSS receiver.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	return fs, opts, &f
}

// applyFlags copies the flags set on the command line from f into cfg
func applyFlags(fs *pflag.FlagSet, f, cfg *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}

	set("lat", func() { cfg.Sim.Latitude = f.Sim.Latitude })
	set("lon", func() { cfg.Sim.Longitude = f.Sim.Longitude })
	set("radius", func() { cfg.Sim.Radius = f.Sim.Radius })
	set("altitude", func() { cfg.Sim.Altitude = f.Sim.Altitude })
	set("jitter", func() { cfg.Sim.Jitter = f.Sim.Jitter })
	set("altitude-jitter", func() { cfg.Sim.AltitudeJitter = f.Sim.AltitudeJitter })
	set("speed", func() { cfg.Sim.Speed = f.Sim.Speed })
	set("course", func() { cfg.Sim.Course = f.Sim.Course })
	set("gps", func() { cfg.Sim.Sky.GPS = f.Sim.Sky.GPS })
	set("beidou", func() { cfg.Sim.Sky.BeiDou = f.Sim.Sky.BeiDou })
	set("galileo", func() { cfg.Sim.Sky.Galileo = f.Sim.Sky.Galileo })
	set("glonass", func() { cfg.Sim.Sky.GLONASS = f.Sim.Sky.GLONASS })
	set("elevation-mask", func() { cfg.Sim.ElevationMask = f.Sim.ElevationMask })
	set("lock-time", func() { cfg.Sim.TimeToLock = f.Sim.TimeToLock })
	set("rate", func() { cfg.Sim.OutputRate = f.Sim.OutputRate })
	set("duration", func() { cfg.Sim.Duration = f.Sim.Duration })
	set("replay", func() { cfg.Sim.ReplayFile = f.Sim.ReplayFile })
	set("replay-speed", func() { cfg.Sim.ReplaySpeed = f.Sim.ReplaySpeed })
	set("replay-loop", func() { cfg.Sim.ReplayLoop = f.Sim.ReplayLoop })
	set("seed", func() { cfg.Sim.Seed = f.Sim.Seed })
	set("constellations", func() { cfg.Output.Constellations = f.Output.Constellations })
	set("stdout", func() { cfg.Sinks.Stdout = f.Sinks.Stdout })
	set("serial", func() {
		cfg.Sinks.Serial.Port = f.Sinks.Serial.Port
		// the serial port replaces stdout unless both are asked for
		if !fs.Changed("stdout") {
			cfg.Sinks.Stdout = false
		}
	})
	set("baud", func() { cfg.Sinks.Serial.Baud = f.Sinks.Serial.Baud })
	set("udp", func() { cfg.Sinks.UDP.Dest = f.Sinks.UDP.Dest })
	set("mqtt", func() { cfg.Sinks.MQTT.Broker = f.Sinks.MQTT.Broker })
	set("mqtt-topic", func() { cfg.Sinks.MQTT.Topic = f.Sinks.MQTT.Topic })
	set("record", func() {
		cfg.Sinks.Record.Pattern = f.Sinks.Record.Pattern
		cfg.Sinks.Record.Enable = f.Sinks.Record.Pattern != ""
	})
	set("web", func() {
		cfg.Web.Listen = f.Web.Listen
		cfg.Web.Enable = true
	})
	set("log-level", func() { cfg.Log.Level = f.Log.Level })
	set("quiet", func() { cfg.Log.Quiet = f.Log.Quiet })

	if cfg.Sinks.MQTT.Broker != "" {
		if cfg.Sinks.MQTT.ClientID == "" {
			cfg.Sinks.MQTT.ClientID = "go-pvt-nmea"
		}
		if cfg.Sinks.MQTT.Topic == "" {
			cfg.Sinks.MQTT.Topic = f.Sinks.MQTT.Topic
		}
	}
}

// loadConfig reads the configuration file if one was given and applies the
// command line over it
func loadConfig(fs *pflag.FlagSet, opts *options, f *config.Config, now time.Time) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, fmt.Errorf("loading %s: %w", opts.configPath, err)
		}
	}
	applyFlags(fs, f, &cfg)

	if opts.gpx {
		if cfg.Sim.Duration <= 0 {
			return config.Config{}, errors.New("duration greater than 0 must be specified when using --gpx (e.g. --duration 30s)")
		}
		cfg.Sim.TrackFile = fmt.Sprintf("%s.gpx", now.Format("20060102_150405"))
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "pvt-nmea",
	})
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if cfg.Quiet && level < log.WarnLevel {
		level = log.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// openSinks opens every configured output. Sinks opened before a failure are
// closed again.
func openSinks(cfg config.SinksConfig, stdout io.Writer, logger *log.Logger) (*sink.Multi, error) {
	out := &sink.Multi{}
	fail := func(name string, err error) (*sink.Multi, error) {
		out.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if cfg.Stdout {
		out.Add("stdout", sink.NewWriter(stdout))
	}
	if cfg.Serial.Port != "" {
		port, err := sink.OpenSerial(cfg.Serial)
		if err != nil {
			return fail("serial", err)
		}
		out.Add("serial", port)
		logger.Info("opened serial port", "port", cfg.Serial.Port, "baud", cfg.Serial.Baud)
	}
	if cfg.UDP.Dest != "" {
		udp, err := sink.NewUDP(cfg.UDP.Dest)
		if err != nil {
			return fail("udp", err)
		}
		out.Add("udp", udp)
		logger.Info("sending UDP", "dest", cfg.UDP.Dest)
	}
	if cfg.MQTT.Broker != "" {
		client, err := sink.NewMQTT(cfg.MQTT)
		if err != nil {
			return fail("mqtt", err)
		}
		out.Add("mqtt", client)
		logger.Info("publishing to MQTT", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	}
	if cfg.Record.Enable {
		rec, err := sink.NewRecorder(cfg.Record.Pattern)
		if err != nil {
			return fail("record", err)
		}
		out.Add("record", rec)
		logger.Info("recording output", "pattern", cfg.Record.Pattern)
	}

	if out.Len() == 0 {
		return fail("sinks", sink.ErrNoDestination)
	}
	return out, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, opts, flags := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		if Version != "dev" {
			fmt.Fprintf(stdout, "v%s\n", Version)
		} else {
			fmt.Fprintf(stdout, "%s\n", Commit)
		}
		return 0
	}

	if opts.listPorts {
		ports, err := sink.SerialPorts()
		if err != nil {
			fmt.Fprintf(stderr, "listing serial ports: %v\n", err)
			return 1
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p)
		}
		return 0
	}

	cfg, err := loadConfig(fs, opts, flags, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := newLogger(stderr, cfg.Log)
	if err := pipeline(ctx, cfg, stdout, logger); err != nil {
		logger.Error("exiting", "err", err)
		return 1
	}
	return 0
}

// pipeline wires simulator, engine and sinks and runs until ctx is done or
// the simulation ends. With the web server enabled it runs until ctx is done.
func pipeline(ctx context.Context, cfg config.Config, stdout io.Writer, logger *log.Logger) error {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	engine, err := pvt.NewEngine(engineCfg, logger.WithPrefix("pvt"))
	if err != nil {
		return err
	}

	out, err := openSinks(cfg.Sinks, stdout, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("closing sinks", "err", err)
		}
	}()

	simCfg := cfg.SimConfig()
	simulator, err := sim.NewSimulator(simCfg, logger.WithPrefix("sim"))
	if err != nil {
		return err
	}

	var server *web.Server
	handler := func(sol *pvt.Solution) {
		b, err := engine.Process(sol)
		if err != nil || b == nil {
			return
		}
		if err := out.Send(b); err != nil {
			logger.Warn("output failed", "err", err)
		}
		if server != nil {
			server.Publish(b, engine.Status().Fix)
		}
	}
	simulator.AddHandler(handler)

	if simCfg.ReplayFile != "" {
		logger.Info("replaying track", "file", simCfg.ReplayFile, "speed", simCfg.ReplaySpeed)
	} else {
		logger.Info("simulating receiver",
			"lat", simCfg.Latitude, "lon", simCfg.Longitude, "alt", simCfg.Altitude,
			"radius", simCfg.Radius, "speed", simCfg.Speed, "course", simCfg.Course)
	}
	if simCfg.TrackFile != "" {
		logger.Info("recording GPX track", "file", simCfg.TrackFile)
	}

	if !cfg.Web.Enable {
		return simulator.Run(ctx)
	}

	server = web.NewServer(cfg.Web, engine, handler, logger.WithPrefix("web"))
	server.Attach(simulator, simCfg)

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe(ctx)
	}()
	if err := simulator.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	if stopErr := server.StopSimulator(); stopErr != nil && !errors.Is(stopErr, sim.ErrSimulatorNotRunning) {
		logger.Warn("stopping simulator", "err", stopErr)
	}
	return err
}
