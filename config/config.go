// Package config loads the application configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
	"github.com/Bucknalla/go-pvt-nmea/pvt"
	"github.com/Bucknalla/go-pvt-nmea/sim"
	"github.com/Bucknalla/go-pvt-nmea/sink"
	"github.com/Bucknalla/go-pvt-nmea/web"
)

type Config struct {
	Output OutputConfig `yaml:"output"`
	Sim    sim.Config   `yaml:"sim"`
	Sinks  SinksConfig  `yaml:"sinks"`
	Web    web.Config   `yaml:"web"`
	Log    LogConfig    `yaml:"log"`
}

type OutputConfig struct {
	// Constellations in talker priority order. Empty means all of them.
	Constellations []string `yaml:"constellations"`

	// Intervals maps sentence names to an output interval in epochs.
	// Empty means every sentence on every epoch.
	Intervals map[string]int             `yaml:"intervals"`
	Leap      *gnsstime.LeapSecondParams `yaml:"leap"`
}

type SinksConfig struct {
	Stdout bool                `yaml:"stdout"`
	Serial sink.SerialConfig   `yaml:"serial"`
	UDP    UDPConfig           `yaml:"udp"`
	MQTT   sink.MQTTConfig     `yaml:"mqtt"`
	Record sink.RecorderConfig `yaml:"record"`
}

type UDPConfig struct {
	Dest string `yaml:"dest"` // host:port
}

type LogConfig struct {
	Level string `yaml:"level"`
	Quiet bool   `yaml:"quiet"`
}

const (
	defaultBaud      = 9600
	defaultMQTTTopic = "pvt/nmea"
	defaultClientID  = "go-pvt-nmea"
)

// Default is the configuration used when no file is given
func Default() Config {
	return Config{
		Sim:   sim.DefaultConfig(),
		Sinks: SinksConfig{Stdout: true, Serial: sink.SerialConfig{Baud: defaultBaud}},
		Web:   web.DefaultConfig(),
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Sinks.Serial.Baud <= 0 {
		cfg.Sinks.Serial.Baud = defaultBaud
	}
	if cfg.Sinks.MQTT.Broker != "" {
		if cfg.Sinks.MQTT.Topic == "" {
			cfg.Sinks.MQTT.Topic = defaultMQTTTopic
		}
		if cfg.Sinks.MQTT.ClientID == "" {
			cfg.Sinks.MQTT.ClientID = defaultClientID
		}
	}
	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = web.DefaultConfig().Listen
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := c.Engine(); err != nil {
		return err
	}
	simCfg := c.SimConfig()
	if err := simCfg.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if c.Sinks.MQTT.QoS > 2 {
		return fmt.Errorf("sinks.mqtt.qos must be 0, 1 or 2")
	}
	if c.Sinks.Record.Enable && c.Sinks.Record.Pattern == "" {
		return fmt.Errorf("sinks.record.pattern is required when sinks.record.enable is true")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Engine builds the epoch pipeline configuration from the output section
func (c *Config) Engine() (pvt.EngineConfig, error) {
	cfg := pvt.DefaultEngineConfig()

	if len(c.Output.Constellations) > 0 {
		cfg.Output.Constellations = nil
		for _, name := range c.Output.Constellations {
			cons, err := nmea.ParseConstellation(name)
			if err != nil {
				return pvt.EngineConfig{}, fmt.Errorf("output.constellations: %w", err)
			}
			cfg.Output.Constellations = append(cfg.Output.Constellations, cons)
		}
	}

	if len(c.Output.Intervals) > 0 {
		schedule, err := pvt.ScheduleFromMap(c.Output.Intervals)
		if err != nil {
			return pvt.EngineConfig{}, fmt.Errorf("output.intervals: %w", err)
		}
		cfg.Schedule = schedule
	}

	if c.Output.Leap != nil {
		leap := *c.Output.Leap
		cfg.Leap = &leap
	}

	if err := cfg.Validate(); err != nil {
		return pvt.EngineConfig{}, fmt.Errorf("output: %w", err)
	}
	return cfg, nil
}

// SimConfig returns the simulator section with the output leap parameters
// applied, so simulated GPS time and composed UTC agree
func (c *Config) SimConfig() sim.Config {
	cfg := c.Sim
	if c.Output.Leap != nil {
		leap := *c.Output.Leap
		cfg.Leap = &leap
	}
	return cfg
}
