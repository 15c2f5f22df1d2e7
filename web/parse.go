package web

import (
	"time"

	"github.com/Bucknalla/go-pvt-nmea/sim"
)

// parseConfig overlays the fields present in a decoded JSON object on base.
// Fields of the wrong type are ignored.
func parseConfig(body map[string]interface{}, base sim.Config) sim.Config {
	config := base

	getFloat := func(m map[string]interface{}, key string, def float64) float64 {
		if f, ok := m[key].(float64); ok {
			return f
		}
		return def
	}
	getInt := func(m map[string]interface{}, key string, def int) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return def
	}
	getBool := func(key string, def bool) bool {
		if b, ok := body[key].(bool); ok {
			return b
		}
		return def
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		if s, ok := body[key].(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d
			}
		}
		return def
	}

	config.Latitude = getFloat(body, "latitude", config.Latitude)
	config.Longitude = getFloat(body, "longitude", config.Longitude)
	config.Radius = getFloat(body, "radius", config.Radius)
	config.Altitude = getFloat(body, "altitude", config.Altitude)
	config.Jitter = getFloat(body, "jitter", config.Jitter)
	config.AltitudeJitter = getFloat(body, "altitude_jitter", config.AltitudeJitter)
	config.Speed = getFloat(body, "speed", config.Speed)
	config.Course = getFloat(body, "course", config.Course)
	config.ElevationMask = getFloat(body, "elevation_mask", config.ElevationMask)
	config.TimeToLock = getDuration("time_to_lock", config.TimeToLock)
	config.OutputRate = getDuration("output_rate", config.OutputRate)
	config.Duration = getDuration("duration", config.Duration)
	config.ReplaySpeed = getFloat(body, "replay_speed", config.ReplaySpeed)
	config.ReplayLoop = getBool("replay_loop", config.ReplayLoop)

	if sky, ok := body["sky"].(map[string]interface{}); ok {
		config.Sky.GPS = getInt(sky, "gps", config.Sky.GPS)
		config.Sky.BeiDou = getInt(sky, "beidou", config.Sky.BeiDou)
		config.Sky.Galileo = getInt(sky, "galileo", config.Sky.Galileo)
		config.Sky.GLONASS = getInt(sky, "glonass", config.Sky.GLONASS)
	}

	return config
}
