package sim

import "time"

// replayInterval is the point spacing used when a track has no usable
// timestamps
const replayInterval = time.Second

// updateReplayPosition moves to the track point due at now. Tracks with
// ordered timestamps are replayed on their own clock scaled by ReplaySpeed;
// other tracks advance one point per replayInterval.
func (s *Simulator) updateReplayPosition(now time.Time) {
	n := len(s.replayPoints)
	if n == 0 {
		return
	}

	elapsed := now.Sub(s.replayStartTime)
	scaled := time.Duration(float64(elapsed) * s.config.ReplaySpeed)
	timed := s.hasSequentialTimestamps()

	if timed {
		target := s.replayPoints[0].Time.Add(scaled)
		if target.After(s.replayPoints[n-1].Time) {
			s.replayIndex = n
		} else {
			idx := 0
			for i := range s.replayPoints {
				if s.replayPoints[i].Time.After(target) {
					break
				}
				idx = i
			}
			s.replayIndex = idx
		}
	} else {
		s.replayIndex = int(scaled / replayInterval)
		if s.config.ReplayLoop {
			s.replayIndex %= n
		}
	}

	if s.replayIndex >= n {
		s.replayCompleted = true
		if s.config.ReplayLoop {
			s.replayIndex = 0
			s.replayStartTime = now
		} else {
			s.replayIndex = n - 1
		}
	}

	cur := s.replayPoints[s.replayIndex]
	s.currentLat = cur.Lat
	s.currentLon = cur.Lon
	s.currentAlt = cur.Elevation

	if s.replayIndex == n-1 {
		// hold the last point
		s.currentSpeed = 0
		return
	}
	next := s.replayPoints[s.replayIndex+1]

	dt := replayInterval.Seconds()
	if timed {
		dt = next.Time.Sub(cur.Time).Seconds()
	}
	if dt > 0 {
		s.currentSpeed = distance(cur.Lat, cur.Lon, next.Lat, next.Lon) / dt / knotsToMS
		s.currentCourse = initialBearing(cur.Lat, cur.Lon, next.Lat, next.Lon)
	}
}

// hasSequentialTimestamps reports whether track times never decrease and span
// a non-zero interval
func (s *Simulator) hasSequentialTimestamps() bool {
	n := len(s.replayPoints)
	if n < 2 || !s.replayPoints[n-1].Time.After(s.replayPoints[0].Time) {
		return false
	}
	for i := 1; i < len(s.replayPoints); i++ {
		if s.replayPoints[i].Time.Before(s.replayPoints[i-1].Time) {
			return false
		}
	}
	return true
}
