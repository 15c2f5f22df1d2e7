package pvt

import (
	"fmt"

	"github.com/Bucknalla/go-pvt-nmea/nmea"
)

// Schedule holds the output interval of each sentence type in epochs. An
// interval of 0 disables the sentence; 1 emits it every epoch.
type Schedule [nmea.NumSentences]int

// EverySentence emits every sentence type on every epoch
func EverySentence() Schedule {
	var s Schedule
	for i := range s {
		s[i] = 1
	}
	return s
}

// ScheduleFromMap builds a schedule from sentence names to intervals.
// Sentences missing from m are disabled.
func ScheduleFromMap(m map[string]int) (Schedule, error) {
	var s Schedule
	for name, interval := range m {
		sentence, err := nmea.ParseSentence(name)
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		s[sentence] = interval
	}
	return s, s.Validate()
}

// Validate rejects negative intervals and a schedule that never emits
func (s Schedule) Validate() error {
	var enabled bool
	for i, interval := range s {
		if interval < 0 {
			return fmt.Errorf("%w: %s interval %d", ErrInvalidSchedule, nmea.Sentence(i), interval)
		}
		enabled = enabled || interval > 0
	}
	if !enabled {
		return fmt.Errorf("%w: every sentence disabled", ErrInvalidSchedule)
	}
	return nil
}

// Mask returns the sentences due on the given epoch count. Epoch 0 emits
// every enabled sentence.
func (s Schedule) Mask(epoch uint64) nmea.SentenceMask {
	var m nmea.SentenceMask
	for i, interval := range s {
		if interval > 0 && epoch%uint64(interval) == 0 {
			m |= nmea.MaskOf(nmea.Sentence(i))
		}
	}
	return m
}
