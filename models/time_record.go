package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeRecord is a span of work one user logged against one project.
type TimeRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user"`
	ProjectID   int64     `json:"project"`
	ProjectName string    `json:"project_name"` // Joined from projects, read-only
	Description *string   `json:"description"`
	TimeStarted time.Time `json:"time_started"`
	TimeEnded   time.Time `json:"time_ended"`
	Duration    Duration  `json:"duration"`
}

// ComputeDuration derives Duration from the two timestamps.
// It runs on every write, so a caller-supplied duration never survives.
func (t *TimeRecord) ComputeDuration() {
	t.Duration = Between(t.TimeStarted, t.TimeEnded)
}

// Duration counts microseconds and renders as "[D day[s], ]H:MM:SS[.ffffff]".
// Unlike time.Duration it spans any pair of RFC 3339 timestamps without saturating.
type Duration int64

const (
	microsPerSecond = int64(time.Second / time.Microsecond)
	microsPerDay    = 24 * 60 * 60 * microsPerSecond
)

// Between returns end minus start, truncated to whole microseconds.
func Between(start, end time.Time) Duration {
	secs := end.Unix() - start.Unix()
	micros := int64(end.Nanosecond()/1000) - int64(start.Nanosecond()/1000)
	return Duration(secs*microsPerSecond + micros)
}

// Microseconds returns the storage representation.
func (d Duration) Microseconds() int64 {
	return int64(d)
}

// DurationFromMicroseconds is the inverse of Microseconds.
func DurationFromMicroseconds(us int64) Duration {
	return Duration(us)
}

func (d Duration) String() string {
	us := d.Microseconds()

	// Days floor toward negative infinity so the clock part is never negative.
	days := us / microsPerDay
	rem := us % microsPerDay
	if rem < 0 {
		days--
		rem += microsPerDay
	}

	secs := rem / microsPerSecond
	micros := rem % microsPerSecond
	hours, minutes, seconds := secs/3600, (secs%3600)/60, secs%60

	s := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	if days != 0 {
		unit := "days"
		if days == 1 || days == -1 {
			unit = "day"
		}
		s = fmt.Sprintf("%d %s, %s", days, unit, s)
	}
	if micros != 0 {
		s += fmt.Sprintf(".%06d", micros)
	}
	return s
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
