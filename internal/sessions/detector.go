// Package sessions derives discrete heating episodes from a sensor's
// temperature stream with a threshold/hysteresis state machine.
package sessions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"homeenergy/internal/database"
	"homeenergy/pkg/models"
)

// Detection thresholds. DurationMinutes includes the cooldown window, so it
// overstates active heating time; warm ambient days can cross the heating
// threshold and register as false positives. Both are accepted limitations.
const (
	HeatingThresholdC = 35.0
	HotThresholdC     = 55.0
	CoolingThresholdC = 40.0
	CooldownWindow    = 2 * time.Hour
)

// SessionStateError rejects a detection run whose input stream is not in
// timestamp order. Ordering is a precondition, not best-effort.
type SessionStateError struct {
	SensorID string
	At       time.Time
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("temperature stream for %q out of order at %s", e.SensorID, e.At.Format(time.RFC3339))
}

// state is the detector's position in the heating cycle.
type state int

const (
	stateIdle state = iota
	stateHeating
	stateHot
	stateCooling
)

// detector carries the in-flight session while scanning one stream.
type detector struct {
	state     state
	start     time.Time
	peak      float64
	belowFrom time.Time // start of the current continuous sub-40 run
	sessions  []models.ThermalSession
}

// Detect scans readings in timestamp order and returns the closed sessions.
// A session still cooling when the stream ends is not emitted; a later run
// over the extended range will close it.
func Detect(sensorID string, readings []models.TemperatureReading) ([]models.ThermalSession, error) {
	var prev time.Time
	for i := range readings {
		if i > 0 && readings[i].Timestamp.Before(prev) {
			return nil, &SessionStateError{SensorID: sensorID, At: readings[i].Timestamp}
		}
		prev = readings[i].Timestamp
	}

	d := &detector{state: stateIdle}
	for i := range readings {
		d.step(sensorID, &readings[i])
	}

	return d.sessions, nil
}

// step applies one sample to the state machine.
func (d *detector) step(sensorID string, reading *models.TemperatureReading) {
	temp := reading.TemperatureC
	ts := reading.Timestamp

	switch d.state {
	case stateIdle:
		if temp >= HeatingThresholdC {
			d.state = stateHeating
			d.start = ts
			d.peak = temp
		}

	case stateHeating:
		if temp < HeatingThresholdC {
			// Dropped back before getting hot: noise, not a session.
			d.state = stateIdle
			return
		}
		if temp > d.peak {
			d.peak = temp
		}
		if temp >= HotThresholdC {
			d.state = stateHot
		}

	case stateHot:
		if temp >= HotThresholdC {
			if temp > d.peak {
				d.peak = temp
			}
			return
		}
		d.state = stateCooling
		d.belowFrom = time.Time{}
		if temp < CoolingThresholdC {
			d.belowFrom = ts
		}

	case stateCooling:
		if temp >= HotThresholdC {
			// Reheated before the cooldown elapsed: same session continues,
			// cooling timer discarded.
			d.state = stateHot
			if temp > d.peak {
				d.peak = temp
			}
			return
		}
		if temp >= CoolingThresholdC {
			d.belowFrom = time.Time{}
			return
		}
		if d.belowFrom.IsZero() {
			d.belowFrom = ts
			return
		}
		if ts.Sub(d.belowFrom) >= CooldownWindow {
			d.close(sensorID)
		}
	}
}

// close emits the finished session. The end is the instant the sub-40 run
// began, not the sample that satisfied the window.
func (d *detector) close(sensorID string) {
	end := d.belowFrom
	d.sessions = append(d.sessions, models.ThermalSession{
		SensorID:         sensorID,
		StartTime:        d.start,
		EndTime:          end,
		DurationMinutes:  int(end.Sub(d.start) / time.Minute),
		PeakTemperatureC: d.peak,
	})
	d.state = stateIdle
	d.peak = 0
	d.belowFrom = time.Time{}
}

// Detector runs detection against the store and replaces the affected
// session range.
type Detector struct {
	db  *database.DB
	log *zap.SugaredLogger
}

// NewDetector builds a store-backed detector.
func NewDetector(db *database.DB, log *zap.SugaredLogger) *Detector {
	return &Detector{db: db, log: log}
}

// RefreshResult summarizes one detection run.
type RefreshResult struct {
	Detected int
	Replaced int
}

// Refresh re-detects sessions for a sensor over a range. Existing sessions
// whose start falls in the range are deleted and regenerated, so repeated
// runs never duplicate. Zero bounds leave the range open on that side.
func (d *Detector) Refresh(ctx context.Context, sensorID string, from, to time.Time) (*RefreshResult, error) {
	readings, err := d.db.TemperaturesForSensor(ctx, sensorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading temperatures: %w", err)
	}

	sessions, err := Detect(sensorID, readings)
	if err != nil {
		return nil, err
	}

	replaced, err := d.db.ReplaceSessions(ctx, sensorID, from, to, sessions)
	if err != nil {
		return nil, fmt.Errorf("replacing sessions: %w", err)
	}

	d.log.Infow("session detection finished",
		"sensor", sensorID,
		"samples", len(readings),
		"detected", len(sessions),
		"replaced", replaced)

	return &RefreshResult{Detected: len(sessions), Replaced: replaced}, nil
}
