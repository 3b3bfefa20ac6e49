package sessions

import (
	"testing"
	"time"

	"homeenergy/pkg/models"
)

func stream(start time.Time, step time.Duration, temps ...float64) []models.TemperatureReading {
	readings := make([]models.TemperatureReading, len(temps))
	for i, temp := range temps {
		readings[i] = models.TemperatureReading{
			SensorID:     "sauna",
			Timestamp:    start.Add(time.Duration(i) * step),
			TemperatureC: temp,
		}
	}
	return readings
}

func TestDetect_FullCycle(t *testing.T) {
	start := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	readings := stream(start, 10*time.Minute, 30, 36, 50, 58, 62, 58, 50, 42, 38)

	// First sub-40 sample is at +80m. Extend the cooldown past two hours.
	belowFrom := start.Add(80 * time.Minute)
	readings = append(readings,
		models.TemperatureReading{SensorID: "sauna", Timestamp: belowFrom.Add(2 * time.Hour), TemperatureC: 38},
		models.TemperatureReading{SensorID: "sauna", Timestamp: belowFrom.Add(2*time.Hour + 10*time.Minute), TemperatureC: 38},
	)

	sessions, err := Detect("sauna", readings)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("want 1 session, got %d", len(sessions))
	}

	session := sessions[0]
	if session.PeakTemperatureC != 62 {
		t.Errorf("peak: want 62, got %v", session.PeakTemperatureC)
	}
	if !session.StartTime.Equal(start.Add(10 * time.Minute)) {
		t.Errorf("start: want %v, got %v", start.Add(10*time.Minute), session.StartTime)
	}
	if !session.EndTime.Equal(belowFrom) {
		t.Errorf("end should be the start of the sub-40 run: want %v, got %v", belowFrom, session.EndTime)
	}
	wantMinutes := int(belowFrom.Sub(session.StartTime) / time.Minute)
	if session.DurationMinutes != wantMinutes {
		t.Errorf("duration: want %d minutes, got %d", wantMinutes, session.DurationMinutes)
	}
}

func TestDetect_NoiseNeverBecomesSession(t *testing.T) {
	start := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	readings := stream(start, 10*time.Minute, 30, 36, 32, 30)

	sessions, err := Detect("sauna", readings)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("warm blip should not produce a session, got %d", len(sessions))
	}
}

func TestDetect_ReheatContinuesSession(t *testing.T) {
	start := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	// Dips below 40 mid-session, reheats before two hours pass, then cools
	// for real. The dip must not split the session or end it early.
	readings := stream(start, 15*time.Minute,
		30, 40, 56, 60, // heat up
		45, 38, // cooling, sub-40 run begins
		58, 63, // reheated, timer discarded, new peak
		50, 39)
	realBelow := readings[len(readings)-1].Timestamp
	readings = append(readings,
		models.TemperatureReading{SensorID: "sauna", Timestamp: realBelow.Add(2 * time.Hour), TemperatureC: 30},
	)

	sessions, err := Detect("sauna", readings)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("want 1 session across the reheat, got %d", len(sessions))
	}
	if sessions[0].PeakTemperatureC != 63 {
		t.Errorf("peak should track across reheat: want 63, got %v", sessions[0].PeakTemperatureC)
	}
	if !sessions[0].EndTime.Equal(realBelow) {
		t.Errorf("end: want %v, got %v", realBelow, sessions[0].EndTime)
	}
}

func TestDetect_UnclosedSessionNotEmitted(t *testing.T) {
	start := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	readings := stream(start, 10*time.Minute, 30, 45, 60, 62, 50, 38)

	sessions, err := Detect("sauna", readings)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("cooldown never elapsed, want 0 sessions, got %d", len(sessions))
	}
}

func TestDetect_TwoSessions(t *testing.T) {
	start := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	first := stream(start, 10*time.Minute, 30, 45, 60, 38)
	firstBelow := first[len(first)-1].Timestamp
	second := stream(firstBelow.Add(3*time.Hour), 10*time.Minute, 30, 50, 70, 39)
	secondBelow := second[len(second)-1].Timestamp

	readings := append(first,
		models.TemperatureReading{SensorID: "sauna", Timestamp: firstBelow.Add(2 * time.Hour), TemperatureC: 25},
	)
	readings = append(readings, second...)
	readings = append(readings,
		models.TemperatureReading{SensorID: "sauna", Timestamp: secondBelow.Add(2 * time.Hour), TemperatureC: 25},
	)

	sessions, err := Detect("sauna", readings)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("want 2 sessions, got %d", len(sessions))
	}
	if sessions[0].PeakTemperatureC != 60 || sessions[1].PeakTemperatureC != 70 {
		t.Errorf("peaks: want 60 and 70, got %v and %v",
			sessions[0].PeakTemperatureC, sessions[1].PeakTemperatureC)
	}
}

func TestDetect_OutOfOrderRejected(t *testing.T) {
	start := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	readings := []models.TemperatureReading{
		{SensorID: "sauna", Timestamp: start, TemperatureC: 30},
		{SensorID: "sauna", Timestamp: start.Add(10 * time.Minute), TemperatureC: 40},
		{SensorID: "sauna", Timestamp: start.Add(5 * time.Minute), TemperatureC: 45},
	}

	_, err := Detect("sauna", readings)
	stateErr, ok := err.(*SessionStateError)
	if !ok {
		t.Fatalf("want *SessionStateError, got %v", err)
	}
	if stateErr.SensorID != "sauna" {
		t.Errorf("error sensor: want sauna, got %q", stateErr.SensorID)
	}
}

func TestDetect_Empty(t *testing.T) {
	sessions, err := Detect("sauna", nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("want no sessions for empty stream, got %d", len(sessions))
	}
}
