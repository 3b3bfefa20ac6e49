package models

import "time"

// IntervalReading is one energy measurement for a fixed time window.
// After normalization every persisted row covers the canonical 30 minutes.
type IntervalReading struct {
	ID             int       `json:"id"`
	Source         string    `json:"source"`
	IntervalStart  time.Time `json:"interval_start"`
	IntervalEnd    time.Time `json:"interval_end"`
	ConsumptionKWh float64   `json:"consumption_kwh"`
	CostPence      *float64  `json:"cost_pence,omitempty"`
	Published      bool      `json:"published"`
}

// TemperatureReading is a single sensor sample. Sensors are independent
// streams (sauna, outdoor, studio).
type TemperatureReading struct {
	SensorID     string    `json:"sensor_id"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
}

// TariffRate is a clock-time band within a tariff. The band is half-open
// [Start, End) and may wrap past midnight (e.g. 23:00-07:00).
type TariffRate struct {
	StartTime       string  `yaml:"start" json:"start_time"` // HH:MM
	EndTime         string  `yaml:"end" json:"end_time"`     // HH:MM
	RatePencePerKWh float64 `yaml:"rate" json:"rate_pence_per_kwh"`
	Days            string  `yaml:"days,omitempty" json:"days"` // "*", "weekdays" or "weekends"
}

// Tariff is a named time-of-use rate schedule valid for [ValidFrom, ValidTo).
// A nil ValidTo means the tariff is current.
type Tariff struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	ValidFrom time.Time    `json:"valid_from"`
	ValidTo   *time.Time   `json:"valid_to,omitempty"`
	Rates     []TariffRate `json:"rates"`
}

// ThermalSession is a derived heating episode. DurationMinutes includes the
// two hour cooldown used to close the session, so it overstates active
// heating time.
type ThermalSession struct {
	ID               int       `json:"id"`
	SensorID         string    `json:"sensor_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	PeakTemperatureC float64   `json:"peak_temperature_c"`
	EstimatedKWh     *float64  `json:"estimated_kwh,omitempty"`
}
