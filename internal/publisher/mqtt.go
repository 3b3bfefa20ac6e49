// Package publisher pushes stored readings and sessions to an MQTT broker
// for home-automation dashboards.
package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"homeenergy/internal/config"
	"homeenergy/pkg/models"
)

// Publisher handles publishing to the MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// New connects to the configured broker
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("homeenergy")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.GetTopicPrefix(),
	}, nil
}

// readingPayload is the JSON shape published per interval reading
type readingPayload struct {
	Source         string   `json:"source"`
	IntervalStart  string   `json:"interval_start"`
	IntervalEnd    string   `json:"interval_end"`
	ConsumptionKWh float64  `json:"consumption_kwh"`
	CostPence      *float64 `json:"cost_pence,omitempty"`
}

// PublishReading sends one interval reading, retained, to
// <prefix>/reading/<source>.
func (p *Publisher) PublishReading(reading models.IntervalReading) error {
	payload := readingPayload{
		Source:         reading.Source,
		IntervalStart:  reading.IntervalStart.Format(time.RFC3339),
		IntervalEnd:    reading.IntervalEnd.Format(time.RFC3339),
		ConsumptionKWh: reading.ConsumptionKWh,
		CostPence:      reading.CostPence,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	topic := fmt.Sprintf("%s/reading/%s", p.topicPrefix, reading.Source)
	if token := p.client.Publish(topic, 0, true, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// sessionPayload is the JSON shape published per thermal session
type sessionPayload struct {
	SensorID         string  `json:"sensor_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	DurationMinutes  int     `json:"duration_minutes"`
	PeakTemperatureC float64 `json:"peak_temperature_c"`
}

// PublishSession sends one detected session, retained, to
// <prefix>/session/<sensor>.
func (p *Publisher) PublishSession(session models.ThermalSession) error {
	payload := sessionPayload{
		SensorID:         session.SensorID,
		StartTime:        session.StartTime.Format(time.RFC3339),
		EndTime:          session.EndTime.Format(time.RFC3339),
		DurationMinutes:  session.DurationMinutes,
		PeakTemperatureC: session.PeakTemperatureC,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	topic := fmt.Sprintf("%s/session/%s", p.topicPrefix, session.SensorID)
	if token := p.client.Publish(topic, 0, true, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
