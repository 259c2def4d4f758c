// Package publish sends decoded minutes to an MQTT broker.
package publish

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/config"
	"github.com/sergev/wwvb/decoder"
)

const publishTimeout = 5 * time.Second

// Payload is the JSON message for one decoded minute
type Payload struct {
	Timestamp  int64   `json:"timestamp"`
	UTC        string  `json:"utc"`
	Local      string  `json:"local"`
	Zone       string  `json:"zone"`
	Year       int     `json:"year"`
	YDay       int     `json:"yday"`
	Hour       int     `json:"hour"`
	Minute     int     `json:"minute"`
	LeapYear   bool    `json:"leap_year"`
	LeapSecond bool    `json:"leap_second"`
	DST        string  `json:"dst"`
	DUT1       float64 `json:"dut1"`
	Health     float64 `json:"health"`
	Mismatch   bool    `json:"mismatch,omitempty"`
}

// NewPayload builds the message for a decoded minute, with local time
// computed for the given zone.
func NewPayload(ev clock.Event, zoneOffset int, observeDST bool) Payload {
	t := ev.Frame
	utc := t.ToUTC()
	local := t.ApplyZoneAndDST(zoneOffset, observeDST)
	zone, _ := local.Zone()
	return Payload{
		Timestamp:  utc.Unix(),
		UTC:        utc.Format(time.RFC3339),
		Local:      local.Format(time.RFC3339),
		Zone:       zone,
		Year:       utc.Year(),
		YDay:       t.YDay,
		Hour:       t.Hour,
		Minute:     t.Minute,
		LeapYear:   t.LY,
		LeapSecond: t.LS,
		DST:        t.DST.String(),
		DUT1:       float64(t.DUT1) / 10,
		Health:     100 * float64(ev.Health) / decoder.MaxHealth,
		Mismatch:   ev.Mismatch,
	}
}

// Publisher manages the broker connection
type Publisher struct {
	client mqtt.Client
	topic  string
}

// generateClientID creates a random client ID for MQTT connection
func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "wwvb_" + hex.EncodeToString(bytes)
}

// New connects to the broker.
func New(conf config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(generateClientID())

	if conf.Username != "" {
		opts.SetUsername(conf.Username)
	}
	if conf.Password != "" {
		opts.SetPassword(conf.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: client, topic: conf.Topic}, nil
}

// Publish sends the payload as a retained message.
func (p *Publisher) Publish(payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	token := p.client.Publish(p.topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
