// Package mqtt wraps the paho client with the connection discipline the
// fleet relies on: retrying connects that respect context cancellation,
// connection state tracked through the client callbacks, and the lora/*
// topic scheme for packet records and gateway status.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

// Topic suffixes under the configured prefix.
const (
	topicSensor = "sensor"
	topicGnss   = "gnss"
	topicData   = "data"
	topicStatus = "status"
)

const publishTimeout = 5 * time.Second

// Client connects one process to the broker. The gateway publishes records
// and status through it; the fog server subscribes.
type Client struct {
	client mqtt.Client
	cfg    model.MqttConfig

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewClient builds a client for the configured broker. Nothing connects
// until Connect.
func NewClient(cfg model.MqttConfig, clientID string) *Client {
	c := &Client{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		slog.Info("mqtt connected", "broker", cfg.Broker, "client_id", clientID)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		slog.Warn("mqtt connection lost", "err", err)
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect establishes the broker session, waiting in a ctx-aware loop so a
// shutdown during a broker outage does not hang the process.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("mqtt client stopped")
	default:
	}
	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			c.client.Disconnect(0)
			return ctx.Err()
		case <-c.stopCh:
			c.client.Disconnect(0)
			return fmt.Errorf("mqtt client stopped")
		default:
		}
	}
}

// IsConnected reports whether the broker session is live.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect closes the session. Idempotent.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.client.Disconnect(250)
	c.setConnected(false)
	slog.Info("mqtt disconnected")
}

// TopicFor maps a record type onto its publish topic. Unknown types land on
// the catch-all data topic.
func (c *Client) TopicFor(recordType string) string {
	switch recordType {
	case "sensor":
		return c.cfg.TopicPrefix + "/" + topicSensor
	case "gnss":
		return c.cfg.TopicPrefix + "/" + topicGnss
	default:
		return c.cfg.TopicPrefix + "/" + topicData
	}
}

// StatusTopic is where the gateway reports its own state.
func (c *Client) StatusTopic() string {
	return c.cfg.TopicPrefix + "/" + topicStatus
}

// RecordTopics lists the topics packet records arrive on, for subscribers.
func (c *Client) RecordTopics() []string {
	return []string{
		c.cfg.TopicPrefix + "/" + topicSensor,
		c.cfg.TopicPrefix + "/" + topicGnss,
		c.cfg.TopicPrefix + "/" + topicData,
	}
}

// PublishRecord sends one packet record, qos 1, to the topic its type
// selects.
func (c *Client) PublishRecord(rec model.PacketRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return c.publish(c.TopicFor(rec.Type), payload, false)
}

// PublishStatus sends the gateway status report, retained so a dashboard
// joining late still sees the last state.
func (c *Client) PublishStatus(rep model.StatusReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return c.publish(c.StatusTopic(), payload, true)
}

// SubscribeRecords delivers every incoming packet record to handler, qos 1.
// Records that fail to decode are logged and skipped.
func (c *Client) SubscribeRecords(handler func(topic string, rec model.PacketRecord)) error {
	filters := make(map[string]byte, 3)
	for _, t := range c.RecordTopics() {
		filters[t] = 1
	}
	token := c.client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		var rec model.PacketRecord
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			slog.Warn("discard undecodable record", "topic", msg.Topic(), "err", err)
			return
		}
		handler(msg.Topic(), rec)
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe records: %w", err)
	}
	slog.Info("subscribed to record topics", "topics", c.RecordTopics())
	return nil
}

func (c *Client) publish(topic string, payload []byte, retained bool) error {
	if !c.IsConnected() {
		return fmt.Errorf("publish %s: not connected", topic)
	}
	token := c.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
