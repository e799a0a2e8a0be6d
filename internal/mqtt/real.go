package mqtt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	// BufferSize is the number of messages held while disconnected.
	BufferSize int
	// Now stamps the OFFLINE will and RECONNECTED events. Defaults to time.Now.
	Now func() time.Time
}

// client is the subset of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the broker is unreachable are held in a backlog and replayed on connect.
type RealPublisher struct {
	client client
	now    func() time.Time

	mu        sync.Mutex
	backlog   *backlog
	connected bool // a connection has been made at least once
	// online is set by the connect handler and cleared on connection loss.
	// publish consults it under mu so nothing lands in the backlog after a drain.
	online bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. It never fails: an unreachable broker only delays delivery.
func NewRealPublisher(o Options) *RealPublisher {
	if o.ClientID == "" {
		o.ClientID = "solar-tracker"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 256
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	p := &RealPublisher{
		now:     o.Now,
		backlog: newBacklog(o.BufferSize),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: o.Now(),
		Event:     SystemOffline,
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.connectionLost(err) })

	p.start(paho.NewClient(opts))
	return p
}

func (p *RealPublisher) start(c client) {
	p.client = c
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.connect(ctx)
}

// connect retries the first connection with exponential backoff. paho's auto
// reconnect takes over once a connection has been made.
func (p *RealPublisher) connect(ctx context.Context) {
	defer close(p.done)

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	attempt := func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(15 * time.Second) {
			return fmt.Errorf("connection timeout")
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect failed: %v", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(b, ctx)); err != nil {
		log.Printf("mqtt: gave up connecting: %v", err)
	}
}

// onConnect replays the backlog. On a reconnect it also announces the outage.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	msgs, dropped := p.backlog.drain()
	reconnect := p.connected
	p.connected = true
	p.online = true
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d buffered messages", len(msgs))
	if dropped > 0 {
		log.Printf("mqtt: %d messages dropped while disconnected", dropped)
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: SystemReconnected})
		msgs = append([]message{{topic: TopicSystem, payload: payload}}, msgs...)
	}

	for _, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay to %s failed: %v", m.topic, err)
		}
	}
}

func (p *RealPublisher) connectionLost(err error) {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// Publish sends a tracker event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(message{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m message) error {
	p.mu.Lock()
	if !p.online {
		p.backlog.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

func (p *RealPublisher) send(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close stops connecting and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.cancel()
	<-p.done
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
