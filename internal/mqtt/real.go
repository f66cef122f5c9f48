package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/parking-gate/internal/logic"
)

// DefaultClientID identifies the daemon to the broker.
const DefaultClientID = "parking-gate"

const (
	bufferCapacity = 100
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. While the connection is
// down messages are buffered and replayed, oldest first, on reconnect.
type RealPublisher struct {
	client paho.Client
	now    func() time.Time

	mu        sync.Mutex
	buf       *outbox
	connected bool
	connects  int
	epoch     int // bumped on every connection loss
}

// NewRealPublisher creates a publisher for the given broker. The broker's
// last will publishes a retained SHUTDOWN with reason MQTT_DISCONNECT.
// An unreachable broker is not an error: the client keeps retrying in the
// background and messages are buffered until it connects.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newPublisher(nil)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, buffering", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func newPublisher(client paho.Client) *RealPublisher {
	return &RealPublisher{
		client: client,
		now:    time.Now,
		buf:    newOutbox(bufferCapacity),
	}
}

// PublishAvailability sends the availability to the retained topic.
func (p *RealPublisher) PublishAvailability(s logic.Status) error {
	payload, err := FormatAvailability(s)
	if err != nil {
		return fmt.Errorf("format availability: %w", err)
	}
	return p.publish(TopicAvailability, 1, true, payload)
}

// PublishPassage sends a gate decision.
func (p *RealPublisher) PublishPassage(pa logic.Passage) error {
	payload, err := FormatPassage(pa)
	if err != nil {
		return fmt.Errorf("format passage: %w", err)
	}
	return p.publish(TopicEvents, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - we want lifecycle events delivered
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// onConnect replays the buffer and, after a reconnect, announces it.
// Publishes keep going to the buffer until it has been handed to the client
// empty, so nothing sent live can overtake an older buffered message.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connects++
	reconnect := p.connects > 1
	epoch := p.epoch
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
		payload, err := FormatSystemPayload(SystemEvent{
			Timestamp: p.now(),
			Event:     "RECONNECTED",
		})
		if err == nil {
			c.Publish(TopicSystem, 1, false, payload)
		}
	} else {
		log.Printf("mqtt: connected")
	}

	for {
		p.mu.Lock()
		if p.epoch != epoch {
			// Lost again mid-replay; onConnectionLost already logged it.
			p.mu.Unlock()
			return
		}
		msgs, dropped := p.buf.drain()
		if len(msgs) == 0 {
			p.connected = true
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d buffered messages (%d dropped)", len(msgs), dropped)
		for i, m := range msgs {
			// Fire and forget: paho queues these on the live connection in order.
			c.Publish(m.topic, m.qos, m.retained, m.payload)

			p.mu.Lock()
			lost := p.epoch != epoch
			if lost {
				p.buf.requeue(msgs[i+1:])
			}
			p.mu.Unlock()
			if lost {
				return
			}
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.epoch++
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
