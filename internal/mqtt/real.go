package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/hbraak/solar-display/internal/logger"
	"github.com/hbraak/solar-display/internal/victron"
)

const (
	connectWait  = 5 * time.Second
	publishWait  = 5 * time.Second
	disconnectMs = 1000

	// bufferCapacity bounds relay and system events held while the broker
	// is unreachable. Telemetry is never buffered; the next snapshot
	// supersedes it anyway.
	bufferCapacity = 64
)

// RealPublisher publishes to an actual MQTT broker. It connects lazily and
// retries in the background, buffering audit events while disconnected, so a
// dead broker never holds up startup or the control loop.
type RealPublisher struct {
	client paho.Client
	log    *logger.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher starts connecting to the broker. It waits briefly for the
// first connect but does not fail when the broker is down; paho keeps
// retrying and buffered events are drained on reconnect.
func NewRealPublisher(broker string, log *logger.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		log:    log,
		buffer: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("solar-display").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.drain()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectWait) {
		log.Warnw("broker not reachable yet, continuing without it", "broker", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", broker, err)
	}

	return p, nil
}

// PublishTelemetry sends a snapshot, QoS 0. While disconnected it is dropped.
func (p *RealPublisher) PublishTelemetry(snap *victron.Snapshot) error {
	if !p.client.IsConnected() {
		return nil
	}
	payload, err := FormatTelemetry(snap)
	if err != nil {
		return fmt.Errorf("format telemetry: %w", err)
	}
	return p.send(TopicTelemetry, 0, payload)
}

// PublishRelay sends a relay audit event, QoS 1. While disconnected it is
// buffered for replay.
func (p *RealPublisher) PublishRelay(event RelayEvent) error {
	payload, err := FormatRelay(event)
	if err != nil {
		return fmt.Errorf("format relay event: %w", err)
	}
	return p.sendOrBuffer(TopicRelay, payload)
}

// PublishSystem sends a lifecycle event, QoS 1, buffered while disconnected.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system event: %w", err)
	}
	return p.sendOrBuffer(TopicSystem, payload)
}

// IsConnected reports the live broker connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(disconnectMs)
	return nil
}

func (p *RealPublisher) sendOrBuffer(topic string, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: 1})
		p.mu.Unlock()
		return nil
	}
	return p.send(topic, 1, payload)
}

func (p *RealPublisher) send(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// drain replays buffered events after a (re)connect.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs, dropped := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	if dropped {
		p.log.Warnw("event buffer overflowed while broker was down, oldest events lost",
			"replaying", len(msgs))
	} else {
		p.log.Infow("replaying buffered events", "count", len(msgs))
	}
	for _, m := range msgs {
		if err := p.send(m.topic, m.qos, m.payload); err != nil {
			p.log.Warnw("replay failed", "topic", m.topic, "err", err)
		}
	}
}
