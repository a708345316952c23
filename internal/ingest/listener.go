package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"fleetwatch/internal/config"
)

const (
	messageQueueSize    = 256
	subscribeQoS        = 1
	keepAlive           = 30 * time.Second
	pingTimeout         = 10 * time.Second
	disconnectQuiesceMs = 250
)

// Listener owns the MQTT subscription lifecycle and feeds inbound messages to
// the pipeline. The transport callback only enqueues payloads onto an internal
// channel; a single consumer goroutine processes them strictly sequentially,
// so duplicate-frame inserts never interleave.
type Listener struct {
	cfg      config.MQTTConfig
	pipeline *Pipeline
	logger   *zap.Logger

	client    mqtt.Client
	newClient func(*mqtt.ClientOptions) mqtt.Client

	messages chan []byte
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewListener returns listener.
func NewListener(cfg config.MQTTConfig, pipeline *Pipeline, logger *zap.Logger) *Listener {
	return &Listener{
		cfg:       cfg,
		pipeline:  pipeline,
		logger:    logger,
		newClient: mqtt.NewClient,
		messages:  make(chan []byte, messageQueueSize),
		stopCh:    make(chan struct{}),
	}
}

// Start connects to the broker and subscribes to the telemetry topic. When
// ingestion is disabled by configuration this is a no-op and the rest of the
// system runs without it. The connection is established asynchronously and
// retried at a fixed interval indefinitely; broker outages are connection
// state, not errors.
func (l *Listener) Start(ctx context.Context) error {
	if !l.cfg.Enabled {
		l.logger.Info("mqtt listener disabled via config flag")
		return nil
	}
	if l.cfg.BrokerURL == "" || l.cfg.Topic == "" {
		return errors.New("ingest: mqtt broker url and topic are required")
	}

	clientID := l.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("vehicle-api-%x", time.Now().UnixMilli())
	}

	delay := l.cfg.ReconnectDelay()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(l.cfg.BrokerURL)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(delay)
	// Fixed reconnect delay, no backoff escalation: vehicle networks flap
	// constantly and the broker is expected back shortly.
	opts.SetMaxReconnectInterval(delay)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		l.logger.Info("mqtt connected, subscribing",
			zap.String("client_id", clientID),
			zap.String("topic", l.cfg.Topic))
		token := c.Subscribe(l.cfg.Topic, subscribeQoS, l.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			l.logger.Error("mqtt subscribe failed",
				zap.String("topic", l.cfg.Topic),
				zap.Error(err))
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.logger.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		l.logger.Info("mqtt reconnecting")
	})

	l.client = l.newClient(opts)

	l.wg.Add(1)
	go l.consume(ctx)

	l.logger.Info("mqtt connecting",
		zap.String("broker", l.cfg.BrokerURL),
		zap.String("client_id", clientID))
	l.client.Connect()

	return nil
}

func (l *Listener) onMessage(_ mqtt.Client, msg mqtt.Message) {
	select {
	case l.messages <- msg.Payload():
	case <-l.stopCh:
	}
}

func (l *Listener) consume(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case payload := <-l.messages:
			// Failures are logged inside the pipeline and the message is
			// dropped; a bad frame never takes the listener down.
			_ = l.pipeline.Process(ctx, payload)
		}
	}
}

// Stop unsubscribes and closes the connection. Safe to call multiple times.
// An in-flight message may be dropped; inserts are idempotent, so a
// redelivery after restart is harmless.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if l.client != nil {
			if l.client.IsConnected() {
				token := l.client.Unsubscribe(l.cfg.Topic)
				token.WaitTimeout(2 * time.Second)
			}
			l.client.Disconnect(disconnectQuiesceMs)
		}
		l.logger.Info("mqtt listener stopped")
	})
	l.wg.Wait()
}
