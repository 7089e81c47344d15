package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"powerlog/backend/libs/logging"
)

const (
	disconnectQuiesce = 250 // milliseconds
	connectWaitLog    = 30 * time.Second
	subscribeFailure  = 0x80
)

// MessageHandler consumes payloads received on the subscribed topic.
type MessageHandler interface {
	Handle(ctx context.Context, topic string, payload []byte) error
}

// Options configures the broker connection.
type Options struct {
	Broker         string
	Topic          string
	QoS            byte
	ClientID       string
	ClientIDPrefix string
	Username       string
	Password       string
	ConnectRetry   bool
}

// client is the part of paho.Client used here.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Subscriber keeps one subscription alive and forwards every message to the handler.
// Reconnects are left to the paho client; the subscription is renewed on every connect.
type Subscriber struct {
	client    client
	topic     string
	qos       byte
	handler   MessageHandler
	logger    *zap.Logger
	ctx       context.Context
	connected atomic.Bool
}

// NewSubscriber builds a paho client with ordered delivery and auto reconnect.
func NewSubscriber(opts Options, handler MessageHandler, logger *zap.Logger) *Subscriber {
	s := newSubscriber(nil, opts.Topic, opts.QoS, handler, logger)

	clientID := opts.ClientID
	if clientID == "" {
		clientID = ClientID(opts.ClientIDPrefix)
	}

	o := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(opts.ConnectRetry).
		SetOrderMatters(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost).
		SetReconnectingHandler(s.onReconnecting)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}

	s.client = paho.NewClient(o)
	s.logger = logger.With(zap.String("broker", opts.Broker), zap.String("client_id", clientID))
	return s
}

func newSubscriber(c client, topic string, qos byte, handler MessageHandler, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		client:  c,
		topic:   topic,
		qos:     qos,
		handler: handler,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// ClientID returns prefix followed by eight random hex characters.
func ClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s-%s", prefix, suffix)
}

// IsConnected reports whether the broker session is currently up.
func (s *Subscriber) IsConnected() bool {
	return s.connected.Load()
}

// Run connects and blocks until ctx is cancelled. With connect retry enabled the
// initial connect only completes once the broker is reachable.
func (s *Subscriber) Run(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("connecting to broker", zap.String("topic", s.topic))
	token := s.client.Connect()

	ticker := time.NewTicker(connectWaitLog)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ctx.Done():
			s.client.Disconnect(disconnectQuiesce)
			return ctx.Err()
		case <-token.Done():
			break wait
		case <-ticker.C:
			s.logger.Warn("still waiting for broker")
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	<-ctx.Done()
	s.client.Disconnect(disconnectQuiesce)
	s.connected.Store(false)
	s.logger.Info("disconnected from broker")
	return ctx.Err()
}

func (s *Subscriber) onConnect(paho.Client) {
	s.connected.Store(true)
	s.logger.Info("connected to broker")

	token := s.client.Subscribe(s.topic, s.qos, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error("subscribe failed", zap.String("topic", s.topic), zap.Error(err))
		return
	}
	if st, ok := token.(*paho.SubscribeToken); ok {
		if code, ok := st.Result()[s.topic]; ok && code == subscribeFailure {
			s.logger.Error("subscribe rejected by broker", zap.String("topic", s.topic))
			return
		}
	}
	s.logger.Info("subscribed", zap.String("topic", s.topic), zap.Uint8("qos", s.qos))
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	// the handler logs its own failures
	_ = s.handler.Handle(s.ctx, msg.Topic(), msg.Payload())
}

func (s *Subscriber) onConnectionLost(_ paho.Client, err error) {
	s.connected.Store(false)
	s.logger.Warn("connection lost", zap.Error(err))
}

func (s *Subscriber) onReconnecting(paho.Client, *paho.ClientOptions) {
	s.logger.Info("reconnecting to broker")
}

// RouteLibraryLogs sends paho's internal loggers through logger.
func RouteLibraryLogs(logger *zap.Logger) {
	named := logger.Named("paho")
	paho.CRITICAL = logging.StdLogger(named, zapcore.ErrorLevel)
	paho.ERROR = logging.StdLogger(named, zapcore.ErrorLevel)
	paho.WARN = logging.StdLogger(named, zapcore.WarnLevel)
	if logger.Core().Enabled(zapcore.DebugLevel) {
		paho.DEBUG = logging.StdLogger(named, zapcore.DebugLevel)
	}
}
