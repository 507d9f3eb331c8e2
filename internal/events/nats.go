// Package events publishes management write events to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrNATSURLRequired = errors.New("NATS URL is required")
	ErrNilEvent        = errors.New("event is nil")
)

// Message headers set on every published event.
const (
	HeaderMethod = "Storyblok-Method"
	HeaderPath   = "Storyblok-Path"
	HeaderStatus = "Storyblok-Status"
)

// NATSConfig configures a NATSPublisher.
type NATSConfig struct {
	// URL of the NATS server, e.g. nats://127.0.0.1:4222
	URL string

	// Subject events are published on. Defaults to storyblok.management.
	Subject string

	// Name identifies the connection on the server.
	Name string

	// ConnectTimeout bounds the initial connection. Zero keeps the nats.go
	// default.
	ConnectTimeout time.Duration

	// PublishTimeout bounds the flush after each publish.
	PublishTimeout time.Duration
}

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher implements storyblok.EventPublisher on a core NATS
// connection.
type NATSPublisher struct {
	conn           natsConn
	subject        string
	publishTimeout time.Duration
}

var _ storyblok.EventPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(config *NATSConfig) (*NATSPublisher, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := []nats.Option{}

	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	if config.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(config.ConnectTimeout))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return newPublisher(conn, config.Subject, config.PublishTimeout), nil
}

func newPublisher(conn natsConn, subject string, publishTimeout time.Duration) *NATSPublisher {
	if subject == "" {
		subject = constants.DefaultEventSubject
	}

	if publishTimeout <= 0 {
		publishTimeout = constants.DefaultPublishTimeout
	}

	return &NATSPublisher{
		conn:           conn,
		subject:        subject,
		publishTimeout: publishTimeout,
	}
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Publish sends event as JSON and waits for the server to acknowledge the
// flush.
func (p *NATSPublisher) Publish(ctx context.Context, event *storyblok.ManagementEvent) error {
	msg, err := NewMessage(p.subject, event)
	if err != nil {
		return err
	}

	err = p.conn.PublishMsg(msg)
	if err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	err = p.conn.FlushWithContext(ctx)
	if err != nil {
		return fmt.Errorf("flushing event: %w", err)
	}

	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

// NewMessage encodes event as a NATS message on subject.
func NewMessage(subject string, event *storyblok.ManagementEvent) (*nats.Msg, error) {
	if event == nil {
		return nil, ErrNilEvent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderMethod, event.Method)
	msg.Header.Set(HeaderPath, event.Path)
	msg.Header.Set(HeaderStatus, strconv.Itoa(event.StatusCode))

	return msg, nil
}
