// SPDX-License-Identifier: BSD-3-Clause

package msgbus

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/ellabellla/lmklib-sub000/pkg/ipc"
)

// Publisher is the send-side contract bindings hold. The payload's
// first byte is the topic; the remainder is an opaque body.
type Publisher interface {
	Publish(topic byte, body []byte) error
}

// Bus is a Publisher over the embedded NATS server. The connection is
// dialed on first use through the in-process connection provider.
type Bus struct {
	subject  string
	provider nats.InProcessConnProvider

	mu   sync.Mutex
	conn *nats.Conn
}

var _ Publisher = (*Bus)(nil)

// New creates a Bus publishing on subject through provider.
func New(subject string, provider nats.InProcessConnProvider) *Bus {
	if subject == "" {
		subject = ipc.SubjectLayoutEvent
	}
	return &Bus{subject: subject, provider: provider}
}

func (b *Bus) connect() (*nats.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil && b.conn.IsConnected() {
		return b.conn, nil
	}
	if b.provider == nil {
		return nil, ErrNotConnected
	}
	conn, err := nats.Connect("", nats.InProcessServer(b.provider))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	b.conn = conn
	return conn, nil
}

// Publish implements Publisher: one message of [topic] ++ body.
func (b *Bus) Publish(topic byte, body []byte) error {
	conn, err := b.connect()
	if err != nil {
		return err
	}
	payload := make([]byte, 0, len(body)+1)
	payload = append(payload, topic)
	payload = append(payload, body...)
	if err := conn.Publish(b.subject, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Close tears down the bus connection.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}
