// Package broker wraps the NATS connection that carries run events.
package broker

import (
	"fmt"
	"log"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Broker encapsulates one NATS connection. Construct with Connect or
// StartEmbedded and release with Close; there is no shared instance.
type Broker struct {
	conn *nats.Conn
	srv  *natsserver.Server
}

// Connect dials the NATS server at url.
func Connect(url string) (*Broker, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.Name("blok"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Printf("broker: connected to NATS at %s", url)
	return &Broker{conn: nc}, nil
}

// StartEmbedded runs an in-process NATS server on a free local port and
// connects to it. Used when no external server is configured, so live
// event streaming works out of the box.
func StartEmbedded() (*Broker, error) {
	srv, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build embedded NATS server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("embedded NATS server did not become ready")
	}

	nc, err := nats.Connect(srv.ClientURL(),
		nats.Timeout(10*time.Second),
		nats.Name("blok"),
	)
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS server: %w", err)
	}

	log.Printf("broker: embedded NATS server listening on %s", srv.ClientURL())
	return &Broker{conn: nc, srv: srv}, nil
}

// ClientURL returns the URL clients can use to reach the broker's server.
func (b *Broker) ClientURL() string {
	if b.srv != nil {
		return b.srv.ClientURL()
	}
	return b.conn.ConnectedUrl()
}

// Publish sends data on the provided subject.
func (b *Broker) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// Subscribe registers a callback for a subject. NATS wildcards work, so
// "blok.run.>" catches every run event.
func (b *Broker) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, cb)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Close closes the connection and stops the embedded server if this broker
// started one.
func (b *Broker) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.srv != nil {
		b.srv.Shutdown()
	}
}
