// Package events publishes mint attempt lifecycle events to NATS so
// downstream consumers (notification senders, analytics) can follow
// attempts without polling. Publishing is best-effort: a broker outage
// never fails a mint.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/metrics"
	"nnm-backend/internal/mint"
)

// Publisher forwards attempt transitions to NATS subjects of the form
// <prefix>.<state>, e.g. "nnm.mint.confirmed".
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewPublisher connects to the broker. Returns an error when the URL is
// unreachable; callers treat the publisher as optional and skip it when
// NATS is not configured.
func NewPublisher(url, subjectPrefix string, timeout time.Duration) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logrus.WithField("url", url).Info("✅ NATS event publisher connected")
	return &Publisher{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// AttemptUpdated implements mint.StateListener.
func (p *Publisher) AttemptUpdated(attempt mint.Attempt) {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, attempt.State)
	if err := p.conn.Publish(subject, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"subject":    subject,
			"attempt_id": attempt.ID,
			"error":      err.Error(),
		}).Warn("Failed to publish mint event")
		return
	}
	metrics.EventsPublished.WithLabelValues(string(attempt.State)).Inc()
}
