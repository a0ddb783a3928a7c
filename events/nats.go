package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix namespaces every subject, e.g. campus.orders.order.created.
const SubjectPrefix = "campus.orders."

type natsPublisher struct {
	conn *nats.Conn
}

// NewNATS connects to the NATS server at url.
func NewNATS(url string) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("campus-eats-api"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return &natsPublisher{conn: conn}, nil
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

func (p *natsPublisher) Publish(_ context.Context, evt OrderEvent) error {
	data, err := encode(evt)
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type, err)
	}
	msg := &nats.Msg{
		Subject: Subject(evt.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Content-Type", "application/json")
	return p.conn.PublishMsg(msg)
}

func (p *natsPublisher) Close() error {
	return p.conn.Drain()
}
