package audit

import (
	"context"
	"encoding/json"

	"go-dropship-admin/internal/model"
)

// Event is the wire shape pushed to dashboards and the message bus.
type Event struct {
	Type   string             `json:"type"`
	Record *model.AuditRecord `json:"record"`
}

func encodeEvent(record *model.AuditRecord) ([]byte, error) {
	return json.Marshal(Event{Type: "audit_record", Record: record})
}

type broadcaster interface {
	Publish(message []byte) bool
}

// HubRecorder pushes records to connected websocket clients.
type HubRecorder struct {
	hub broadcaster
}

func NewHubRecorder(hub broadcaster) *HubRecorder {
	return &HubRecorder{hub: hub}
}

func (r *HubRecorder) Record(_ context.Context, record *model.AuditRecord) error {
	msg, err := encodeEvent(record)
	if err != nil {
		return err
	}
	r.hub.Publish(msg)
	return nil
}

type publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// AMQPRecorder publishes records to the compliance exchange.
type AMQPRecorder struct {
	pub publisher
}

func NewAMQPRecorder(pub publisher) *AMQPRecorder {
	return &AMQPRecorder{pub: pub}
}

func (r *AMQPRecorder) Record(ctx context.Context, record *model.AuditRecord) error {
	msg, err := encodeEvent(record)
	if err != nil {
		return err
	}
	return r.pub.Publish(context.WithoutCancel(ctx), msg)
}
