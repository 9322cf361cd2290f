package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"workforce-portal/internal/domain/lifecycle"
)

// Publisher pushes lifecycle events to the hub. It satisfies the usecase
// EventPublisher port.
type Publisher struct {
	hub    *Hub
	logger *log.Logger
}

func NewPublisher(hub *Hub, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{hub: hub, logger: logger}
}

func (p *Publisher) Publish(_ context.Context, ev lifecycle.Event) {
	if p == nil || p.hub == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	b, err := json.Marshal(ev)
	if err != nil {
		p.logger.Printf("WS publish error | type=%s error=%v", ev.Type, err)
		return
	}

	jobID := ""
	if ev.JobID != nil {
		jobID = ev.JobID.String()
	}
	p.hub.Broadcast(jobID, b)
}
