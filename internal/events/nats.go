package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const streamName = "file-events"

// NATSPublisher writes events to a JetStream stream.
type NATSPublisher struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

func ConnectNATS(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("filer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	if err := ensureStream(js); err != nil {
		log.Printf("[NATS] warning: failed to ensure stream: %v", err)
	}

	log.Printf("[NATS] connected to %s", nc.ConnectedUrl())
	return &NATSPublisher{nc: nc, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(streamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"files.*", "folders.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[NATS] marshal failed subject=%s err=%v", e.Type, err)
		return
	}
	if _, err := p.js.Publish(e.Type, data, nats.MsgId(uuid.NewString()), nats.Context(ctx)); err != nil {
		log.Printf("[NATS] publish failed subject=%s err=%v", e.Type, err)
	}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
