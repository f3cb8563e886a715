package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
)

// Broker publishes game events onto NATS for the websocket relay and any
// other listeners. It implements service.Publisher.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// Publish wraps the payload into the shared WSMessage envelope and sends it
// on the game events subject.
func (b *Broker) Publish(msgType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &comm.WSMessage{
		Type: msgType,
		Data: data,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := b.Conn.Publish(comm.SubjectGameEvents, raw); err != nil {
		log.Errorf("Error publishing to subject %s: %s", comm.SubjectGameEvents, err)
		return err
	}
	return nil
}
