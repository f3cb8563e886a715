package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/socketsvc/ws"
)

// Broker bridges NATS game events into the WebSocket hub.
type Broker struct {
	Conn *nats.Conn
	Hub  *ws.Hub
}

func NewBroker(conn *nats.Conn, hub *ws.Hub) *Broker {
	return &Broker{Conn: conn, Hub: hub}
}

// Subscribe consumes game events and fans them out to connected clients.
func (b *Broker) Subscribe() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.SubjectGameEvents, b.handleMessage)
}

func (b *Broker) handleMessage(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("Error decoding game event: %s", err)
		return
	}

	switch message.Type {
	case comm.TypeNumberCalled, comm.TypeNumberUncalled, comm.TypeCalledSynced,
		comm.TypeGameCreated, comm.TypeGameEnded, comm.TypePrizePool,
		comm.TypeClaimUpdated, comm.TypeWinnerPaid:
		b.Hub.Broadcast(message)
	default:
		log.Warnf("unknown game event type: %s", message.Type)
	}
}
