package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
)

// Hub keeps the live WebSocket connections. Every game event received from
// NATS is fanned out to all of them; clients that care about a specific game
// filter by gameId on their side and reconcile from the polling snapshot.
type Hub struct {
	connMap sync.Map // socketId -> *websocket.Conn
	writeMu sync.Map // socketId -> *sync.Mutex, gorilla allows one writer
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) StoreConnection(socketId string, conn *websocket.Conn) {
	h.connMap.Store(socketId, conn)
	h.writeMu.Store(socketId, &sync.Mutex{})
}

func (h *Hub) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := h.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (h *Hub) HandleDisconnect(socketId string) {
	h.connMap.Delete(socketId)
	h.writeMu.Delete(socketId)
}

// Broadcast sends a game event to every connected client. Write failures
// drop the connection; the client reconnects and catches up via polling.
func (h *Hub) Broadcast(msg *comm.WSMessage) {
	h.connMap.Range(func(key, value interface{}) bool {
		socketId := key.(string)
		conn := value.(*websocket.Conn)

		mu, ok := h.writeMu.Load(socketId)
		if !ok {
			return true
		}
		lock := mu.(*sync.Mutex)

		lock.Lock()
		err := conn.WriteJSON(msg)
		lock.Unlock()
		if err != nil {
			log.Warnf("dropping socket %s after write error: %s", socketId, err)
			conn.Close()
			h.HandleDisconnect(socketId)
		}
		return true
	})
}

// Count reports the number of connected clients, for the health endpoint.
func (h *Hub) Count() int {
	count := 0
	h.connMap.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
