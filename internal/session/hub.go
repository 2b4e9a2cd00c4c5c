// Package session routes outbound packets to connected players. A
// transport (the client codec) would consume the per-player channels;
// nothing here blocks on a slow consumer.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// Hub maps character IDs to outbound packet queues.
type Hub struct {
	log       *zap.Logger
	queueSize int

	mu    sync.RWMutex
	conns map[int32]chan proto.Packet
}

func NewHub(queueSize int, log *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		log:       log.Named("session"),
		queueSize: queueSize,
		conns:     make(map[int32]chan proto.Packet),
	}
}

// Register opens an outbound queue for a character and returns the read
// side. Re-registering replaces the old queue.
func (h *Hub) Register(charID int32) <-chan proto.Packet {
	ch := make(chan proto.Packet, h.queueSize)
	h.mu.Lock()
	old, had := h.conns[charID]
	h.conns[charID] = ch
	h.mu.Unlock()
	if had {
		close(old)
	}
	return ch
}

// Unregister closes and removes the character's queue.
func (h *Hub) Unregister(charID int32) {
	h.mu.Lock()
	ch, ok := h.conns[charID]
	if ok {
		delete(h.conns, charID)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// SendTo enqueues a packet for one character. Packets to a full queue or
// an unknown character are dropped.
func (h *Hub) SendTo(charID int32, pkt proto.Packet) {
	h.mu.RLock()
	ch, ok := h.conns[charID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- pkt:
	default:
		h.log.Debug("queue full, dropping packet", zap.Int32("char_id", charID))
	}
}

// BroadcastNear sends to every player within radius of pos.
func (h *Hub) BroadcastNear(st *world.Store, pos world.Position, radius int32, pkt proto.Packet) {
	for _, c := range st.CharactersNear(pos, radius) {
		h.SendTo(c.ID, pkt)
	}
}

// BroadcastNearExcept sends to every nearby player except one.
func (h *Hub) BroadcastNearExcept(st *world.Store, pos world.Position, radius int32, exceptID int32, pkt proto.Packet) {
	for _, c := range st.CharactersNear(pos, radius) {
		if c.ID == exceptID {
			continue
		}
		h.SendTo(c.ID, pkt)
	}
}
