package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/akinalp/mqvi-sync/events"
)

// Hub, local subscriber bağlantılarını yöneten merkezi yapıdır (Observer
// pattern).
//
// Observer pattern nedir?
// Bir "subject" (Hub) birden fazla "observer"ı (Client) takip eder. Her
// commit edilen batch sonrası SyncService Hub.OnBatch'i çağırır ve Hub
// forward edilen event'leri bağlı tüm subscriber'lara iletir.
//
// Register ve unregister, Run goroutine'inin okuduğu channel'lardan geçer;
// client map'i yalnızca o goroutine'de değişir. Broadcast read lock alır ve
// asla bloklamaz: buffer'ı dolu olan subscriber'ın bağlantısı kesilir.
type Hub struct {
	// userID -> connections of that user (one user may run several tools)
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	seq atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes register/unregister until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] subscriber connected: user=%s (connections for user: %d)",
		client.userID, len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	log.Printf("[ws] subscriber disconnected: user=%s (remaining: %d)", client.userID, len(clients))
}

// drop asks Run to remove client. It gives up when the hub is shutting down.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// OnBatch broadcasts one envelope per forwarded event followed by a batch
// marker. It satisfies services.Listener.
func (h *Hub) OnBatch(batchID string, forwarded []events.Event) {
	if h.Len() == 0 {
		return
	}
	for _, ev := range forwarded {
		h.broadcast(eventEnvelope(batchID, ev))
	}
	h.broadcast(Envelope{Op: OpBatch, BatchID: batchID, Count: len(forwarded)})
}

func (h *Hub) broadcast(env Envelope) {
	env.Seq = h.seq.Add(1)

	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[ws] failed to marshal envelope: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go h.drop(client)
			}
		}
	}
}

// Len is the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Shutdown closes every subscriber and stops Run.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for _, clients := range h.clients {
			for client := range clients {
				close(client.send)
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		log.Println("[ws] hub shut down, all subscribers closed")
	})
}
