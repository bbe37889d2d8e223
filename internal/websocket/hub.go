package websocket

import (
	"context"
	"encoding/json"
	"log"
)

// contestMessage targets one contest's subscribers.
type contestMessage struct {
	contestID uint
	payload   []byte
}

// subscription moves a client onto a contest's watcher set.
type subscription struct {
	client    *Client
	contestID uint
}

// Hub routes messages between the reveal pipeline and connected viewers.
// All maps are owned by the Run goroutine; external callers communicate over
// channels only.
type Hub struct {
	clients  map[*Client]bool
	contests map[uint]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	broadcast   chan []byte
	contestCast chan contestMessage
}

// NewHub creates an empty hub. Call Run before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		contests:    make(map[uint]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		broadcast:   make(chan []byte, 64),
		contestCast: make(chan contestMessage, 64),
	}
}

// Run processes hub commands until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Printf("[Hub] Started")
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			h.removeClient(client)

		case sub := <-h.subscribe:
			h.moveSubscription(sub.client, sub.contestID)

		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.queue(message) {
					h.removeClient(client)
				}
			}

		case msg := <-h.contestCast:
			for client := range h.contests[msg.contestID] {
				if !client.queue(msg.payload) {
					h.removeClient(client)
				}
			}

		case <-ctx.Done():
			log.Printf("[Hub] Shutting down, closing %d connections", len(h.clients))
			for client := range h.clients {
				h.removeClient(client)
			}
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if contestID := client.ContestID(); contestID != 0 {
		h.dropFromContest(client, contestID)
	}
	client.closeSend()
}

func (h *Hub) moveSubscription(client *Client, contestID uint) {
	if prev := client.ContestID(); prev != 0 && prev != contestID {
		h.dropFromContest(client, prev)
	}
	if h.contests[contestID] == nil {
		h.contests[contestID] = make(map[*Client]bool)
	}
	h.contests[contestID][client] = true
	client.contestID.Store(uint64(contestID))
}

func (h *Hub) dropFromContest(client *Client, contestID uint) {
	watchers := h.contests[contestID]
	delete(watchers, client)
	if len(watchers) == 0 {
		delete(h.contests, contestID)
	}
}

// Register hands a new client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// SubscribeToContest moves a client onto a contest's watcher set. A client
// watches at most one contest at a time.
func (h *Hub) SubscribeToContest(client *Client, contestID uint) {
	h.subscribe <- subscription{client: client, contestID: contestID}
}

// BroadcastJSON sends a message to every connected client.
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.broadcast <- data
	return nil
}

// BroadcastJSONToContest sends a message to one contest's watchers.
func (h *Hub) BroadcastJSONToContest(contestID uint, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.contestCast <- contestMessage{contestID: contestID, payload: data}
	return nil
}
