package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Event is the wire envelope for every WebSocket message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager dispatches inbound client messages and exposes the broadcast
// surface the judging pipeline uses (it satisfies judging.Notifier).
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager creates a manager with the built-in subscribe handler.
func NewManager(hub *Hub) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler("contest:subscribe", m.handleSubscribe)
	return m
}

// RegisterHandler registers a handler for one inbound message type.
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Registered handler for message type: %s", eventType)
}

// HandleMessage dispatches one inbound message. A returned error tells the
// caller to close the connection.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Bad frame from %s: %v", client.ConnectionID, err)
		m.sendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		m.sendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}

	rawData, _ := json.Marshal(event.Data)
	return handler(rawData, client)
}

// handleSubscribe moves the client onto a contest's watcher set.
func (m *Manager) handleSubscribe(data json.RawMessage, client *Client) error {
	var payload struct {
		ContestID uint `json:"contest_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		m.sendErrorToClient(client, "invalid_subscribe", "contest_id is required")
		return nil
	}
	if payload.ContestID == 0 {
		m.sendErrorToClient(client, "invalid_subscribe", "contest_id is required")
		return nil
	}

	m.hub.SubscribeToContest(client, payload.ContestID)
	log.Printf("[WebSocketManager] Client %s subscribed to contest %d", client.ConnectionID, payload.ContestID)
	return nil
}

func (m *Manager) sendErrorToClient(client *Client, code, message string) {
	event := Event{
		Type: "server:error",
		Data: map[string]string{"code": code, "message": message},
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	client.queue(data)
}

// BroadcastEventToContest sends an event to one contest's watchers. The
// judging pipeline calls this for every phase, score and reveal.
func (m *Manager) BroadcastEventToContest(contestID uint, event interface{}) error {
	return m.hub.BroadcastJSONToContest(contestID, event)
}

// BroadcastEvent sends an event to every connected client.
func (m *Manager) BroadcastEvent(eventType string, data interface{}) error {
	return m.hub.BroadcastJSON(Event{Type: eventType, Data: data})
}
