// Package board pushes task changes to the connected dashboards of the
// users involved in each task.
package board

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a WebSocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// sendQueueSize bounds the frames waiting for one slow connection.
const sendQueueSize = 16

// Client is one connected dashboard.
type Client struct {
	ID     string
	UserID string
	Conn   Conn

	send chan []byte
}

// Hub tracks connections per user and fans out updates.
type Hub struct {
	clients    map[string]map[string]*Client // userID -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
	done       chan struct{}
	mu         sync.RWMutex
}

type delivery struct {
	userIDs []string
	payload any
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop; it returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[board] Hub shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case d := <-h.broadcast:
			h.handleBroadcast(d)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client. It must not be called after the hub stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues payload for every connection of the given users.
func (h *Hub) Send(userIDs []string, payload any) {
	select {
	case h.broadcast <- &delivery{userIDs: userIDs, payload: payload}:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[string]*Client)
	}
	client.send = make(chan []byte, sendQueueSize)
	h.clients[client.UserID][client.ID] = client
	go client.writePump()
	log.Printf("[board] Client %s (user %s) registered", client.ID, client.UserID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if stored, ok := conns[client.ID]; ok {
		h.remove(stored)
		log.Printf("[board] Client %s (user %s) unregistered", client.ID, client.UserID)
	}
}

// remove drops client from the registry and stops its writer.
// The caller must hold mu.
func (h *Hub) remove(client *Client) {
	conns := h.clients[client.UserID]
	delete(conns, client.ID)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
}

func (h *Hub) handleBroadcast(d *delivery) {
	data, err := json.Marshal(d.payload)
	if err != nil {
		log.Printf("[board] Failed to marshal update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, userID := range d.userIDs {
		for _, client := range h.clients[userID] {
			select {
			case client.send <- data:
			default:
				log.Printf("[board] Client %s (user %s) is not keeping up, disconnecting", client.ID, client.UserID)
				h.remove(client)
				_ = client.Conn.Close()
			}
		}
	}
}

// writePump delivers queued frames until the hub closes the queue.
func (c *Client) writePump() {
	for data := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[board] Failed to send to client %s: %v", c.ID, err)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for _, client := range conns {
			close(client.send)
			_ = client.Conn.Close()
		}
	}
	h.clients = make(map[string]map[string]*Client)
}
