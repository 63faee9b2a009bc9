package ws

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket connection of a signed-in customer.
type Client struct {
	CustomerID uint
	Send       chan []byte
	Hub        *Hub // set by Register so Close can unregister
	mu         sync.Mutex
	closed     bool
}

func NewClient(customerID uint) *Client {
	return &Client{CustomerID: customerID, Send: make(chan []byte, 256)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
	close(c.Send)
}

// Hub tracks live payment sockets per customer. A customer may have several devices open.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	byCustomer map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		byCustomer: make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byCustomer[c.CustomerID] == nil {
		h.byCustomer[c.CustomerID] = make(map[*Client]struct{})
	}
	h.byCustomer[c.CustomerID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byCustomer[c.CustomerID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byCustomer, c.CustomerID)
		}
	}
}

// BroadcastToUser sends payload as JSON to every socket of customerID. Slow sockets drop it.
func (h *Hub) BroadcastToUser(customerID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byCustomer[customerID] {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
