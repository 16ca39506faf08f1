package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"payflow/internal/models"

	"github.com/sirupsen/logrus"
)

// Client is one WebSocket connection following one payment.
type Client struct {
	PaymentID string
	Send      chan []byte
	Hub       *Hub
	mu        sync.Mutex
	closed    bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

func (c *Client) deliver(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// PaymentSource reads the current state of a payment.
type PaymentSource interface {
	Get(ctx context.Context, id string) (*models.Payment, error)
}

// StatusMessage is pushed whenever a followed payment changes status.
type StatusMessage struct {
	Type    string          `json:"type"`
	Payment *models.Payment `json:"payment"`
}

// Hub tracks which connections follow which payment and polls the store for those payments.
type Hub struct {
	mu        sync.RWMutex
	byPayment map[string]map[*Client]struct{}
	lastSeen  map[string]string
	source    PaymentSource
	interval  time.Duration
	log       logrus.FieldLogger
}

func NewHub(source PaymentSource, interval time.Duration, log logrus.FieldLogger) *Hub {
	if interval <= 0 {
		interval = time.Second
	}
	return &Hub{
		byPayment: make(map[string]map[*Client]struct{}),
		lastSeen:  make(map[string]string),
		source:    source,
		interval:  interval,
		log:       log.WithField("component", "payment_stream"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	if h.byPayment[c.PaymentID] == nil {
		h.byPayment[c.PaymentID] = make(map[*Client]struct{})
	}
	h.byPayment[c.PaymentID][c] = struct{}{}
}

// Subscribe registers c and sends it the payment as currently stored. A settled payment ends
// the stream right away.
func (h *Hub) Subscribe(c *Client, current *models.Payment) {
	h.Register(c)
	h.mu.Lock()
	if _, ok := h.lastSeen[c.PaymentID]; !ok {
		h.lastSeen[c.PaymentID] = current.Status
	}
	h.mu.Unlock()
	data, _ := json.Marshal(StatusMessage{Type: "status", Payment: current})
	c.deliver(data)
	if current.IsSettled() {
		c.Close()
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byPayment[c.PaymentID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byPayment, c.PaymentID)
			delete(h.lastSeen, c.PaymentID)
		}
	}
}

func (h *Hub) clients(paymentID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.byPayment[paymentID]
	out := make([]*Client, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

func (h *Hub) watched() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.byPayment))
	for id := range h.byPayment {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byPayment {
		n += len(m)
	}
	return n
}

// Run polls followed payments until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range h.watched() {
				h.poll(ctx, id)
			}
		}
	}
}

// poll pushes the payment to its followers if its status moved, and ends their streams once it
// has settled.
func (h *Hub) poll(ctx context.Context, paymentID string) {
	p, err := h.source.Get(ctx, paymentID)
	if err != nil {
		h.log.WithField("payment_id", paymentID).WithError(err).Warn("poll payment")
		return
	}
	h.mu.Lock()
	changed := h.lastSeen[paymentID] != p.Status
	h.lastSeen[paymentID] = p.Status
	h.mu.Unlock()
	if !changed {
		return
	}
	data, _ := json.Marshal(StatusMessage{Type: "status", Payment: p})
	for _, c := range h.clients(paymentID) {
		c.deliver(data)
		if p.IsSettled() {
			c.Close()
		}
	}
}
