package ws

import (
	"encoding/json"
	"log"
	"sync"

	"healthsurveys/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgSyncProgress MessageType = "sync_progress"
	MsgSyncComplete MessageType = "sync_complete"
	MsgSyncError    MessageType = "sync_error"
	MsgError        MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages admin WebSocket connections subscribed to sync jobs
type Hub struct {
	// Job -> subscribed connections
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents one subscribed admin client
type Connection struct {
	JobID string
	Send  chan []byte
	Hub   *Hub
}

type broadcastMessage struct {
	jobID   string
	message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.JobID] == nil {
				h.conns[conn.JobID] = make(map[*Connection]bool)
			}
			h.conns[conn.JobID][conn] = true
			h.mu.Unlock()
			log.Printf("Admin subscribed to sync job %s", conn.JobID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.JobID]; ok {
				if subs[conn] {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.conns, conn.JobID)
					}
					log.Printf("Admin unsubscribed from sync job %s", conn.JobID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.message)
			for conn := range h.conns[msg.jobID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastSyncProgress pushes a job update to all subscribers
// (implements service.Broadcaster)
func (h *Hub) BroadcastSyncProgress(job *model.SyncJob) {
	msgType := MsgSyncProgress
	switch job.Status {
	case model.SyncStatusComplete:
		msgType = MsgSyncComplete
	case model.SyncStatusError:
		msgType = MsgSyncError
	}

	data, _ := json.Marshal(job)
	h.broadcast <- &broadcastMessage{
		jobID: job.ID,
		message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}
