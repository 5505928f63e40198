package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

// Conn is the slice of a websocket connection the hub needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans a periodic job/executor snapshot out to connected dashboards so
// status changes written by the external executor show up without polling.
type Hub struct {
	clients    map[Conn]bool
	broadcast  chan []byte
	register   chan Conn
	unregister chan Conn
	mutex      sync.RWMutex
}

var WSHub *Hub

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan Conn),
		unregister: make(chan Conn),
	}
}

func (h *Hub) Run() {
	go h.broadcastJobs()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			// Dead clients are dropped inline: sending them back through
			// the unregister channel would block against our own select.
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) dropClient(client Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

type jobFeed struct {
	Active    []models.Job               `json:"active"`
	Recent    []models.Job               `json:"recent"`
	Executors []models.ExecutorHeartbeat `json:"executors"`
}

func (h *Hub) broadcastJobs() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mutex.RLock()
		clientCount := len(h.clients)
		h.mutex.RUnlock()

		if clientCount == 0 {
			continue
		}

		feed := jobFeed{}
		database.DB.Where("status IN ?", []string{models.JobStatusPending, models.JobStatusRunning}).
			Order("created_at desc").Find(&feed.Active)
		database.DB.Where("status NOT IN ?", []string{models.JobStatusPending, models.JobStatusRunning}).
			Order("completed_at desc").Limit(20).Find(&feed.Recent)
		database.DB.Order("last_seen_at desc").Find(&feed.Executors)

		data, err := json.Marshal(feed)
		if err != nil {
			continue
		}

		h.broadcast <- data
	}
}

func (h *Hub) Register(conn Conn) {
	h.register <- conn
}

func (h *Hub) Unregister(conn Conn) {
	h.unregister <- conn
}

func HandleWebSocket(c *websocket.Conn) {
	WSHub.Register(c)
	defer WSHub.Unregister(c)

	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			break
		}
	}
}

func InitHub() {
	WSHub = NewHub()
	go WSHub.Run()
}
