package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageRankingsUpdated — единственный тип сообщений: рейтинги
// изменились, клиенту пора перезапросить данные.
const MessageRankingsUpdated = "RANKINGS_UPDATED"

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type rankingsPayload struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

// Hub держит всех подключённых клиентов и рассылает им уведомления об
// изменении рейтингов. Комнат нет: аудитория одна.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			log.Printf("live: client connected, total %d", len(h.clients))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				client.mu.Lock()
				if !client.closed {
					close(client.send)
					client.closed = true
				}
				client.mu.Unlock()
				delete(h.clients, client)
				log.Printf("live: client disconnected, total %d", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.mu.Lock()
				if client.closed {
					client.mu.Unlock()
					continue
				}
				select {
				case client.send <- message:
				default:
					// Канал клиента переполнен: сообщение пропускается,
					// отставший клиент отвалится по ping-таймауту.
				}
				client.mu.Unlock()
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyRankingsUpdated реализует services.Notifier: шлёт всем клиентам
// сигнал с причиной изменения. Не блокируется, если хаб не запущен.
func (h *Hub) NotifyRankingsUpdated(event string) {
	message, err := json.Marshal(Message{
		Type:    MessageRankingsUpdated,
		Payload: rankingsPayload{Event: event, At: time.Now().UTC()},
	})
	if err != nil {
		log.Printf("live: marshal notification: %v", err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		log.Printf("live: broadcast channel full, notification dropped")
	}
}
