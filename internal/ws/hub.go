// Package ws реализует канал живых обновлений записей поверх WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// Типы исходящих сообщений.
const (
	MessageTypeAppointmentUpdate = "appointment_update"
)

// Действия в сообщении appointment_update.
const (
	ActionCreated       = "created"
	ActionStatusUpdated = "status_updated"
)

// Message — конверт исходящего сообщения.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AppointmentUpdate — полезная нагрузка сообщения appointment_update.
type AppointmentUpdate struct {
	Action      string             `json:"action"`
	Appointment *model.Appointment `json:"appointment"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Hub ведёт список подключённых клиентов и рассылает им сообщения.
// Вся работа со множеством клиентов идёт через каналы в Run,
// поэтому блокировки не нужны.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	// done закрывается при остановке Run; отправители выбирают между
	// каналами hub и done, чтобы не блокироваться после завершения.
	done   chan struct{}
	logger *zap.Logger
}

// NewHub создаёт hub. Запускать его нужно через Run.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию клиентов и рассылку до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Info("ws client connected",
				zap.String("client_id", client.id),
				zap.Int64("user_id", client.userID),
				zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("ws client disconnected",
					zap.String("client_id", client.id),
					zap.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает читать, отключаем его.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// BroadcastAppointmentUpdate рассылает всем клиентам уведомление об изменении записи.
func (h *Hub) BroadcastAppointmentUpdate(action string, appointment *model.Appointment) {
	data, err := json.Marshal(AppointmentUpdate{
		Action:      action,
		Appointment: appointment,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("marshal appointment update", zap.Error(err))
		return
	}

	message, err := json.Marshal(Message{
		Type: MessageTypeAppointmentUpdate,
		Data: data,
	})
	if err != nil {
		h.logger.Error("marshal ws message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}
