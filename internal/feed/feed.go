// Package feed реализует клиентскую сторону канала живых обновлений:
// поддерживает соединение с сервером и локальный снимок списка записей.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/model"
	"github.com/nenoreno/jakes-bath-house/internal/ws"
)

// reconnectDelay — фиксированная пауза между попытками переподключения.
const reconnectDelay = 3 * time.Second

// Fetcher возвращает полный актуальный список записей.
// Снимок всегда замещается целиком, слияния с предыдущим состоянием нет.
type Fetcher func(ctx context.Context) ([]model.Appointment, error)

// Feed держит соединение с сервером обновлений и текущий снимок записей.
type Feed struct {
	url     string
	header  http.Header
	fetcher Fetcher
	logger  *zap.Logger

	mu           sync.RWMutex
	appointments []model.Appointment
	connected    bool
}

// New создаёт feed для указанного WebSocket-адреса. Заголовки header
// передаются при рукопожатии, через них проставляется cookie авторизации.
func New(url string, header http.Header, fetcher Fetcher, logger *zap.Logger) *Feed {
	return &Feed{
		url:     url,
		header:  header,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Appointments возвращает копию текущего снимка записей.
func (f *Feed) Appointments() []model.Appointment {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.Appointment, len(f.appointments))
	copy(out, f.appointments)
	return out
}

// Connected сообщает, установлено ли сейчас соединение с сервером.
func (f *Feed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Run поддерживает соединение до отмены контекста. После обрыва
// переподключается через фиксированную паузу.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.connect(ctx); err != nil {
			f.logger.Warn("feed connection lost", zap.Error(err))
		}

		f.setConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *Feed) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, f.header)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.setConnected(true)
	f.logger.Info("feed connected", zap.String("url", f.url))

	// Снимок мог устареть за время обрыва, обновляем сразу.
	f.refresh(ctx)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg ws.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			f.logger.Warn("feed: bad message", zap.Error(err))
			continue
		}

		if msg.Type == ws.MessageTypeAppointmentUpdate {
			f.refresh(ctx)
		}
	}
}

// refresh забирает полный список записей и замещает им снимок.
func (f *Feed) refresh(ctx context.Context) {
	appointments, err := f.fetcher(ctx)
	if err != nil {
		f.logger.Warn("feed refresh", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.appointments = appointments
	f.mu.Unlock()
}

func (f *Feed) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}
