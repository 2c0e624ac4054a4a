package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, 1)
	}))

	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastAppointmentUpdate(t *testing.T) {
	hub, srv, cancel := newTestServer(t)
	defer cancel()
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	// Даём hub время зарегистрировать клиента до рассылки.
	time.Sleep(100 * time.Millisecond)

	appointment := &model.Appointment{
		ID:     7,
		UserID: 1,
		Status: model.AppointmentStatusInProgress,
	}
	hub.BroadcastAppointmentUpdate(ActionStatusUpdated, appointment)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, MessageTypeAppointmentUpdate, msg.Type)

	var update AppointmentUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	require.Equal(t, ActionStatusUpdated, update.Action)
	require.NotNil(t, update.Appointment)
	require.Equal(t, int64(7), update.Appointment.ID)
	require.Equal(t, model.AppointmentStatusInProgress, update.Appointment.Status)
	require.False(t, update.Timestamp.IsZero())
}

func TestServeWS_ReturnsAfterHubStopped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	served := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, 1)
		close(served)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if conn, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		defer conn.Close()
	}

	// Регистрация в остановленном hub не должна вешать обработчик.
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatalf("ServeWS did not return after hub stop")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub, srv, cancel := newTestServer(t)
	defer cancel()
	defer srv.Close()

	first := dial(t, srv)
	defer first.Close()
	second := dial(t, srv)
	defer second.Close()

	time.Sleep(100 * time.Millisecond)

	hub.BroadcastAppointmentUpdate(ActionCreated, &model.Appointment{ID: 1})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		require.Equal(t, MessageTypeAppointmentUpdate, msg.Type)
	}
}
