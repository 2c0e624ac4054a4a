// Package main запускает консольный монитор записей для сотрудников.
// Монитор подключается к каналу живых обновлений и держит актуальный
// список записей, перезапрашивая его целиком при каждом уведомлении.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/feed"
	"github.com/nenoreno/jakes-bath-house/internal/model"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	server := flag.String("server", "http://localhost:8081", "адрес сервера бронирования")
	email := flag.String("email", "", "email сотрудника")
	password := flag.String("password", "", "пароль сотрудника")
	flag.Parse()

	if *email == "" || *password == "" {
		sugar.Fatal("email and password are required")
	}

	cookie, err := login(*server, *email, *password)
	if err != nil {
		sugar.Fatalw("login error", "error", err.Error())
	}

	header := http.Header{}
	header.Set("Cookie", cookie.String())

	wsAddr, err := wsURL(*server)
	if err != nil {
		sugar.Fatalw("bad server address", "error", err.Error())
	}

	client := &http.Client{Timeout: 10 * time.Second}
	fetcher := func(ctx context.Context) ([]model.Appointment, error) {
		return fetchAppointments(ctx, client, *server, cookie)
	}

	f := feed.New(wsAddr, header, fetcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go f.Run(ctx)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sugar.Info("monitor stopped")
			return
		case <-ticker.C:
			printSummary(f)
		}
	}
}

func login(server, email, password string) (*http.Cookie, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(server+"/api/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login status %d", resp.StatusCode)
	}

	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no auth cookie in login response")
}

func wsURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	return u.String(), nil
}

func fetchAppointments(ctx context.Context, client *http.Client, server string, cookie *http.Cookie) ([]model.Appointment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/api/v1/admin/appointments", nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(cookie)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("appointments status %d", resp.StatusCode)
	}

	var appointments []model.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}

func printSummary(f *feed.Feed) {
	appointments := f.Appointments()

	counts := map[model.AppointmentStatus]int{}
	for _, a := range appointments {
		counts[a.Status]++
	}

	state := "offline"
	if f.Connected() {
		state = "live"
	}

	var parts []string
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	} {
		parts = append(parts, fmt.Sprintf("%s=%d", status, counts[status]))
	}

	fmt.Printf("[%s] %s total=%d %s\n",
		time.Now().Format("15:04:05"), state, len(appointments), strings.Join(parts, " "))
}
