package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateIntent_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("path = %s, want /v1/payment_intents", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["amount"] != 30.0 {
			t.Fatalf("amount = %v, want 30", body["amount"])
		}

		resp := Intent{
			ID:           "pi_test_1",
			Amount:       30.0,
			Currency:     "usd",
			Status:       "requires_payment_method",
			ClientSecret: "pi_test_1_secret",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	intent, err := client.CreateIntent(ctx, 30.0, "usd")
	if err != nil {
		t.Fatalf("CreateIntent error: %v", err)
	}
	if intent.ID != "pi_test_1" {
		t.Fatalf("intent id = %s, want pi_test_1", intent.ID)
	}
	if intent.ClientSecret != "pi_test_1_secret" {
		t.Fatalf("client secret = %s, want pi_test_1_secret", intent.ClientSecret)
	}
}

func TestGetIntent_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/pi_test_1" {
			t.Fatalf("path = %s, want /v1/payment_intents/pi_test_1", r.URL.Path)
		}

		resp := Intent{ID: "pi_test_1", Amount: 30.0, Currency: "usd", Status: "succeeded"}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	intent, err := client.GetIntent(ctx, "pi_test_1")
	if err != nil {
		t.Fatalf("GetIntent error: %v", err)
	}
	if intent.Status != "succeeded" {
		t.Fatalf("status = %s, want succeeded", intent.Status)
	}
}

func TestGetIntent_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := client.GetIntent(ctx, "missing"); err == nil {
		t.Fatalf("expected error for missing intent")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("")

	if _, err := client.CreateIntent(context.Background(), 10, "usd"); err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
