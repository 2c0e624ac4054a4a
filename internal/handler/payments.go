package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/model"
)

type paymentIntentRequest struct {
	ServiceID   int64             `json:"service_id"`
	PaymentType model.PaymentType `json:"payment_type"`
}

// CreatePaymentIntent регистрирует платёж у провайдера для выбранной услуги.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.ServiceID == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.PaymentType != model.PaymentTypeFull && req.PaymentType != model.PaymentTypeDeposit {
		http.Error(w, "unknown payment type", http.StatusBadRequest)
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), session.UserID, req.ServiceID, req.PaymentType)
	if err != nil {
		h.respondError(w, err, "create payment intent error")
		return
	}

	h.writeJSON(w, http.StatusCreated, intent)
}

type confirmPaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	PetID             int64  `json:"pet_id"`
	ServiceID         int64  `json:"service_id"`
	Date              string `json:"appointment_date"`
	Time              string `json:"appointment_time"`
	Notes             string `json:"notes"`
}

// ConfirmPayment проверяет платёж у провайдера и создаёт оплаченную запись.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.ProviderPaymentID == "" || req.PetID == 0 || req.ServiceID == 0 || req.Date == "" || req.Time == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	a, err := h.service.ConfirmPayment(r.Context(), model.Appointment{
		UserID:    session.UserID,
		PetID:     req.PetID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		Time:      req.Time,
		Notes:     req.Notes,
	}, req.ProviderPaymentID)
	if err != nil {
		h.respondError(w, err, "confirm payment error")
		return
	}

	h.writeJSON(w, http.StatusCreated, a)
}

// GetPaymentStatus возвращает состояние платежа по идентификатору провайдера.
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")
	if providerID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.GetPaymentStatus(r.Context(), providerID)
	if err != nil {
		h.respondError(w, err, "get payment status error")
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}
