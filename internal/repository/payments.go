package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// CreatePayment сохраняет платёж со статусом pending.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p model.Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payments (appointment_id, user_id, provider_payment_id, amount, currency, status, payment_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.AppointmentID, p.UserID, p.ProviderPaymentID, p.Amount, p.Currency, p.Status, string(p.Type),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}
	return id, nil
}

// GetPaymentByProviderID возвращает платёж по идентификатору провайдера.
func (r *PostgresRepository) GetPaymentByProviderID(ctx context.Context, providerID string) (*model.Payment, error) {
	var p model.Payment
	err := r.pool.QueryRow(ctx,
		`SELECT id, appointment_id, user_id, provider_payment_id, amount, currency, status, payment_type, created_at
		 FROM payments WHERE provider_payment_id = $1`,
		providerID,
	).Scan(&p.ID, &p.AppointmentID, &p.UserID, &p.ProviderPaymentID,
		&p.Amount, &p.Currency, &p.Status, &p.Type, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatus обновляет статус платежа по идентификатору провайдера.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, providerID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = now() WHERE provider_payment_id = $1`,
		providerID, status,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
