package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// GetServices возвращает каталог услуг, отсортированный по типу и цене.
func (r *PostgresRepository) GetServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, price, duration_minutes, description, active,
		        requires_deposit, deposit_percentage
		 FROM services ORDER BY type, price`,
	)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Price, &s.DurationMinutes,
			&s.Description, &s.Active, &s.RequiresDeposit, &s.DepositPercentage); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return services, nil
}

// GetServiceByID возвращает услугу по идентификатору.
func (r *PostgresRepository) GetServiceByID(ctx context.Context, id int64) (*model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, type, price, duration_minutes, description, active,
		        requires_deposit, deposit_percentage
		 FROM services WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.Type, &s.Price, &s.DurationMinutes,
		&s.Description, &s.Active, &s.RequiresDeposit, &s.DepositPercentage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &s, nil
}
