package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// CreateUser создаёт нового пользователя с указанной ролью.
func (r *PostgresRepository) CreateUser(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, password, role, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		u.Name, u.Email, u.Phone, u.Password, u.Role, u.Status,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, password, wash_count, role, status, last_login, created_at
		 FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, password, wash_count, role, status, last_login, created_at
		 FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password,
		&u.WashCount, &u.Role, &u.Status, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// TouchLastLogin обновляет время последнего входа пользователя.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// UpdateUser обновляет контактные данные, роль и статус пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET name = $2, email = $3, phone = $4, role = $5, status = $6, updated_at = now()
		 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.Status,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeactivateUser переводит учётную запись в статус inactive. Записи не удаляются.
func (r *PostgresRepository) DeactivateUser(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = now() WHERE id = $1`,
		userID, model.UserStatusInactive,
	)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountUsersByRole возвращает число пользователей с указанной ролью.
func (r *PostgresRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1`,
		role,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

// GetCustomers возвращает всех клиентов со счётчиками питомцев и записей.
func (r *PostgresRepository) GetCustomers(ctx context.Context) ([]model.CustomerSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.phone, u.wash_count, u.created_at,
		        COUNT(DISTINCT p.id) AS pet_count,
		        COUNT(DISTINCT a.id) AS appointment_count
		 FROM users u
		 LEFT JOIN pets p ON p.user_id = u.id
		 LEFT JOIN appointments a ON a.user_id = u.id
		 WHERE u.role = 'customer'
		 GROUP BY u.id
		 ORDER BY u.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var res []model.CustomerSummary
	for rows.Next() {
		var c model.CustomerSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.WashCount, &c.CreatedAt,
			&c.PetCount, &c.AppointmentCount); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
