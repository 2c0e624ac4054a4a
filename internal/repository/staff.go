package repository

import (
	"context"
	"fmt"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// GetStaff возвращает всех сотрудников вместе с данными их учётных записей.
func (r *PostgresRepository) GetStaff(ctx context.Context) ([]model.StaffMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT au.id, au.user_id, au.role, au.hired_date, au.salary, au.notes, au.created_by, au.created_at,
		        u.name, u.email, u.phone, u.status, u.last_login
		 FROM admin_users au
		 JOIN users u ON u.id = au.user_id
		 ORDER BY au.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select staff: %w", err)
	}
	defer rows.Close()

	var staff []model.StaffMember
	for rows.Next() {
		var m model.StaffMember
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.HiredDate, &m.Salary, &m.Notes,
			&m.CreatedBy, &m.CreatedAt, &m.Name, &m.Email, &m.Phone, &m.UserStatus, &m.LastLogin); err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		staff = append(staff, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return staff, nil
}

// CreateStaffMember создаёт запись о сотруднике для существующего пользователя.
func (r *PostgresRepository) CreateStaffMember(ctx context.Context, m model.StaffMember) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_users (user_id, role, hired_date, salary, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		m.UserID, m.Role, m.HiredDate, m.Salary, m.Notes, m.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create staff member: %w", err)
	}
	return id, nil
}

// UpdateStaffMember обновляет запись о сотруднике по идентификатору пользователя.
// Сессии и разрешения определяет роль из users, поэтому учётная запись
// и запись сотрудника обновляются в одной транзакции. Пустые поля
// учётной записи сохраняют прежние значения.
func (r *PostgresRepository) UpdateStaffMember(ctx context.Context, m model.StaffMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users
		 SET name = COALESCE(NULLIF($2, ''), name),
		     email = COALESCE(NULLIF($3, ''), email),
		     phone = COALESCE(NULLIF($4, ''), phone),
		     role = COALESCE(NULLIF($5, ''), role),
		     status = COALESCE(NULLIF($6, ''), status),
		     updated_at = now()
		 WHERE id = $1`,
		m.UserID, m.Name, m.Email, m.Phone, m.Role, m.UserStatus,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE admin_users
		 SET role = COALESCE(NULLIF($2, ''), role),
		     hired_date = $3, salary = $4, notes = $5, updated_at = now()
		 WHERE user_id = $1`,
		m.UserID, m.Role, m.HiredDate, m.Salary, m.Notes,
	)
	if err != nil {
		return fmt.Errorf("update staff member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
