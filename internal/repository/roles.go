package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// GetRoles возвращает все роли, отсортированные по имени.
func (r *PostgresRepository) GetRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, display_name, description, permissions, color, created_at
		 FROM roles ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description,
			&role.Permissions, &role.Color, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return roles, nil
}

// GetRoleByID возвращает роль по идентификатору.
func (r *PostgresRepository) GetRoleByID(ctx context.Context, id int64) (*model.Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, display_name, description, permissions, color, created_at
		 FROM roles WHERE id = $1`,
		id,
	)
	return scanRole(row)
}

// GetRoleByName возвращает роль по имени.
func (r *PostgresRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, display_name, description, permissions, color, created_at
		 FROM roles WHERE name = $1`,
		name,
	)
	return scanRole(row)
}

func scanRole(row pgx.Row) (*model.Role, error) {
	var role model.Role
	err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description,
		&role.Permissions, &role.Color, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// CreateRole создаёт новую роль с набором разрешений.
func (r *PostgresRepository) CreateRole(ctx context.Context, role model.Role) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, display_name, description, permissions, color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		role.Name, role.DisplayName, role.Description, role.Permissions, role.Color,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrRoleExists, role.Name)
		}
		return 0, fmt.Errorf("create role: %w", err)
	}
	return id, nil
}

// UpdateRolePermissions заменяет набор разрешений роли.
func (r *PostgresRepository) UpdateRolePermissions(ctx context.Context, roleID int64, permissions []string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET permissions = $2, updated_at = now() WHERE id = $1`,
		roleID, permissions,
	)
	if err != nil {
		return fmt.Errorf("update role permissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// DeleteRole удаляет роль.
func (r *PostgresRepository) DeleteRole(ctx context.Context, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}
