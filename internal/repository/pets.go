package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// CreatePet создаёт питомца для указанного владельца.
func (r *PostgresRepository) CreatePet(ctx context.Context, p model.Pet) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO pets (user_id, name, breed, size, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.UserID, p.Name, p.Breed, p.Size, p.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create pet: %w", err)
	}
	return id, nil
}

// GetPetByID возвращает питомца по идентификатору.
func (r *PostgresRepository) GetPetByID(ctx context.Context, id int64) (*model.Pet, error) {
	var p model.Pet
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, breed, size, notes FROM pets WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Breed, &p.Size, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return &p, nil
}

// GetPetsByUser возвращает питомцев владельца, отсортированных по имени.
func (r *PostgresRepository) GetPetsByUser(ctx context.Context, userID int64) ([]model.Pet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, breed, size, notes
		 FROM pets WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		var p model.Pet
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Breed, &p.Size, &p.Notes); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return pets, nil
}

// UpdatePet обновляет данные питомца.
func (r *PostgresRepository) UpdatePet(ctx context.Context, p model.Pet) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pets SET name = $2, breed = $3, size = $4, notes = $5 WHERE id = $1`,
		p.ID, p.Name, p.Breed, p.Size, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPetNotFound
	}
	return nil
}

// DeletePet удаляет питомца.
func (r *PostgresRepository) DeletePet(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPetNotFound
	}
	return nil
}
