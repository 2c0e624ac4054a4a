package repository

import (
	"context"
	"fmt"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// GetSettings возвращает настройки бизнеса, при необходимости отфильтрованные по категории.
func (r *PostgresRepository) GetSettings(ctx context.Context, category string) ([]model.Setting, error) {
	query := `SELECT id, category, setting_key, setting_value, data_type, description, updated_by, updated_at
	          FROM business_settings`
	args := []any{}

	if category != "" {
		args = append(args, category)
		query += ` WHERE category = $1`
	}

	query += ` ORDER BY category, setting_key`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.ID, &s.Category, &s.Key, &s.Value, &s.DataType,
			&s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return settings, nil
}

// GetSettingCategories возвращает список категорий настроек.
func (r *PostgresRepository) GetSettingCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM business_settings ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

// UpdateSetting обновляет значение настройки и запоминает, кто её изменил.
func (r *PostgresRepository) UpdateSetting(ctx context.Context, category, key, value string, updatedBy int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE business_settings
		 SET setting_value = $3, updated_by = $4, updated_at = now()
		 WHERE category = $1 AND setting_key = $2`,
		category, key, value, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("update setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSettingNotFound
	}
	return nil
}
