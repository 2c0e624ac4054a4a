package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// CreatePhoto сохраняет метаданные загруженной фотографии.
func (r *PostgresRepository) CreatePhoto(ctx context.Context, p model.PetPhoto) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO pet_photos (pet_id, appointment_id, photo_url, photo_type, caption, file_size, file_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.PetID, p.AppointmentID, p.PhotoURL, p.PhotoType, p.Caption, p.FileSize, p.FileType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create photo: %w", err)
	}
	return id, nil
}

// GetPhotosByUser возвращает фотографии питомцев владельца с числом лайков и комментариев.
// Фильтры по питомцу и типу фотографии необязательны.
func (r *PostgresRepository) GetPhotosByUser(ctx context.Context, userID int64, petID int64, photoType string) ([]model.PetPhoto, error) {
	query := `
		SELECT pp.id, pp.pet_id, pp.appointment_id, pp.photo_url, pp.photo_type, pp.caption,
		       pp.file_size, pp.file_type, pp.created_at, p.name,
		       (SELECT COUNT(*) FROM photo_likes pl WHERE pl.photo_id = pp.id),
		       (SELECT COUNT(*) FROM photo_comments pc WHERE pc.photo_id = pp.id)
		FROM pet_photos pp
		JOIN pets p ON p.id = pp.pet_id
		WHERE p.user_id = $1`
	args := []any{userID}

	if petID != 0 {
		args = append(args, petID)
		query += fmt.Sprintf(" AND pp.pet_id = $%d", len(args))
	}
	if photoType != "" {
		args = append(args, photoType)
		query += fmt.Sprintf(" AND pp.photo_type = $%d", len(args))
	}

	query += " ORDER BY pp.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer rows.Close()

	var photos []model.PetPhoto
	for rows.Next() {
		var p model.PetPhoto
		if err := rows.Scan(&p.ID, &p.PetID, &p.AppointmentID, &p.PhotoURL, &p.PhotoType,
			&p.Caption, &p.FileSize, &p.FileType, &p.CreatedAt, &p.PetName,
			&p.LikeCount, &p.CommentCount); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return photos, nil
}

// GetPhotoOwner возвращает фотографию и идентификатор владельца питомца.
func (r *PostgresRepository) GetPhotoOwner(ctx context.Context, photoID int64) (*model.PetPhoto, int64, error) {
	var p model.PetPhoto
	var ownerID int64
	err := r.pool.QueryRow(ctx,
		`SELECT pp.id, pp.pet_id, pp.photo_url, pp.photo_type, p.user_id
		 FROM pet_photos pp
		 JOIN pets p ON p.id = pp.pet_id
		 WHERE pp.id = $1`,
		photoID,
	).Scan(&p.ID, &p.PetID, &p.PhotoURL, &p.PhotoType, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrPhotoNotFound
		}
		return nil, 0, fmt.Errorf("get photo: %w", err)
	}
	return &p, ownerID, nil
}

// DeletePhoto удаляет метаданные фотографии.
func (r *PostgresRepository) DeletePhoto(ctx context.Context, photoID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pet_photos WHERE id = $1`, photoID)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// ToggleLike ставит или снимает лайк пользователя и возвращает действие и итоговое число лайков.
func (r *PostgresRepository) ToggleLike(ctx context.Context, photoID, userID int64) (string, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM photo_likes WHERE photo_id = $1 AND user_id = $2`,
		photoID, userID,
	)
	if err != nil {
		return "", 0, fmt.Errorf("delete like: %w", err)
	}

	action := "unliked"
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO photo_likes (photo_id, user_id) VALUES ($1, $2)`,
			photoID, userID,
		); err != nil {
			return "", 0, fmt.Errorf("insert like: %w", err)
		}
		action = "liked"
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM photo_likes WHERE photo_id = $1`,
		photoID,
	).Scan(&count); err != nil {
		return "", 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, fmt.Errorf("commit tx: %w", err)
	}

	return action, count, nil
}

// CreateComment добавляет комментарий к фотографии.
func (r *PostgresRepository) CreateComment(ctx context.Context, c model.PhotoComment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO photo_comments (photo_id, user_id, comment_text)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		c.PhotoID, c.UserID, c.Text,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create comment: %w", err)
	}
	return id, nil
}

// GetComments возвращает комментарии к фотографии от старых к новым.
func (r *PostgresRepository) GetComments(ctx context.Context, photoID int64) ([]model.PhotoComment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pc.id, pc.photo_id, pc.user_id, pc.comment_text, pc.created_at, u.name, u.role
		 FROM photo_comments pc
		 JOIN users u ON u.id = pc.user_id
		 WHERE pc.photo_id = $1
		 ORDER BY pc.created_at`,
		photoID,
	)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	defer rows.Close()

	var comments []model.PhotoComment
	for rows.Next() {
		var c model.PhotoComment
		if err := rows.Scan(&c.ID, &c.PhotoID, &c.UserID, &c.Text, &c.CreatedAt,
			&c.CommenterName, &c.CommenterRole); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return comments, nil
}
