package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nenoreno/jakes-bath-house/internal/lifecycle"
	"github.com/nenoreno/jakes-bath-house/internal/model"
)

// ErrInvalidTransition возвращается при попытке перехода, отсутствующего в таблице переходов.
var ErrInvalidTransition = errors.New("invalid status transition")

// CreateAppointment создаёт запись со статусом confirmed.
func (r *PostgresRepository) CreateAppointment(ctx context.Context, a model.Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO appointments (user_id, pet_id, service_id, appointment_date, appointment_time, status, notes, payment_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		a.UserID, a.PetID, a.ServiceID, a.Date, a.Time,
		string(model.AppointmentStatusConfirmed), a.Notes, a.PaymentID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create appointment: %w", err)
	}
	return id, nil
}

const appointmentViewQuery = `
	SELECT a.id, a.user_id, a.pet_id, a.service_id,
	       to_char(a.appointment_date, 'YYYY-MM-DD'), a.appointment_time,
	       a.status, a.notes, a.payment_id, a.created_at,
	       u.name, u.email, p.name, s.name, s.type,
	       pay.status, pay.payment_type, pay.amount
	FROM appointments a
	JOIN users u ON u.id = a.user_id
	JOIN pets p ON p.id = a.pet_id
	JOIN services s ON s.id = a.service_id
	LEFT JOIN payments pay ON pay.id = a.payment_id`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.PetID, &a.ServiceID,
		&a.Date, &a.Time, &a.Status, &a.Notes, &a.PaymentID, &a.CreatedAt,
		&a.CustomerName, &a.CustomerEmail, &a.PetName, &a.ServiceName, &a.ServiceType,
		&a.PaymentStatus, &a.PaymentType, &a.AmountPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

// GetAppointmentByID возвращает запись со связанными полями для отображения.
func (r *PostgresRepository) GetAppointmentByID(ctx context.Context, id int64) (*model.Appointment, error) {
	row := r.pool.QueryRow(ctx, appointmentViewQuery+` WHERE a.id = $1`, id)
	return scanAppointment(row)
}

// GetAppointmentsByUser возвращает записи клиента от новых к старым.
func (r *PostgresRepository) GetAppointmentsByUser(ctx context.Context, userID int64) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		appointmentViewQuery+` WHERE a.user_id = $1
		 ORDER BY a.appointment_date DESC, a.appointment_time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// GetAppointmentsFiltered возвращает записи для админской панели с необязательными
// фильтрами по статусу и дате.
func (r *PostgresRepository) GetAppointmentsFiltered(ctx context.Context, status, date string) ([]model.Appointment, error) {
	query := appointmentViewQuery + ` WHERE 1=1`
	args := []any{}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND a.appointment_date = $%d", len(args))
	}

	query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select filtered appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var res []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// TransitionAppointmentStatus выполняет переход статуса в транзакции.
// Текущий статус блокируется, переход сверяется с таблицей жизненного цикла,
// повторное применение уже совершённого перехода (тот же целевой статус)
// завершается успехом без изменений. При переходе в completed DIY-услуги
// счётчик визитов клиента увеличивается в той же транзакции.
func (r *PostgresRepository) TransitionAppointmentStatus(ctx context.Context, id int64, to model.AppointmentStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		current     string
		userID      int64
		serviceType string
	)
	err = tx.QueryRow(ctx,
		`SELECT a.status, a.user_id, s.type
		 FROM appointments a
		 JOIN services s ON s.id = a.service_id
		 WHERE a.id = $1
		 FOR UPDATE OF a`,
		id,
	).Scan(&current, &userID, &serviceType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("lock appointment: %w", err)
	}

	from := model.AppointmentStatus(current)
	if !lifecycle.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if from == to {
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(to),
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if to == model.AppointmentStatusCompleted && serviceType == string(model.ServiceTypeDIY) {
		_, err = tx.Exec(ctx,
			`UPDATE users SET wash_count = wash_count + 1, updated_at = now() WHERE id = $1`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("increment wash count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// AttachPayment связывает запись с платежом и подтверждает её.
func (r *PostgresRepository) AttachPayment(ctx context.Context, appointmentID, paymentID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments
		 SET payment_id = $2, status = $3, updated_at = now()
		 WHERE id = $1`,
		appointmentID, paymentID, string(model.AppointmentStatusConfirmed),
	)
	if err != nil {
		return fmt.Errorf("attach payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// GetStats возвращает агрегированные показатели за указанный день.
func (r *PostgresRepository) GetStats(ctx context.Context, date string) (*model.Stats, error) {
	stats := &model.Stats{StatusCounts: make(map[string]int)}

	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(s.price), 0)
		 FROM appointments a
		 JOIN services s ON s.id = a.service_id
		 WHERE a.appointment_date = $1 AND a.status <> 'cancelled'`,
		date,
	).Scan(&stats.TodayRevenue)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments
		 WHERE appointment_date = $1 AND status <> 'cancelled'`,
		date,
	).Scan(&stats.TodayAppointments)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'customer'`,
	).Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM appointments
		 WHERE appointment_date >= $1
		 GROUP BY status`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.StatusCounts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}
