package reading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	takenAtConstraint   = "uq_blood_pressure_taken_at"
	clientRefConstraint = "uq_blood_pressure_client_ref"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// Dates and times cross the wire as text so the stored representation is
// exactly the canonical string.
const readingCols = `id, client_ref, upper_pressure, lower_pressure, pulse_rate,
	to_char(input_date, 'YYYY-MM-DD'), to_char(input_time, 'HH24:MI:SS'), created_at`

func scanReading(row pgx.Row) (*Reading, error) {
	var r Reading
	err := row.Scan(&r.ID, &r.ClientRef, &r.Systolic, &r.Diastolic, &r.Pulse,
		&r.Date, &r.Time, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reading: %w", err)
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, rd *Reading) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blood_pressure (client_ref, upper_pressure, lower_pressure, pulse_rate, input_date, input_time)
		VALUES ($1, $2, $3, $4, $5::text::date, $6::text::time)
		RETURNING id, created_at`,
		rd.ClientRef, rd.Systolic, rd.Diastolic, rd.Pulse, rd.Date, rd.Time,
	).Scan(&rd.ID, &rd.CreatedAt)
	if err != nil {
		return mapPGError("insert reading", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Reading, error) {
	return scanReading(r.pool.QueryRow(ctx, `SELECT `+readingCols+` FROM blood_pressure WHERE id = $1`, id))
}

func (r *repoPG) GetByClientRef(ctx context.Context, ref int64) (*Reading, error) {
	return scanReading(r.pool.QueryRow(ctx, `SELECT `+readingCols+` FROM blood_pressure WHERE client_ref = $1`, ref))
}

func (r *repoPG) Update(ctx context.Context, rd *Reading) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE blood_pressure
		SET upper_pressure = $2, lower_pressure = $3, pulse_rate = $4,
			input_date = $5::text::date, input_time = $6::text::time
		WHERE id = $1`,
		rd.ID, rd.Systolic, rd.Diastolic, rd.Pulse, rd.Date, rd.Time)
	if err != nil {
		return mapPGError("update reading", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blood_pressure WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Reading, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.HasRange() {
		args = append(args, f.From, f.To)
		where = append(where, `input_date BETWEEN $1::text::date AND $2::text::date`)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blood_pressure`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	query := `SELECT ` + readingCols + ` FROM blood_pressure` + clause +
		` ORDER BY input_date DESC, input_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var items []*Reading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate readings: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) ExistsAt(ctx context.Context, date, clock string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blood_pressure
			WHERE input_date = $1::text::date AND input_time = $2::text::time AND id <> $3
		)`, date, clock, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reading timestamp: %w", err)
	}
	return exists, nil
}

func mapPGError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case takenAtConstraint:
			return ErrDuplicateTimestamp
		case clientRefConstraint:
			return errDuplicateClientRef
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
