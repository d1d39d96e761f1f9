package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"portfolio-cms/backend/internal/inbox/domain"
)

// PostgresRepository stores messages in inbox_messages.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an inbox repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inbox_messages (id, name, email, phone, reason, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Name, m.Email, m.Phone, m.Reason, m.Message, string(m.Status), m.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, reason, message, status, created_at
		   FROM inbox_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		var status string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Reason, &m.Message, &status, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Status = domain.Status(status)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE inbox_messages SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM inbox_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
