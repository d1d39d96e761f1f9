package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portfolio-cms/backend/internal/content/domain"
)

// PostgresRepository stores sections in content_sections as JSONB.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a content repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT section, content, updated_at FROM content_sections ORDER BY section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Section
	for rows.Next() {
		var s domain.Section
		var content []byte
		if err := rows.Scan(&s.Section, &content, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Content = content
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, section string) (*domain.Section, error) {
	var s domain.Section
	var content []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT section, content, updated_at FROM content_sections WHERE section = $1`, section,
	).Scan(&s.Section, &content, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Content = content
	return &s, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, section string, content []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content_sections (section, content, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (section) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		section, string(content), time.Now().UTC(),
	)
	return err
}

func (r *PostgresRepository) InsertIfMissing(ctx context.Context, section string, content []byte) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO content_sections (section, content, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (section) DO NOTHING`,
		section, string(content), time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM content_sections`).Scan(&n)
	return n, err
}
