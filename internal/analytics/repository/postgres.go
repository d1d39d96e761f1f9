package repository

import (
	"context"
	"database/sql"
	"time"

	"portfolio-cms/backend/internal/analytics/domain"
)

// PostgresRepository stores visits in visitor_logs.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an analytics repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *domain.Visit) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visitor_logs (id, ip, user_agent, path, country, city, lat, lon, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.IP, v.UserAgent, v.Path,
		nullString(v.Geo.Country), nullString(v.Geo.City), v.Geo.Lat, v.Geo.Lon, v.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]*domain.Visit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ip, user_agent, path, country, city, lat, lon, created_at
		   FROM visitor_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Visit
	for rows.Next() {
		var v domain.Visit
		var country, city sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.IP, &v.UserAgent, &v.Path, &country, &city, &lat, &lon, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Geo.Country = country.String
		v.Geo.City = city.String
		if lat.Valid {
			v.Geo.Lat = &lat.Float64
		}
		if lon.Valid {
			v.Geo.Lon = &lon.Float64
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CountRange(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM visitor_logs WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&n)
	return n, err
}

func (r *PostgresRepository) TopCountries(ctx context.Context, limit int) ([]domain.CountryCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT country, count(*) AS n FROM visitor_logs
		  WHERE country IS NOT NULL AND country <> ''
		  GROUP BY country ORDER BY n DESC, country LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.CountryCount{}
	for rows.Next() {
		var c domain.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Total(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM visitor_logs`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) UniqueIPs(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(DISTINCT ip) FROM visitor_logs`).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
