package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portfolio-cms/backend/internal/admin/domain"
)

// credentialID is the fixed primary key of the only admin_credentials row.
const credentialID = 1

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an admin credential repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the admin credential, or nil if the row does not exist.
func (r *PostgresRepository) Get(ctx context.Context) (*domain.Credential, error) {
	var (
		c      domain.Credential
		secret sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT mobile, password_hash, mfa_secret, created_at, updated_at
		   FROM admin_credentials WHERE id = $1`, credentialID,
	).Scan(&c.Mobile, &c.PasswordHash, &secret, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if secret.Valid {
		c.MFASecret = secret.String
	}
	return &c, nil
}

// EnsureInitialized inserts the admin row unless one exists. The primary key conflict makes
// concurrent starts safe: exactly one insert wins and the others are no-ops.
func (r *PostgresRepository) EnsureInitialized(ctx context.Context, mobile, passwordHash string) (bool, error) {
	c := &domain.Credential{Mobile: mobile, PasswordHash: passwordHash}
	if err := c.Validate(); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_credentials (id, mobile, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (id) DO NOTHING`,
		credentialID, mobile, passwordHash, now,
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

// SetPassword replaces the password hash.
func (r *PostgresRepository) SetPassword(ctx context.Context, passwordHash string) error {
	return r.update(ctx, `UPDATE admin_credentials SET password_hash = $2, updated_at = $3 WHERE id = $1`, passwordHash)
}

// SetMobile replaces the admin mobile.
func (r *PostgresRepository) SetMobile(ctx context.Context, mobile string) error {
	if err := domain.ValidateMobile(mobile); err != nil {
		return err
	}
	return r.update(ctx, `UPDATE admin_credentials SET mobile = $2, updated_at = $3 WHERE id = $1`, mobile)
}

// SetMFASecret stores the TOTP secret, or NULL when secret is empty.
func (r *PostgresRepository) SetMFASecret(ctx context.Context, secret string) error {
	v := sql.NullString{String: secret, Valid: secret != ""}
	return r.update(ctx, `UPDATE admin_credentials SET mfa_secret = $2, updated_at = $3 WHERE id = $1`, v)
}

func (r *PostgresRepository) update(ctx context.Context, query string, value any) error {
	res, err := r.db.ExecContext(ctx, query, credentialID, value, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotInitialized
	}
	return nil
}
