package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portfolio-cms/backend/internal/otp/domain"
)

// PostgresRepository stores challenges in the otp_challenges table, primary key (purpose, mobile).
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP challenge repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the challenge, clearing attempts and any previously minted reset token.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (purpose, mobile, code_hash, expires_at, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (purpose, mobile) DO UPDATE SET
		   code_hash = EXCLUDED.code_hash,
		   expires_at = EXCLUDED.expires_at,
		   attempts = EXCLUDED.attempts,
		   created_at = EXCLUDED.created_at,
		   reset_token_hash = NULL,
		   token_expires_at = NULL`,
		string(c.Purpose), c.Mobile, c.CodeHash, c.ExpiresAt.UTC(), c.Attempts, c.CreatedAt.UTC(),
	)
	return err
}

// Get returns the challenge, or nil if none exists.
func (r *PostgresRepository) Get(ctx context.Context, purpose domain.Purpose, mobile string) (*domain.Challenge, error) {
	var (
		c          domain.Challenge
		p          string
		tokenHash  sql.NullString
		tokenUntil sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT purpose, mobile, code_hash, expires_at, attempts, created_at, reset_token_hash, token_expires_at
		   FROM otp_challenges WHERE purpose = $1 AND mobile = $2`,
		string(purpose), mobile,
	).Scan(&p, &c.Mobile, &c.CodeHash, &c.ExpiresAt, &c.Attempts, &c.CreatedAt, &tokenHash, &tokenUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Purpose = domain.Purpose(p)
	if tokenHash.Valid {
		c.ResetTokenHash = tokenHash.String
	}
	if tokenUntil.Valid {
		c.TokenExpiresAt = tokenUntil.Time
	}
	return &c, nil
}

// Attempt locks the challenge row for the duration of the check so concurrent guesses are
// counted one at a time.
func (r *PostgresRepository) Attempt(ctx context.Context, purpose domain.Purpose, mobile, codeHash string, now time.Time) (domain.Outcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NotFound, err
	}
	defer func() { _ = tx.Rollback() }()

	var c domain.Challenge
	err = tx.QueryRowContext(ctx,
		`SELECT code_hash, expires_at, attempts FROM otp_challenges
		  WHERE purpose = $1 AND mobile = $2 FOR UPDATE`,
		string(purpose), mobile,
	).Scan(&c.CodeHash, &c.ExpiresAt, &c.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound, nil
		}
		return domain.NotFound, err
	}
	out := c.Check(codeHash, now)
	if out == domain.Mismatch {
		if _, err := tx.ExecContext(ctx,
			`UPDATE otp_challenges SET attempts = attempts + 1 WHERE purpose = $1 AND mobile = $2`,
			string(purpose), mobile,
		); err != nil {
			return out, err
		}
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	return out, nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET reset_token_hash = $3, token_expires_at = $4 WHERE purpose = $1 AND mobile = $2`,
		string(purpose), mobile, tokenHash, expiresAt.UTC(),
	)
	return requireRow(res, err)
}

// ConsumeResetToken deletes the challenge in one statement so a token can be redeemed at most once.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges
		  WHERE purpose = $1 AND mobile = $2 AND reset_token_hash = $3 AND token_expires_at >= $4`,
		string(purpose), mobile, tokenHash, now.UTC(),
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

func (r *PostgresRepository) Delete(ctx context.Context, purpose domain.Purpose, mobile string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE purpose = $1 AND mobile = $2`,
		string(purpose), mobile,
	)
	return err
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChallengeNotFound
	}
	return nil
}
