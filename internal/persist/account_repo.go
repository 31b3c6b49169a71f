package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// AccountRow mirrors one accounts record.
type AccountRow struct {
	ID           int
	Username     string
	PasswordHash string
	Email        string
	Level        int
	BannedUntil  *time.Time
	RegisteredAt time.Time
	LastLogin    *time.Time
}

// Banned reports whether the account is currently banned.
func (a *AccountRow) Banned(now time.Time) bool {
	return a.BannedUntil != nil && a.BannedUntil.After(now)
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, username, password_hash, email, level, banned_until, registered_at, last_login`

func scanAccount(row pgx.Row) (*AccountRow, error) {
	a := &AccountRow{}
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email,
		&a.Level, &a.BannedUntil, &a.RegisteredAt, &a.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByName returns the account, or nil when unknown.
func (r *AccountRepo) GetByName(ctx context.Context, username string) (*AccountRow, error) {
	return scanAccount(r.db.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
}

func (r *AccountRepo) GetByID(ctx context.Context, id int) (*AccountRow, error) {
	return scanAccount(r.db.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// Add creates an account with a bcrypt-hashed password and returns its id.
func (r *AccountRepo) Add(ctx context.Context, username, rawPassword, email string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	var id int
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash, email) VALUES ($1, $2, $3) RETURNING id`,
		username, string(hash), email,
	).Scan(&id)
	return id, err
}

// ValidatePassword checks a raw password against the stored hash.
func (r *AccountRepo) ValidatePassword(hash, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

// Flush writes back the mutable account fields.
func (r *AccountRepo) Flush(ctx context.Context, a *AccountRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET email = $2, level = $3, banned_until = $4 WHERE id = $1`,
		a.ID, a.Email, a.Level, a.BannedUntil,
	)
	return err
}

func (r *AccountRepo) Delete(ctx context.Context, id int) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *AccountRepo) SetLevel(ctx context.Context, id, level int) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET level = $2 WHERE id = $1`, id, level)
	return err
}

func (r *AccountRepo) UpdateLastLogin(ctx context.Context, id int) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET last_login = NOW() WHERE id = $1`, id)
	return err
}

// Ban sets the ban deadline.
func (r *AccountRepo) Ban(ctx context.Context, id int, until time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET banned_until = $2 WHERE id = $1`, id, until)
	return err
}

// ClearExpiredBans lifts bans whose deadline passed; run at startup.
func (r *AccountRepo) ClearExpiredBans(ctx context.Context) (int, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET banned_until = NULL WHERE banned_until IS NOT NULL AND banned_until <= NOW()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *AccountRepo) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *AccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}
