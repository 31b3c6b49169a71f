package persist

import (
	"context"
	"time"
)

// Transaction is one audit-log entry.
type Transaction struct {
	ID          int
	CharacterID int
	Action      int
	Message     string
	CreatedAt   time.Time
}

type TransactionRepo struct {
	db *DB
}

func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Add(ctx context.Context, characterID, action int, message string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO transactions (character_id, action, message) VALUES ($1, $2, $3)`,
		characterID, action, message)
	return err
}

// GetLast returns the most recent n transactions in insertion order.
func (r *TransactionRepo) GetLast(ctx context.Context, n int) ([]*Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, character_id, action, message, created_at FROM
		   (SELECT id, character_id, action, message, created_at
		      FROM transactions ORDER BY id DESC LIMIT $1) latest
		 ORDER BY id`, n)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// GetSince returns all transactions created at or after t, in insertion order.
func (r *TransactionRepo) GetSince(ctx context.Context, t time.Time) ([]*Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, character_id, action, message, created_at
		   FROM transactions WHERE created_at >= $1 ORDER BY id`, t)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

func collectTransactions(rows pgxRows) ([]*Transaction, error) {
	defer rows.Close()
	var out []*Transaction
	for rows.Next() {
		t := &Transaction{}
		if err := rows.Scan(&t.ID, &t.CharacterID, &t.Action, &t.Message, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
