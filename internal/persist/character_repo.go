package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is one stored character: the searchable columns plus the
// opaque serialized record.
type CharacterRow struct {
	ID        int
	AccountID int
	Slot      int
	Name      string
	Blob      []byte
	Online    bool
}

type CharacterRepo struct {
	db *DB
	// locks serializes writes per character id.
	locks keyedMutex
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, account_id, slot, name, blob, online`

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := row.Scan(&c.ID, &c.AccountID, &c.Slot, &c.Name, &c.Blob, &c.Online)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CharacterRepo) GetByID(ctx context.Context, id int) (*CharacterRow, error) {
	return scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
}

// GetByName looks a character up by name; a non-zero ownerID restricts the
// match to that account.
func (r *CharacterRepo) GetByName(ctx context.Context, name string, ownerID int) (*CharacterRow, error) {
	if ownerID != 0 {
		return scanCharacter(r.db.Pool.QueryRow(ctx,
			`SELECT `+characterColumns+` FROM characters WHERE name = $1 AND account_id = $2`,
			name, ownerID))
	}
	return scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE name = $1`, name))
}

// ListByAccount returns an account's characters ordered by slot.
func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID int) ([]*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE account_id = $1 ORDER BY slot`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CharacterRow
	for rows.Next() {
		c := &CharacterRow{}
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Slot, &c.Name, &c.Blob, &c.Online); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Add creates a character and returns its id.
func (r *CharacterRepo) Add(ctx context.Context, accountID, slot int, name string, blob []byte) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, slot, name, blob) VALUES ($1, $2, $3, $4) RETURNING id`,
		accountID, slot, name, blob,
	).Scan(&id)
	return id, err
}

// Update rewrites the character record and its quest variables in one
// transaction. The record blob already carries inventory, kill counts and
// status effects, so one statement plus the quest upserts covers the
// cross-record atomicity requirement.
func (r *CharacterRepo) Update(ctx context.Context, id int, blob []byte, questVars map[string]string) error {
	unlock := r.locks.lock(id)
	defer unlock()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE characters SET blob = $2 WHERE id = $1`, id, blob); err != nil {
		return err
	}
	for name, value := range questVars {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quest_vars (character_id, name, value) VALUES ($1, $2, $3)
			 ON CONFLICT (character_id, name) DO UPDATE SET value = EXCLUDED.value`,
			id, name, value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *CharacterRepo) Delete(ctx context.Context, id int) error {
	unlock := r.locks.lock(id)
	defer unlock()
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	return err
}

func (r *CharacterRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM characters WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (r *CharacterRepo) SetOnlineStatus(ctx context.Context, id int, online bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET online = $2 WHERE id = $1`, id, online)
	return err
}

// ClearOnlineFlags marks everyone offline; run at account service startup
// to recover from a crash.
func (r *CharacterRepo) ClearOnlineFlags(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE characters SET online = FALSE WHERE online`)
	return err
}
