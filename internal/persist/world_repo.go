package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// WorldRepo covers quest variables and world state variables.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// GetQuestVar returns the value, or "" when unset.
func (r *WorldRepo) GetQuestVar(ctx context.Context, characterID int, name string) (string, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT value FROM quest_vars WHERE character_id = $1 AND name = $2`,
		characterID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *WorldRepo) SetQuestVar(ctx context.Context, characterID int, name, value string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO quest_vars (character_id, name, value) VALUES ($1, $2, $3)
		 ON CONFLICT (character_id, name) DO UPDATE SET value = EXCLUDED.value`,
		characterID, name, value)
	return err
}

// GetWorldStateVar reads a global (mapID 0) or per-map variable.
func (r *WorldRepo) GetWorldStateVar(ctx context.Context, mapID int, name string) (string, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT value FROM world_state_vars WHERE map_id = $1 AND name = $2`,
		mapID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *WorldRepo) SetWorldStateVar(ctx context.Context, mapID int, name, value string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO world_state_vars (map_id, name, value) VALUES ($1, $2, $3)
		 ON CONFLICT (map_id, name) DO UPDATE SET value = EXCLUDED.value`,
		mapID, name, value)
	return err
}
