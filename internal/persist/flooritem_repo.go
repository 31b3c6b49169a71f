package persist

import "context"

// FloorItemRow is one persisted dropped item.
type FloorItemRow struct {
	ID     int
	MapID  int
	ItemID int
	Amount int
	PosX   int
	PosY   int
}

type FloorItemRepo struct {
	db *DB
}

func NewFloorItemRepo(db *DB) *FloorItemRepo {
	return &FloorItemRepo{db: db}
}

func (r *FloorItemRepo) Add(ctx context.Context, it *FloorItemRow) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO floor_items (map_id, item_id, amount, pos_x, pos_y)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		it.MapID, it.ItemID, it.Amount, it.PosX, it.PosY).Scan(&id)
	return id, err
}

func (r *FloorItemRepo) Remove(ctx context.Context, id int) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM floor_items WHERE id = $1`, id)
	return err
}

// GetFromMap returns the persisted floor items of one map.
func (r *FloorItemRepo) GetFromMap(ctx context.Context, mapID int) ([]*FloorItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, map_id, item_id, amount, pos_x, pos_y FROM floor_items WHERE map_id = $1`,
		mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FloorItemRow
	for rows.Next() {
		it := &FloorItemRow{}
		if err := rows.Scan(&it.ID, &it.MapID, &it.ItemID, &it.Amount, &it.PosX, &it.PosY); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
