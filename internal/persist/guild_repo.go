package persist

import "context"

// Guild is one guild with its member list.
type Guild struct {
	ID      int
	Name    string
	Members []GuildMember
}

type GuildMember struct {
	CharacterID int
	Rights      int
}

type GuildRepo struct {
	db *DB
}

func NewGuildRepo(db *DB) *GuildRepo {
	return &GuildRepo{db: db}
}

// List returns every guild with its members.
func (r *GuildRepo) List(ctx context.Context) ([]*Guild, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM guilds ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]*Guild)
	var out []*Guild
	for rows.Next() {
		g := &Guild{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		byID[g.ID] = g
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := r.db.Pool.Query(ctx,
		`SELECT guild_id, character_id, rights FROM guild_members`)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var guildID int
		var m GuildMember
		if err := mrows.Scan(&guildID, &m.CharacterID, &m.Rights); err != nil {
			return nil, err
		}
		if g, ok := byID[guildID]; ok {
			g.Members = append(g.Members, m)
		}
	}
	return out, mrows.Err()
}

func (r *GuildRepo) Add(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO guilds (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *GuildRepo) Remove(ctx context.Context, id int) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM guilds WHERE id = $1`, id)
	return err
}

func (r *GuildRepo) AddMember(ctx context.Context, guildID, characterID, rights int) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO guild_members (guild_id, character_id, rights) VALUES ($1, $2, $3)`,
		guildID, characterID, rights)
	return err
}

func (r *GuildRepo) RemoveMember(ctx context.Context, guildID, characterID int) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM guild_members WHERE guild_id = $1 AND character_id = $2`,
		guildID, characterID)
	return err
}

func (r *GuildRepo) SetMemberRights(ctx context.Context, guildID, characterID, rights int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE guild_members SET rights = $3 WHERE guild_id = $1 AND character_id = $2`,
		guildID, characterID, rights)
	return err
}
