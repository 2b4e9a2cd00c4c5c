package persist

import (
	"context"
	"fmt"

	"github.com/l2kgo/server/internal/world"
)

// ItemRow mirrors one row of the character_items table.
type ItemRow struct {
	ID         int32
	CharID     int32
	TemplateID int32
	Count      int64
	Stackable  bool
	Weight     int32
	Equipped   bool
}

// GroundItemRow mirrors one row of the ground_items table. Rows exist only
// for items that must survive a restart.
type GroundItemRow struct {
	ID         int32
	TemplateID int32
	Count      int64
	Stackable  bool
	Weight     int32
	X, Y, Z    int32
}

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadInventory returns all items belonging to a character.
func (r *ItemRepo) LoadInventory(ctx context.Context, charID int32) ([]ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, char_id, template_id, count, stackable, weight, equipped
		 FROM character_items WHERE char_id = $1`, charID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ID, &it.CharID, &it.TemplateID, &it.Count,
			&it.Stackable, &it.Weight, &it.Equipped); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// SaveInventory replaces the character's stored inventory with the live
// one in a single transaction.
func (r *ItemRepo) SaveInventory(ctx context.Context, charID int32, items []world.InvItem) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("inventory begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM character_items WHERE char_id = $1`, charID,
	); err != nil {
		return fmt.Errorf("inventory clear: %w", err)
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_items (id, char_id, template_id, count, stackable, weight, equipped)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, charID, it.TemplateID, it.Count, it.Stackable, it.Weight, it.Equipped,
		); err != nil {
			return fmt.Errorf("inventory insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// InsertGroundItem records a dropped item that should survive a restart.
func (r *ItemRepo) InsertGroundItem(ctx context.Context, g *world.GroundItem) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO ground_items (id, template_id, count, stackable, weight, x, y, z)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.TemplateID, g.Count, g.Stackable, g.Weight, g.Pos.X, g.Pos.Y, g.Pos.Z,
	)
	return err
}

// DeleteGroundItem removes a picked up or expired ground item row.
func (r *ItemRepo) DeleteGroundItem(ctx context.Context, itemID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM ground_items WHERE id = $1`, itemID,
	)
	return err
}

// LoadGroundItems returns every persisted ground item for world seeding.
func (r *ItemRepo) LoadGroundItems(ctx context.Context) ([]GroundItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, template_id, count, stackable, weight, x, y, z FROM ground_items`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroundItemRow
	for rows.Next() {
		var g GroundItemRow
		if err := rows.Scan(&g.ID, &g.TemplateID, &g.Count, &g.Stackable,
			&g.Weight, &g.X, &g.Y, &g.Z); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}
