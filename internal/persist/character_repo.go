package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/l2kgo/server/internal/world"
)

// CharacterRow mirrors one row of the characters table. Combat stats are
// stored as a JSON document; they are replaced wholesale on save.
type CharacterRow struct {
	ID          int32
	AccountName string
	Name        string
	ClassID     int32
	Level       int16
	Exp         int64
	SP          int64
	HP          int32
	MP          int32
	CP          int32
	MaxHP       int32
	MaxMP       int32
	MaxCP       int32
	X           int32
	Y           int32
	Z           int32
	Heading     int32
	Karma       int32
	PKCount     int32
	Stats       world.CombatStats
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, account_name, name, class_id, level, exp, sp,
	hp, mp, cp, max_hp, max_mp, max_cp, x, y, z, heading,
	karma, pk_count, stats`

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	c := &CharacterRow{}
	var statsRaw []byte
	err := row.Scan(
		&c.ID, &c.AccountName, &c.Name, &c.ClassID, &c.Level, &c.Exp, &c.SP,
		&c.HP, &c.MP, &c.CP, &c.MaxHP, &c.MaxMP, &c.MaxCP,
		&c.X, &c.Y, &c.Z, &c.Heading, &c.Karma, &c.PKCount, &statsRaw,
	)
	if err != nil {
		return nil, err
	}
	if len(statsRaw) > 0 {
		if err := json.Unmarshal(statsRaw, &c.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
	}
	return c, nil
}

func (r *CharacterRepo) Load(ctx context.Context, id int32) (*CharacterRow, error) {
	c, err := scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1 AND deleted_at IS NULL`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *CharacterRepo) LoadByAccount(ctx context.Context, accountName string) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+`
		 FROM characters
		 WHERE account_name = $1 AND deleted_at IS NULL
		 ORDER BY id`, accountName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	statsRaw, err := json.Marshal(c.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (
			account_name, name, class_id, level, exp, sp,
			hp, mp, cp, max_hp, max_mp, max_cp,
			x, y, z, heading, karma, pk_count, stats
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19
		) RETURNING id`,
		c.AccountName, c.Name, c.ClassID, c.Level, c.Exp, c.SP,
		c.HP, c.MP, c.CP, c.MaxHP, c.MaxMP, c.MaxCP,
		c.X, c.Y, c.Z, c.Heading, c.Karma, c.PKCount, statsRaw,
	).Scan(&c.ID)
}

func (r *CharacterRepo) Save(ctx context.Context, c *CharacterRow) error {
	statsRaw, err := json.Marshal(c.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE characters SET
			level = $2, exp = $3, sp = $4,
			hp = $5, mp = $6, cp = $7, max_hp = $8, max_mp = $9, max_cp = $10,
			x = $11, y = $12, z = $13, heading = $14,
			karma = $15, pk_count = $16, stats = $17,
			updated_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Level, c.Exp, c.SP,
		c.HP, c.MP, c.CP, c.MaxHP, c.MaxMP, c.MaxCP,
		c.X, c.Y, c.Z, c.Heading, c.Karma, c.PKCount, statsRaw,
	)
	return err
}

func (r *CharacterRepo) Delete(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET deleted_at = NOW() WHERE id = $1`, id,
	)
	return err
}

// RowFromCharacter snapshots a live character for saving.
func RowFromCharacter(c *world.Character) *CharacterRow {
	pos := c.Pos()
	hp, maxHP := c.HP()
	mp, maxMP := c.MP()
	cp, maxCP := c.CP()
	return &CharacterRow{
		ID:          c.ID,
		AccountName: c.AccountName,
		Name:        c.Name,
		ClassID:     c.ClassID,
		Level:       c.Level(),
		Exp:         c.Exp(),
		SP:          c.SP(),
		HP:          hp,
		MP:          mp,
		CP:          cp,
		MaxHP:       maxHP,
		MaxMP:       maxMP,
		MaxCP:       maxCP,
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
		Heading:     int32(c.Heading()),
		Karma:       c.Karma(),
		PKCount:     c.PKCount(),
		Stats:       c.Stats(),
	}
}

// ToCharacter builds a live character from a row.
func (c *CharacterRow) ToCharacter() *world.Character {
	ch := world.NewCharacter(
		c.ID, c.Name,
		world.Position{X: c.X, Y: c.Y, Z: c.Z},
		c.Level, c.MaxHP, c.MaxMP, c.MaxCP, c.Stats,
	)
	ch.AccountName = c.AccountName
	ch.ClassID = c.ClassID
	ch.SetHeading(uint16(c.Heading))
	ch.SetPersisted(c.Exp, c.SP, c.Karma, c.PKCount)
	return ch
}
