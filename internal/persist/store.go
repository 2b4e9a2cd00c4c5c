package persist

import (
	"context"

	"github.com/l2kgo/server/internal/world"
)

// Store bundles the repos behind the persistence hooks the game engines
// call.
type Store struct {
	Accounts   *AccountRepo
	Characters *CharacterRepo
	Items      *ItemRepo
	Trades     *TradeLogRepo
}

func NewStore(db *DB) *Store {
	return &Store{
		Accounts:   NewAccountRepo(db),
		Characters: NewCharacterRepo(db),
		Items:      NewItemRepo(db),
		Trades:     NewTradeLogRepo(db),
	}
}

// SaveCharacter writes the character row and its inventory.
func (s *Store) SaveCharacter(ctx context.Context, c *world.Character) error {
	if err := s.Characters.Save(ctx, RowFromCharacter(c)); err != nil {
		return err
	}
	return s.Items.SaveInventory(ctx, c.ID, c.Inv.All())
}

// DeleteGroundItem drops the DB row of a picked up ground item.
func (s *Store) DeleteGroundItem(ctx context.Context, itemID int32) error {
	return s.Items.DeleteGroundItem(ctx, itemID)
}

// LogTrade appends one settled trade line.
func (s *Store) LogTrade(ctx context.Context, sellerID, buyerID, templateID int32, count, adena int64) error {
	return s.Trades.Append(ctx, []TradeEntry{{
		SellerID:   sellerID,
		BuyerID:    buyerID,
		TemplateID: templateID,
		Count:      count,
		Adena:      adena,
	}})
}
