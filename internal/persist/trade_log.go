package persist

import (
	"context"
	"fmt"
)

// TradeEntry is one line of a settled private store transaction.
type TradeEntry struct {
	SellerID   int32
	BuyerID    int32
	TemplateID int32
	Count      int64
	Adena      int64
}

// TradeLogRepo appends settled trades for audit and rollback tooling.
type TradeLogRepo struct {
	db *DB
}

func NewTradeLogRepo(db *DB) *TradeLogRepo {
	return &TradeLogRepo{db: db}
}

// Append writes a batch of trade lines in a single transaction. One store
// purchase produces one batch.
func (r *TradeLogRepo) Append(ctx context.Context, entries []TradeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("trade log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO trade_log (seller_id, buyer_id, template_id, count, adena)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.SellerID, e.BuyerID, e.TemplateID, e.Count, e.Adena,
		); err != nil {
			return fmt.Errorf("trade log insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
