package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

var (
	ErrStoreGone      = errors.New("store no longer open")
	ErrTooFar         = errors.New("too far from store")
	ErrBadListing     = errors.New("listing changed")
	ErrNotEnoughAdena = errors.New("not enough adena")
)

// Pick is one line of a store transaction: which listing and how much.
type Pick struct {
	ItemID     int32 // seller inventory item ID (sell store)
	TemplateID int32 // wanted template (buy store)
	Count      int64
}

// SetUpSellStore opens a sell shop over the character's inventory items.
func (s *Service) SetUpSellStore(c *world.Character, title string, packageSale bool, listings []world.SaleItem) error {
	for _, l := range listings {
		it := c.Inv.Get(l.ItemID)
		if it == nil || it.Count < l.Count || l.Price < 0 {
			return ErrBadListing
		}
	}
	store := world.NewPrivateStoreSell(title, packageSale, listings)
	c.SetSellStore(store)
	c.SetPosture(world.PostureSitting)

	mode := int32(proto.StoreModeSell)
	if packageSale {
		mode = proto.StoreModePackageSell
	}
	s.broadcastNear(c.Pos(), proto.PrivateStoreMode{ActorID: c.ID, Mode: mode})
	s.broadcastNear(c.Pos(), proto.PrivateStoreMsg{ActorID: c.ID, Title: store.Title})
	return nil
}

// SetUpBuyStore opens a buy shop with the character's wishlist.
func (s *Service) SetUpBuyStore(c *world.Character, title string, wishes []world.WishItem) error {
	var need int64
	for _, w := range wishes {
		if w.Count <= 0 || w.Price < 0 {
			return ErrBadListing
		}
		need += w.Count * w.Price
	}
	if c.Inv.Adena() < need {
		return ErrNotEnoughAdena
	}
	store := world.NewPrivateStoreBuy(title, wishes)
	c.SetBuyStore(store)
	c.SetPosture(world.PostureSitting)

	s.broadcastNear(c.Pos(), proto.PrivateStoreMode{ActorID: c.ID, Mode: proto.StoreModeBuy})
	s.broadcastNear(c.Pos(), proto.PrivateStoreMsg{ActorID: c.ID, Title: store.Title})
	return nil
}

// CloseStore shuts whichever shop the character has open.
func (s *Service) CloseStore(c *world.Character) {
	c.SetSellStore(nil)
	c.SetBuyStore(nil)
	c.SetPosture(world.PostureStanding)
	s.broadcastNear(c.Pos(), proto.PrivateStoreMode{ActorID: c.ID, Mode: proto.StoreModeNone})
}

// BuyFromStore purchases picks from another player's sell shop. The whole
// transaction runs under the store lock: validation completes before the
// first mutation, so a failed purchase changes nothing.
func (s *Service) BuyFromStore(buyer *world.Character, sellerID int32, picks []Pick) error {
	seller := s.world.FindCharacter(sellerID)
	if seller == nil {
		s.systemMessage(buyer.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}
	if !buyer.Pos().Within2D(seller.Pos(), InteractionDistance) {
		s.systemMessage(buyer.ID, proto.MsgTooFarFromStore)
		return ErrTooFar
	}
	store := seller.SellStore()
	if store == nil {
		s.systemMessage(buyer.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}

	store.Lock()
	defer store.Unlock()

	// The shop may have closed between the lookup and the lock.
	if seller.SellStore() != store {
		s.systemMessage(buyer.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}
	if store.PackageSale {
		// All-or-nothing: the picks are replaced by the full listing.
		picks = picks[:0]
		for _, l := range store.Listings() {
			picks = append(picks, Pick{ItemID: l.ItemID, Count: l.Count})
		}
	}

	var total int64
	for _, p := range picks {
		l := store.Item(p.ItemID)
		if l == nil || p.Count <= 0 || p.Count > l.Count {
			s.systemMessage(buyer.ID, proto.MsgIncorrectItemCount)
			return ErrBadListing
		}
		if it := seller.Inv.Get(p.ItemID); it == nil || it.Count < p.Count {
			s.systemMessage(buyer.ID, proto.MsgIncorrectItemCount)
			return ErrBadListing
		}
		total += p.Count * l.Price
	}
	if buyer.Inv.Adena() < total {
		s.systemMessage(buyer.ID, proto.MsgNotEnoughAdena)
		return ErrNotEnoughAdena
	}

	// Currency settles first, then the item lines.
	buyer.Inv.SpendAdena(total)
	seller.Inv.Add(world.AdenaID, total, true, 0)
	buyerOps := []proto.ItemOp{adenaOp(buyer)}
	sellerOps := []proto.ItemOp{adenaOp(seller)}

	for _, p := range picks {
		price := store.Item(p.ItemID).Price
		tmplID := seller.Inv.Get(p.ItemID).TemplateID
		buyerOps = append(buyerOps, s.transferItem(seller, buyer, p.ItemID, p.Count))
		sellerOps = append(sellerOps, sellerRemovalOp(seller, p.ItemID, p.Count))
		store.Subtract(p.ItemID, p.Count)
		s.logTrade(seller.ID, buyer.ID, tmplID, p.Count, p.Count*price)
	}

	// One flush per side for the whole transaction.
	s.hub.SendTo(buyer.ID, proto.ItemUpdate{Ops: buyerOps})
	s.hub.SendTo(seller.ID, proto.ItemUpdate{Ops: sellerOps})

	if store.Empty() {
		seller.SetSellStore(nil)
		seller.SetPosture(world.PostureStanding)
		s.broadcastNear(seller.Pos(), proto.PrivateStoreMode{ActorID: seller.ID, Mode: proto.StoreModeNone})
	}

	s.log.Debug("private store purchase",
		zap.Int32("buyer_id", buyer.ID),
		zap.Int32("seller_id", seller.ID),
		zap.Int64("adena", total))
	return nil
}

// SellToStore sells the offered items into another player's buy shop.
func (s *Service) SellToStore(seller *world.Character, buyerID int32, offers []Pick) error {
	buyer := s.world.FindCharacter(buyerID)
	if buyer == nil {
		s.systemMessage(seller.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}
	if !seller.Pos().Within2D(buyer.Pos(), InteractionDistance) {
		s.systemMessage(seller.ID, proto.MsgTooFarFromStore)
		return ErrTooFar
	}
	store := buyer.BuyStore()
	if store == nil {
		s.systemMessage(seller.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}

	store.Lock()
	defer store.Unlock()

	if buyer.BuyStore() != store {
		s.systemMessage(seller.ID, proto.MsgStoreGone)
		return ErrStoreGone
	}

	var total int64
	for _, o := range offers {
		w := store.Wish(o.TemplateID)
		if w == nil || o.Count <= 0 || o.Count > w.Count {
			s.systemMessage(seller.ID, proto.MsgIncorrectItemCount)
			return ErrBadListing
		}
		if seller.Inv.CountOf(o.TemplateID) < o.Count {
			s.systemMessage(seller.ID, proto.MsgIncorrectItemCount)
			return ErrBadListing
		}
		total += o.Count * w.Price
	}
	if buyer.Inv.Adena() < total {
		s.systemMessage(seller.ID, proto.MsgNotEnoughAdena)
		return ErrNotEnoughAdena
	}

	// Currency settles first, then the item lines.
	buyer.Inv.SpendAdena(total)
	seller.Inv.Add(world.AdenaID, total, true, 0)
	buyerOps := []proto.ItemOp{adenaOp(buyer)}
	sellerOps := []proto.ItemOp{adenaOp(seller)}

	for _, o := range offers {
		price := store.Wish(o.TemplateID).Price
		src := seller.Inv.FindByTemplate(o.TemplateID)
		buyerOps = append(buyerOps, s.transferItem(seller, buyer, src.ID, o.Count))
		sellerOps = append(sellerOps, sellerRemovalOp(seller, src.ID, o.Count))
		store.Subtract(o.TemplateID, o.Count)
		s.logTrade(seller.ID, buyer.ID, o.TemplateID, o.Count, o.Count*price)
	}

	s.hub.SendTo(buyer.ID, proto.ItemUpdate{Ops: buyerOps})
	s.hub.SendTo(seller.ID, proto.ItemUpdate{Ops: sellerOps})

	if store.Empty() {
		buyer.SetBuyStore(nil)
		buyer.SetPosture(world.PostureStanding)
		s.broadcastNear(buyer.Pos(), proto.PrivateStoreMode{ActorID: buyer.ID, Mode: proto.StoreModeNone})
	}
	return nil
}

// logTrade records a settled trade line. Storage failures must not
// unwind an already settled exchange, so they are only logged.
func (s *Service) logTrade(sellerID, buyerID, templateID int32, count, adena int64) {
	if s.persist == nil {
		return
	}
	if err := s.persist.LogTrade(context.Background(), sellerID, buyerID, templateID, count, adena); err != nil {
		s.log.Warn("trade log append failed",
			zap.Int32("seller_id", sellerID),
			zap.Int32("buyer_id", buyerID),
			zap.Error(err))
	}
}

// transferItem moves count of the source item from one inventory to the
// other and returns the receiving side's delta. Four cases: the stack
// moves whole or splits, merging into an existing stack or landing as a
// new slot.
func (s *Service) transferItem(from, to *world.Character, itemID int32, count int64) proto.ItemOp {
	src := from.Inv.Get(itemID)
	from.Inv.Remove(itemID, count)
	dst, created := to.Inv.Add(src.TemplateID, count, src.Stackable, src.Weight)
	op := proto.ItemOpModify
	if created {
		op = proto.ItemOpAdd
	}
	return proto.ItemOp{Op: op, ItemID: dst.ID, TemplateID: dst.TemplateID, Count: dst.Count}
}

// sellerRemovalOp describes the giving side's delta after the transfer.
func sellerRemovalOp(seller *world.Character, itemID int32, count int64) proto.ItemOp {
	if rest := seller.Inv.Get(itemID); rest != nil {
		return proto.ItemOp{Op: proto.ItemOpModify, ItemID: itemID, TemplateID: rest.TemplateID, Count: rest.Count}
	}
	return proto.ItemOp{Op: proto.ItemOpRemove, ItemID: itemID}
}

// adenaOp describes the current currency slot after a payment.
func adenaOp(c *world.Character) proto.ItemOp {
	if a := c.Inv.FindByTemplate(world.AdenaID); a != nil {
		return proto.ItemOp{Op: proto.ItemOpModify, ItemID: a.ID, TemplateID: world.AdenaID, Count: a.Count}
	}
	return proto.ItemOp{Op: proto.ItemOpRemove, ItemID: 0, TemplateID: world.AdenaID}
}
