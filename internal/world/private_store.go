package world

import "sync"

// StoreTitleMaxLen caps the shop message shown over the merchant's head.
const StoreTitleMaxLen = 29

// SaleItem is one listing in a sell shop, keyed by the seller's inventory
// item ID.
type SaleItem struct {
	ItemID     int32
	TemplateID int32
	Count      int64
	Price      int64 // per unit
}

// WishItem is one listing in a buy shop.
type WishItem struct {
	TemplateID int32
	Count      int64
	Price      int64 // per unit
}

// PrivateStoreSell is an open sell shop. All reads and mutations of the
// listing happen under mu; a buyer holds the lock for the whole purchase
// so concurrent buyers serialize on it.
type PrivateStoreSell struct {
	Title       string
	PackageSale bool // all-or-nothing: buyer takes every listing at once

	mu    sync.Mutex
	items map[int32]*SaleItem
}

func NewPrivateStoreSell(title string, packageSale bool, items []SaleItem) *PrivateStoreSell {
	if len(title) > StoreTitleMaxLen {
		title = title[:StoreTitleMaxLen]
	}
	s := &PrivateStoreSell{
		Title:       title,
		PackageSale: packageSale,
		items:       make(map[int32]*SaleItem, len(items)),
	}
	for i := range items {
		it := items[i]
		s.items[it.ItemID] = &it
	}
	return s
}

func (s *PrivateStoreSell) Lock()   { s.mu.Lock() }
func (s *PrivateStoreSell) Unlock() { s.mu.Unlock() }

// Item returns the listing for itemID. Caller must hold the lock.
func (s *PrivateStoreSell) Item(itemID int32) *SaleItem {
	return s.items[itemID]
}

// Subtract removes count from a listing, dropping it at zero. Caller must
// hold the lock.
func (s *PrivateStoreSell) Subtract(itemID int32, count int64) {
	it, ok := s.items[itemID]
	if !ok {
		return
	}
	it.Count -= count
	if it.Count <= 0 {
		delete(s.items, itemID)
	}
}

// Empty reports whether every listing is sold out. Caller must hold the
// lock.
func (s *PrivateStoreSell) Empty() bool {
	return len(s.items) == 0
}

// Listings returns copies of all listings. Caller must hold the lock.
func (s *PrivateStoreSell) Listings() []SaleItem {
	out := make([]SaleItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	return out
}

// PrivateStoreBuy is an open buy shop with its own lock, same discipline
// as the sell shop.
type PrivateStoreBuy struct {
	Title string

	mu     sync.Mutex
	wishes map[int32]*WishItem
}

func NewPrivateStoreBuy(title string, wishes []WishItem) *PrivateStoreBuy {
	if len(title) > StoreTitleMaxLen {
		title = title[:StoreTitleMaxLen]
	}
	s := &PrivateStoreBuy{
		Title:  title,
		wishes: make(map[int32]*WishItem, len(wishes)),
	}
	for i := range wishes {
		w := wishes[i]
		s.wishes[w.TemplateID] = &w
	}
	return s
}

func (s *PrivateStoreBuy) Lock()   { s.mu.Lock() }
func (s *PrivateStoreBuy) Unlock() { s.mu.Unlock() }

// Wish returns the wishlist entry for a template. Caller must hold the
// lock.
func (s *PrivateStoreBuy) Wish(templateID int32) *WishItem {
	return s.wishes[templateID]
}

// Subtract lowers the wanted count, dropping the entry at zero. Caller
// must hold the lock.
func (s *PrivateStoreBuy) Subtract(templateID int32, count int64) {
	w, ok := s.wishes[templateID]
	if !ok {
		return
	}
	w.Count -= count
	if w.Count <= 0 {
		delete(s.wishes, templateID)
	}
}

// Empty reports whether the wishlist is satisfied. Caller must hold the
// lock.
func (s *PrivateStoreBuy) Empty() bool {
	return len(s.wishes) == 0
}

// Wishes returns copies of the wishlist. Caller must hold the lock.
func (s *PrivateStoreBuy) Wishes() []WishItem {
	out := make([]WishItem, 0, len(s.wishes))
	for _, w := range s.wishes {
		out = append(out, *w)
	}
	return out
}
