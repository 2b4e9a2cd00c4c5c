package world

import (
	"errors"
	"sync"
)

// AdenaID is the currency item template.
const AdenaID int32 = 57

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrNotEnoughItem = errors.New("not enough of item")
)

// InvItem is one inventory slot.
type InvItem struct {
	ID         int32 // object ID, unique per item instance
	TemplateID int32
	Count      int64
	Stackable  bool
	Weight     int32 // per unit
	Equipped   bool
}

// Inventory holds a character's items. Guarded by its own mutex; trades
// and pickups mutate it from different action goroutines.
type Inventory struct {
	mu    sync.Mutex
	items map[int32]*InvItem
}

func NewInventory() *Inventory {
	return &Inventory{items: make(map[int32]*InvItem)}
}

// Add merges count into an existing stack or creates a new slot. Returns
// the resulting item and whether a new slot was created.
func (inv *Inventory) Add(templateID int32, count int64, stackable bool, weight int32) (*InvItem, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if stackable {
		for _, it := range inv.items {
			if it.TemplateID == templateID {
				it.Count += count
				cp := *it
				return &cp, false
			}
		}
	}
	it := &InvItem{
		ID:         NextObjectID(),
		TemplateID: templateID,
		Count:      count,
		Stackable:  stackable,
		Weight:     weight,
	}
	inv.items[it.ID] = it
	cp := *it
	return &cp, true
}

// Remove subtracts count from an item, deleting the slot when it hits
// zero. Returns the remaining count.
func (inv *Inventory) Remove(itemID int32, count int64) (remaining int64, err error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[itemID]
	if !ok {
		return 0, ErrItemNotFound
	}
	if it.Count < count {
		return it.Count, ErrNotEnoughItem
	}
	it.Count -= count
	if it.Count == 0 {
		delete(inv.items, itemID)
		return 0, nil
	}
	return it.Count, nil
}

// Get returns a copy of an item slot, or nil.
func (inv *Inventory) Get(itemID int32) *InvItem {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[itemID]
	if !ok {
		return nil
	}
	cp := *it
	return &cp
}

// FindByTemplate returns a copy of the first slot holding templateID.
func (inv *Inventory) FindByTemplate(templateID int32) *InvItem {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, it := range inv.items {
		if it.TemplateID == templateID {
			cp := *it
			return &cp
		}
	}
	return nil
}

// CountOf sums the held count of a template across slots.
func (inv *Inventory) CountOf(templateID int32) int64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var total int64
	for _, it := range inv.items {
		if it.TemplateID == templateID {
			total += it.Count
		}
	}
	return total
}

// Adena returns the held currency amount.
func (inv *Inventory) Adena() int64 {
	return inv.CountOf(AdenaID)
}

// SpendAdena removes amount of currency if available.
func (inv *Inventory) SpendAdena(amount int64) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, it := range inv.items {
		if it.TemplateID == AdenaID && it.Count >= amount {
			it.Count -= amount
			if it.Count == 0 {
				delete(inv.items, it.ID)
			}
			return true
		}
	}
	return false
}

// Weight returns the total carried weight.
func (inv *Inventory) Weight() int64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var total int64
	for _, it := range inv.items {
		total += int64(it.Weight) * it.Count
	}
	return total
}

// All returns copies of every slot.
func (inv *Inventory) All() []InvItem {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]InvItem, 0, len(inv.items))
	for _, it := range inv.items {
		out = append(out, *it)
	}
	return out
}
