// Package cart holds the shopper's selected products. The store is the only
// owner of cart state; every mutation is written through to a Slot and
// broadcast to subscribers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const slotTimeout = 2 * time.Second

// Item is a product in the cart. It serializes as the product's fields plus
// "quantity".
type Item struct {
	domain.Product
	Quantity int `json:"quantity"`
}

// Units is the effective quantity; entries saved without one count as 1.
func (i Item) Units() int {
	if i.Quantity < 1 {
		return 1
	}
	return i.Quantity
}

func (i Item) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Units())))
}

type Store struct {
	mu    sync.Mutex
	items []Item
	slot  Slot
	log   *zap.Logger

	subMu   sync.Mutex
	subs    map[int]func([]Item)
	nextSub int
}

// Open rehydrates the cart from slot. A missing, unreadable or corrupt
// payload yields an empty cart.
func Open(ctx context.Context, slot Slot, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		items: []Item{},
		slot:  slot,
		log:   log,
		subs:  make(map[int]func([]Item)),
	}

	data, err := slot.Load(ctx)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		return s
	case err != nil:
		log.Warn("cart load failed, starting empty", zap.Error(err))
		return s
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("cart payload corrupt, starting empty", zap.Error(err))
		return s
	}
	for _, it := range items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		s.items = append(s.items, it)
	}
	return s
}

// Add puts quantity units of product in the cart, merging with an existing
// entry for the same product id. Quantities below 1 are ignored.
func (s *Store) Add(product domain.Product, quantity int) {
	if quantity < 1 {
		return
	}
	s.mutate(func(items []Item) []Item {
		if i := indexOf(items, product.ID); i >= 0 {
			items[i].Quantity = items[i].Units() + quantity
			return items
		}
		return append(items, Item{Product: product, Quantity: quantity})
	})
}

func (s *Store) Remove(productID string) {
	s.mutate(func(items []Item) []Item {
		kept := items[:0]
		for _, it := range items {
			if it.ID != productID {
				kept = append(kept, it)
			}
		}
		return kept
	})
}

// Increment adds one unit. The store does not cap at stock; callers clamp.
func (s *Store) Increment(productID string) {
	s.mutate(func(items []Item) []Item {
		if i := indexOf(items, productID); i >= 0 {
			items[i].Quantity = items[i].Units() + 1
		}
		return items
	})
}

// Decrement removes one unit, never going below 1.
func (s *Store) Decrement(productID string) {
	s.mutate(func(items []Item) []Item {
		if i := indexOf(items, productID); i >= 0 && items[i].Units() > 1 {
			items[i].Quantity = items[i].Units() - 1
		}
		return items
	})
}

func (s *Store) Clear() {
	s.mutate(func([]Item) []Item { return []Item{} })
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, productID) >= 0
}

// Quantity returns the units of productID in the cart, 0 when absent.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, productID); i >= 0 {
		return s.items[i].Units()
	}
	return 0
}

// Count is the number of distinct products.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func([]Item)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func([]Item) []Item) {
	s.mu.Lock()
	s.items = fn(s.items)
	s.persist()
	snap := s.snapshot()
	s.mu.Unlock()

	s.notify(snap)
}

// persist must be called with s.mu held. Failures are logged, never returned.
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.log.Error("cart encode failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), slotTimeout)
	defer cancel()
	if err := s.slot.Save(ctx, data); err != nil {
		s.log.Warn("cart save failed", zap.Int("items", len(s.items)), zap.Error(err))
	}
}

func (s *Store) snapshot() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) notify(snap []Item) {
	s.subMu.Lock()
	fns := make([]func([]Item), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func indexOf(items []Item, productID string) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}
